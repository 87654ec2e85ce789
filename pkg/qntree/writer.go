// Package qntree writes the per event corrected Qn-vectors to an HDF5 file.
package qntree

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Writer appends one row per event: the event identifiers to Run/events and
// the flattened Qn-vector components to QnVectors/values. Column names are
// stored once in QnVectors/columns.
type Writer struct {
	File         *hdf5.File
	Filename     string
	RunGroup     *hdf5.Group
	QnGroup      *hdf5.Group
	EventTable   *hdf5.Dataset
	ColumnsTable *hdf5.Dataset
	Values       *hdf5.Dataset
	NColumns     int
	EvtCounter   int
}

func NewWriter(filename string, columns []string, compression int) (*Writer, error) {
	if len(columns) == 0 {
		return nil, errors.New("qntree: no columns to write")
	}
	for _, c := range columns {
		if len(c) > STRLEN {
			return nil, fmt.Errorf("qntree: column name %q longer than %d", c, STRLEN)
		}
	}

	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	f, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("qntree: creating %s: %w", filename, err)
	}
	w := &Writer{File: f, Filename: filename, NColumns: len(columns)}
	if err := w.create(columns, compression); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *Writer) create(columns []string, compression int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.QnGroup, err = createGroup(w.File, "QnVectors"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventDataHDF5{}, compression); err != nil {
		return err
	}
	if w.ColumnsTable, err = createTable(w.QnGroup, "columns", ColumnHDF5{}, compression); err != nil {
		return err
	}
	if w.Values, err = create2dArray(w.QnGroup, "values", len(columns), compression); err != nil {
		return err
	}

	entries := make([]ColumnHDF5, len(columns))
	for i, c := range columns {
		entries[i] = ColumnHDF5{name: convertToHdf5String(c), index: int32(i)}
	}
	if err := writeArrayToTable(w.ColumnsTable, &entries, 0); err != nil {
		return fmt.Errorf("qntree: writing column names: %w", err)
	}
	return nil
}

// WriteEvent appends one event row. values must hold one entry per column.
func (w *Writer) WriteEvent(run int, label string, event int, values []float64) error {
	if len(values) != w.NColumns {
		return fmt.Errorf("qntree: %d values for %d columns", len(values), w.NColumns)
	}
	entry := EventDataHDF5{
		evt_number: int32(event),
		run_number: int32(run),
		label:      convertToHdf5String(label),
	}
	if err := writeEntryToTable(w.EventTable, entry, w.EvtCounter); err != nil {
		return fmt.Errorf("qntree: writing event %d: %w", event, err)
	}
	row := append([]float64(nil), values...)
	if err := write2dArray(w.Values, &row, w.EvtCounter, w.NColumns); err != nil {
		return fmt.Errorf("qntree: writing Qn-vectors of event %d: %w", event, err)
	}
	w.EvtCounter++
	return nil
}

func (w *Writer) Close() error {
	var errs []error

	if w.EventTable != nil {
		if err := w.EventTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing event table: %w", err))
		}
	}
	if w.ColumnsTable != nil {
		if err := w.ColumnsTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing columns table: %w", err))
		}
	}
	if w.Values != nil {
		if err := w.Values.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing Qn-vector values: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.QnGroup != nil {
		if err := w.QnGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing QnVectors group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
