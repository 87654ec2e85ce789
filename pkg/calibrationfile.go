package qncorrections

import (
	"errors"
	"fmt"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// WriteHistogramFile stores every histogram of list as a TH1D in a ROOT file,
// in name order.
func WriteHistogramFile(filename string, list *HistogramList) error {
	f, err := groot.Create(filename)
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	for _, name := range list.Names() {
		h, _ := list.Get(name)
		if err := f.Put(name, rhist.NewH1DFrom(h)); err != nil {
			return errors.Join(fmt.Errorf("error writing histogram %s: %w", name, err), f.Close())
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", filename, err)
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Wrote %d histograms to %s", list.Len(), filename), "calibration")
	}
	return nil
}

// ReadHistogramFile loads every one-dimensional histogram of a ROOT file.
// Objects of other types are skipped.
func ReadHistogramFile(filename string) (*HistogramList, error) {
	f, err := groot.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	list := NewHistogramList()
	for _, key := range f.Keys() {
		name := key.Name()
		if _, ok := list.Get(name); ok {
			// older cycle of an object already read
			continue
		}
		obj, err := f.Get(name)
		if err != nil {
			return nil, fmt.Errorf("error reading %s from %s: %w", name, filename, err)
		}
		h, ok := obj.(rhist.H1)
		if !ok {
			if verbosity > 1 {
				logger.Info(fmt.Sprintf("Skipping %s of type %s", name, obj.Class()), "calibration")
			}
			continue
		}
		list.Add(name, rootcnv.H1D(h))
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Read %d histograms from %s", list.Len(), filename), "calibration")
	}
	return list, nil
}

// LoadCalibration reads a calibration file if it exists. A missing file is not
// an error: the steps then start collecting.
func LoadCalibration(filename string) (*HistogramList, error) {
	if filename == "" {
		return nil, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if verbosity > 0 {
			logger.Info(fmt.Sprintf("Calibration file %s not found, collecting statistics", filename), "calibration")
		}
		return nil, nil
	}
	return ReadHistogramFile(filename)
}
