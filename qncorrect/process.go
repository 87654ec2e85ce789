package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	qn "github.com/next-exp/qncorrections_go/pkg"
	"github.com/next-exp/qncorrections_go/pkg/qntree"
)

// processFile runs every event of filename through the manager. The run
// number is the process list name.
func processFile(m *qn.Manager, filler *qn.EventFiller, filename string, tree *qntree.Writer) error {
	file, err := os.Open(filename)
	if err != nil {
		return &qn.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Processing file %s", filename), "main")
	}

	fileReader := NewFileReader(file)
	for {
		event, err := fileReader.getNextEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading %s: %w", filename, err)
		}
		if err := processEvent(m, filler, event, tree); err != nil {
			return err
		}
	}
}

func processEvent(m *qn.Manager, filler *qn.EventFiller, event *qn.EventRecord, tree *qntree.Writer) error {
	if err := m.SetCurrentProcessListName(strconv.Itoa(event.Run)); err != nil {
		return fmt.Errorf("error switching to run %d: %w", event.Run, err)
	}
	m.ClearEvent()
	vars := filler.Fill(m, event)
	if err := m.ProcessEvent(vars); err != nil {
		return fmt.Errorf("error processing event %d: %w", event.Event, err)
	}
	if tree != nil && m.EventAccepted() {
		if err := tree.WriteEvent(event.Run, m.CurrentLabel(), event.Event, m.TreeRow()); err != nil {
			return err
		}
	}
	return nil
}

// newManager builds and initializes a manager for one pass.
func newManager(setup qn.SetupConfig, channelMaps map[int]*qn.ChannelMap, calibration *qn.HistogramList) (*qn.Manager, error) {
	m, err := qn.BuildManager(setup, channelMaps)
	if err != nil {
		return nil, fmt.Errorf("error building manager: %w", err)
	}
	if err := m.Initialize(calibration); err != nil {
		return nil, fmt.Errorf("error initializing manager: %w", err)
	}
	return m, nil
}
