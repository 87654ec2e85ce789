package main

import (
	"fmt"
	"io"
	"os"

	qn "github.com/next-exp/qncorrections_go/pkg"
)

// FileReader reads events from one file honoring the skip and max events
// settings, which apply per file.
type FileReader struct {
	File     *os.File
	reader   *qn.EventReader
	EvtCount int
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{File: file, reader: qn.NewEventReader(file), EvtCount: -1}
}

func (f *FileReader) getNextEvent() (*qn.EventRecord, error) {
	for {
		event, err := f.reader.Next()
		if err != nil {
			return nil, err
		}
		f.EvtCount++
		if f.EvtCount >= configuration.Skip+configuration.MaxEvents {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return nil, io.EOF
		}
		if f.EvtCount < configuration.Skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, event.Event)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 2 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, event.Event)
			logger.Info(message, "fileReader")
		}
		return event, nil
	}
}

// firstRun returns the run number of the first event of a file.
func firstRun(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, &qn.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	event, err := qn.NewEventReader(file).Next()
	if err != nil {
		return 0, fmt.Errorf("error reading first event of %s: %w", filename, err)
	}
	return event.Run, nil
}
