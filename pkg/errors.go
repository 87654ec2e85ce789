package qncorrections

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("manager not initialized")
	ErrAlreadyInitialized = errors.New("manager already initialized")
	ErrEventNotCleared    = errors.New("ClearEvent must be called before processing an event")
	ErrFinalized          = errors.New("manager already finalized")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrConfiguration is a fatal setup problem detected while building or
// initializing a Manager.
type ErrConfiguration struct {
	Component string
	Reason    string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// ErrCalibrationShape is returned when a supplied calibration histogram does
// not match the layout expected by the step that should consume it.
type ErrCalibrationShape struct {
	Name     string
	Expected int
	Found    int
	Missing  bool
}

func (e *ErrCalibrationShape) Error() string {
	if e.Missing {
		return fmt.Sprintf("calibration histogram %q missing while sibling histograms are present", e.Name)
	}
	return fmt.Sprintf("calibration histogram %q has %d cells, expected %d", e.Name, e.Found, e.Expected)
}

// ErrUnknownEnum represents an unsupported enumeration value in a configuration.
type ErrUnknownEnum struct {
	Enum  string
	Value string
}

func (e *ErrUnknownEnum) Error() string {
	return fmt.Sprintf("unsupported %s value %q", e.Enum, e.Value)
}
