package qncorrections

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// EventReader decodes a JSON lines stream of EventRecord.
type EventReader struct {
	dec      *json.Decoder
	EvtCount int
}

func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{dec: json.NewDecoder(bufio.NewReader(r)), EvtCount: -1}
}

// Next returns io.EOF at the end of the stream.
func (r *EventReader) Next() (*EventRecord, error) {
	var ev EventRecord
	if err := r.dec.Decode(&ev); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error decoding event %d: %w", r.EvtCount+1, err)
	}
	r.EvtCount++
	return &ev, nil
}

// EventWriter encodes EventRecords as JSON lines.
type EventWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func NewEventWriter(w io.Writer) *EventWriter {
	bw := bufio.NewWriter(w)
	return &EventWriter{w: bw, enc: json.NewEncoder(bw)}
}

func (w *EventWriter) Write(ev *EventRecord) error {
	return w.enc.Encode(ev)
}

func (w *EventWriter) Flush() error {
	return w.w.Flush()
}
