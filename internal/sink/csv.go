package sink

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/LdDl/eeltrack/mot"
)

var csvHeader = []string{"frame", "timestamp_sec", "track_id", "x", "y"}

// CSVSink writes one row per event and flushes after every row, so the file is usable while the run is going
type CSVSink struct {
	writer *csv.Writer
	closer io.Closer
}

// NewCSVSink creates (truncates) file at path and writes the header
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create CSV file %s", path)
	}
	sink, err := NewCSVWriterSink(file, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return sink, nil
}

// NewCSVWriterSink writes to arbitrary writer. closer may be nil.
func NewCSVWriterSink(w io.Writer, closer io.Closer) (*CSVSink, error) {
	sink := &CSVSink{
		writer: csv.NewWriter(w),
		closer: closer,
	}
	if err := sink.writeRow(csvHeader); err != nil {
		return nil, errors.Wrap(err, "Can't write CSV header")
	}
	return sink, nil
}

func (sink *CSVSink) writeRow(row []string) error {
	if err := sink.writer.Write(row); err != nil {
		return err
	}
	sink.writer.Flush()
	return sink.writer.Error()
}

// Write appends event as a row
func (sink *CSVSink) Write(ctx context.Context, event mot.Event) error {
	err := sink.writeRow([]string{
		strconv.Itoa(event.Frame),
		formatFloat(event.Timestamp),
		strconv.Itoa(event.TrackID),
		formatFloat(event.Position.X),
		formatFloat(event.Position.Y),
	})
	if err != nil {
		return errors.Wrapf(err, "Can't write CSV row for track %d", event.TrackID)
	}
	return nil
}

func (sink *CSVSink) Close() error {
	sink.writer.Flush()
	if err := sink.writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush CSV")
	}
	if sink.closer == nil {
		return nil
	}
	return sink.closer.Close()
}

// formatFloat prints at most 6 significant digits
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
