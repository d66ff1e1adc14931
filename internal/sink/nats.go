package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/LdDl/eeltrack/mot"
)

// EventMessage is payload published for every event
type EventMessage struct {
	RunID     string  `json:"run_id"`
	Source    string  `json:"source"`
	Frame     int     `json:"frame"`
	Timestamp float64 `json:"timestamp_sec"`
	TrackID   int     `json:"track_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// NATSSink publishes events to <subject>.<run id>
type NATSSink struct {
	nc      *nats.Conn
	subject string
	run     RunInfo
}

func NewNATSSink(url, subject string, run RunInfo) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("eeltrack-"+run.ID.String()),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Can't connect to nats")
	}
	return &NATSSink{
		nc:      nc,
		subject: subject + "." + run.ID.String(),
		run:     run,
	}, nil
}

func encodeEvent(run RunInfo, event mot.Event) ([]byte, error) {
	return json.Marshal(EventMessage{
		RunID:     run.ID.String(),
		Source:    run.Source,
		Frame:     event.Frame,
		Timestamp: event.Timestamp,
		TrackID:   event.TrackID,
		X:         event.Position.X,
		Y:         event.Position.Y,
	})
}

func (sink *NATSSink) Write(ctx context.Context, event mot.Event) error {
	data, err := encodeEvent(sink.run, event)
	if err != nil {
		return errors.Wrap(err, "Can't encode event")
	}
	if err := sink.nc.Publish(sink.subject, data); err != nil {
		return errors.Wrapf(err, "Can't publish event of track %d", event.TrackID)
	}
	return nil
}

func (sink *NATSSink) Close() error {
	defer sink.nc.Close()
	if err := sink.nc.Flush(); err != nil {
		return errors.Wrap(err, "Can't flush nats connection")
	}
	return nil
}
