package editor

import (
	"fmt"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/tmoosting/tactical-tangle/internal/dispatcher"
	"github.com/tmoosting/tactical-tangle/internal/influx"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// CmdTelemetryCommit carries one commit to the telemetry sink.
const CmdTelemetryCommit = ":TELEMETRY:COMMIT:"

// PointWriter is satisfied by *influx.Manager.
type PointWriter interface {
	WritePoint(p *influxdb2_write.Point) error
}

// RegisterTelemetry routes commit events to w on a buffered queue so a slow
// sink never stalls a command.
func RegisterTelemetry(d *dispatcher.Dispatcher, w PointWriter, bufferSize int) {
	d.Register(CmdTelemetryCommit, func(e dispatcher.Event) (any, error) {
		p, err := influx.CommitPoint(e.Args, e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to build commit point: %w", err)
		}
		if err := w.WritePoint(p); err != nil {
			return nil, fmt.Errorf("failed to write commit point: %w", err)
		}
		return nil, nil
	}, dispatcher.Buffered(bufferSize), dispatcher.Logged())
}

// DispatchObserver forwards commits to CmdTelemetryCommit.
type DispatchObserver struct {
	Dispatcher *dispatcher.Dispatcher
	Now        func() time.Time
}

func (o DispatchObserver) Commit(player, op string, u core.Unit, usedPoints int) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	// a full queue drops the point
	_, _ = o.Dispatcher.Dispatch(dispatcher.Event{
		Command:   CmdTelemetryCommit,
		Args:      influx.CommitArgs(player, op, u, usedPoints),
		Timestamp: now(),
	})
}
