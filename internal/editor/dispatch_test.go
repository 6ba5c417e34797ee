package editor

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoosting/tactical-tangle/internal/dispatcher"
	"github.com/tmoosting/tactical-tangle/internal/influx"
	"github.com/tmoosting/tactical-tangle/internal/logging"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

func newDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return d
}

func newRegistered(t *testing.T) (*harness, *dispatcher.Dispatcher) {
	t.Helper()
	h := newHarness(t, nil)
	d := newDispatcher(t)
	h.svc.RegisterHandlers(d)
	return h, d
}

func dispatchResult(t *testing.T, d *dispatcher.Dispatcher, line string) core.Result {
	t.Helper()
	out, err := d.DispatchLine(line)
	require.NoError(t, err, line)
	res, ok := out.(core.Result)
	require.True(t, ok, "%s returned %T", line, out)
	return res
}

func TestRegisterHandlers_Commands(t *testing.T) {
	_, d := newRegistered(t)

	for _, cmd := range []string{
		CmdUnitCreate, CmdUnitMove, CmdUnitResize, CmdUnitRename, CmdUnitRemove,
		CmdUnitDuplicate, CmdUnitCopyShape, CmdUnitAlign, CmdUnitTemplate,
		CmdHistoryUndo, CmdHistoryRedo, CmdCharacterAssign, CmdCharacterRemove,
		CmdCharacterAvailable, CmdArmyList, CmdArmyStats, CmdPlacementValidate,
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
	assert.Len(t, d.Commands(), 17)
}

func TestDispatch_CreateMoveUndo(t *testing.T) {
	h, d := newRegistered(t)

	res := dispatchResult(t, d, ":UNIT:CREATE: athens hoplite")
	require.True(t, res.Success)
	u, _ := res.Unit()
	assert.Equal(t, 240, u.Cost)

	res = dispatchResult(t, d, ":UNIT:MOVE: "+u.ID+" 600 400")
	require.True(t, res.Success)
	moved, _ := h.svc.Unit(u.ID)
	assert.Equal(t, core.Position{X: 600, Y: 400}, moved.Position)

	res = dispatchResult(t, d, ":HISTORY:UNDO: athens")
	assert.Equal(t, true, res.Data)
	back, _ := h.svc.Unit(u.ID)
	assert.Equal(t, u.Position, back.Position)

	res = dispatchResult(t, d, ":HISTORY:REDO: athens")
	assert.Equal(t, true, res.Data)
}

func TestDispatch_CreateUnknownType(t *testing.T) {
	_, d := newRegistered(t)

	res := dispatchResult(t, d, ":UNIT:CREATE: athens chariot")
	assert.ErrorIs(t, res.Error(), core.ErrValidation)
}

func TestDispatch_ResizeAndRename(t *testing.T) {
	h, d := newRegistered(t)
	u := h.create(t, "athens", core.Light)

	res := dispatchResult(t, d, ":UNIT:RESIZE: "+u.ID+" 15")
	assert.ErrorIs(t, res.Error(), core.ErrValidation)

	res = dispatchResult(t, d, ":UNIT:RESIZE: "+u.ID+" 90")
	require.True(t, res.Success)
	got, _ := res.Unit()
	assert.Equal(t, 90, got.Cost)

	res = dispatchResult(t, d, `:UNIT:RENAME: `+u.ID+` "Sacred Band"`)
	require.True(t, res.Success)
	got, _ = h.svc.Unit(u.ID)
	assert.Equal(t, "Sacred Band", got.Name)

	res = dispatchResult(t, d, `:UNIT:RENAME: `+u.ID+` "  "`)
	assert.ErrorIs(t, res.Error(), core.ErrValidation)
}

func TestDispatch_Characters(t *testing.T) {
	h, d := newRegistered(t)
	u := h.create(t, "athens", core.Light)

	require.True(t, dispatchResult(t, d, ":CHARACTER:ASSIGN: "+u.ID+" leonidas general").Success)

	res := dispatchResult(t, d, ":CHARACTER:ASSIGN: "+u.ID+" dienekes general")
	assert.ErrorIs(t, res.Error(), core.ErrValidation)

	require.True(t, dispatchResult(t, d, ":CHARACTER:ASSIGN: "+u.ID+" dienekes general replace").Success)
	got, _ := h.svc.Unit(u.ID)
	assert.Equal(t, "dienekes", got.General)

	require.True(t, dispatchResult(t, d, ":CHARACTER:ASSIGN: "+u.ID+" pericles Soldier").Success)
	require.True(t, dispatchResult(t, d, ":CHARACTER:REMOVE: "+u.ID+" soldier pericles").Success)
	require.True(t, dispatchResult(t, d, ":CHARACTER:REMOVE: "+u.ID+" general").Success)

	res = dispatchResult(t, d, ":CHARACTER:ASSIGN: "+u.ID+" pericles captain")
	assert.ErrorIs(t, res.Error(), core.ErrValidation)

	res = dispatchResult(t, d, ":CHARACTER:AVAILABLE:")
	assert.Len(t, res.Data, 3)
}

func TestDispatch_Queries(t *testing.T) {
	h, d := newRegistered(t)
	first := h.create(t, "sparta", core.Cavalry)
	h.create(t, "sparta", core.Cavalry)

	res := dispatchResult(t, d, ":ARMY:LIST: sparta")
	assert.Len(t, res.Data, 2)

	res = dispatchResult(t, d, ":ARMY:STATS: sparta")
	stats := res.Data.(core.ArmyStats)
	assert.Equal(t, 320, stats.UsedPoints)
	assert.Equal(t, 80, stats.TotalSoldiers)

	res = dispatchResult(t, d, ":PLACEMENT:VALIDATE: "+first.ID+" 1000 700")
	require.True(t, res.Success)

	require.True(t, dispatchResult(t, d, ":UNIT:DUPLICATE: "+first.ID).Success)
	require.True(t, dispatchResult(t, d, ":UNIT:TEMPLATE: "+first.ID).Success)
	require.True(t, dispatchResult(t, d, ":UNIT:COPYSHAPE: "+first.ID).Success)
	require.True(t, dispatchResult(t, d, ":UNIT:ALIGN: "+first.ID).Success)
	require.True(t, dispatchResult(t, d, ":UNIT:REMOVE: "+first.ID).Success)
	assert.Len(t, h.units(t, "sparta"), 2)
}

func TestDispatch_MalformedArgs(t *testing.T) {
	_, d := newRegistered(t)

	tests := []struct {
		line    string
		wantErr string
	}{
		{":UNIT:CREATE: athens", "expects 2 args, got 1"},
		{":UNIT:MOVE: u-1 left 10", "error converting x 'left' to float"},
		{":UNIT:RESIZE: u-1 many", "error converting soldier count 'many' to int"},
		{":CHARACTER:ASSIGN: u-1 leonidas general now", "unexpected flag"},
		{":CHARACTER:REMOVE: u-1", "expects 2 to 3 args, got 1"},
		{":PLACEMENT:VALIDATE: u-1 1 y", "error converting y 'y' to float"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := d.DispatchLine(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type fakeWriter struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
	err    error
}

func (w *fakeWriter) WritePoint(p *influxdb2_write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	return w.err
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

func TestTelemetry_CommitsReachWriter(t *testing.T) {
	d := newDispatcher(t)
	w := &fakeWriter{}
	RegisterTelemetry(d, w, 16)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	obs := DispatchObserver{Dispatcher: d, Now: func() time.Time { return at }}
	deps := testDeps(nil, &bytes.Buffer{})
	deps.Observer = obs
	svc, err := NewService(deps)
	require.NoError(t, err)

	require.True(t, svc.CreateUnit("athens", core.Hoplite).Success)

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
	w.mu.Lock()
	p := w.points[0]
	w.mu.Unlock()
	assert.Equal(t, influx.MeasurementCommit, p.Name())
	assert.Equal(t, at, p.Time())
}

func TestTelemetry_BadArgs(t *testing.T) {
	d := newDispatcher(t)
	w := &fakeWriter{err: errors.New("unreachable")}
	RegisterTelemetry(d, w, 4)

	// the buffered handler accepts the event and fails off the caller's goroutine
	out, err := d.Dispatch(dispatcher.Event{Command: CmdTelemetryCommit, Args: []string{"too", "few"}})
	require.NoError(t, err)
	assert.Equal(t, "queued", out)

	obs := DispatchObserver{Dispatcher: d}
	obs.Commit("athens", OpCreate, core.Unit{ID: "u-1", Type: core.Light}, 0)
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
}
