package forme

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestProgram(update UpdateFunc, view ViewFunc, initial any) (*Program, *bytes.Buffer) {
	var out bytes.Buffer
	pool := NewGraphemePool()
	cfg := DefaultConfig()
	w := NewTerminalWriter(&out, pool, cfg, Capability{}, nil)
	bp := NewBufferPool(10, 5)
	p := NewProgram(w, bp, pool, cfg, initial, update, view)
	return p, &out
}

func TestProgramDispatchAdvancesModel(t *testing.T) {
	update := func(model any, msg Msg) (any, Cmd) {
		n := model.(int)
		if _, ok := msg.(string); ok {
			n++
		}
		return n, nil
	}
	p, _ := newTestProgram(update, func(any, *Frame) {}, 0)
	p.dispatch(programEvent{kind: evMsg, msg: "tick"})
	if p.model.(int) != 1 {
		t.Fatalf("expected model advanced to 1, got %v", p.model)
	}
}

func TestProgramResizeFlowsThroughUpdate(t *testing.T) {
	var seen Msg
	update := func(model any, msg Msg) (any, Cmd) {
		seen = msg
		return model, nil
	}
	p, _ := newTestProgram(update, func(any, *Frame) {}, nil)
	p.dispatch(programEvent{kind: evResize, resize: Size{Cols: 40, Rows: 12}})

	size, ok := seen.(Size)
	if !ok || size.Cols != 40 || size.Rows != 12 {
		t.Fatalf("expected the resize event delivered to Update as a Msg, got %+v", seen)
	}
	if cols, rows := p.writer.Size(); cols != 40 || rows != 12 {
		t.Fatalf("expected applyResize to update the writer's dimensions, got %dx%d", cols, rows)
	}
}

func TestProgramDispatchRunsReturnedCmd(t *testing.T) {
	update := func(model any, msg Msg) (any, Cmd) {
		if msg == "go" {
			return model, func(ctx context.Context) Msg { return "done" }
		}
		return model, nil
	}
	p, _ := newTestProgram(update, func(any, *Frame) {}, nil)
	p.dispatch(programEvent{kind: evMsg, msg: "go"})

	select {
	case ev := <-p.events:
		if ev.msg != "done" {
			t.Fatalf("expected the Cmd's result posted back, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the Cmd's result")
	}
}

func TestProgramSendCoalescesWhenQueueFull(t *testing.T) {
	p, _ := newTestProgram(func(m any, msg Msg) (any, Cmd) { return m, nil }, func(any, *Frame) {}, nil)
	for i := 0; i < eventQueueCap; i++ {
		p.Send(i)
	}
	// Queue is now full; one more Send must drop the oldest rather than block.
	done := make(chan struct{})
	go func() {
		p.Send(eventQueueCap)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Send to never block even when the queue is saturated")
	}
}

func TestProgramDrainPendingConsumesEverythingQueued(t *testing.T) {
	var seen []Msg
	update := func(model any, msg Msg) (any, Cmd) {
		seen = append(seen, msg)
		return model, nil
	}
	p, _ := newTestProgram(update, func(any, *Frame) {}, nil)
	p.Send("a")
	p.Send("b")
	p.Send("c")

	needsRender := false
	// Drain the first one the way Run's select arm would, then let
	// drainPending mop up the rest without blocking.
	ev := <-p.events
	p.dispatch(ev)
	p.drainPending(&needsRender)

	if len(seen) != 3 {
		t.Fatalf("expected all three queued messages dispatched, got %v", seen)
	}
	if !needsRender {
		t.Fatalf("expected drainPending to report a render is needed")
	}
}

func TestProgramRunPanicStillTearsDownTerminal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AltScreen = true
	var out bytes.Buffer
	pool := NewGraphemePool()
	w := NewTerminalWriter(&out, pool, cfg, Capability{SynchronizedOutput: true}, nil)
	bp := NewBufferPool(10, 5)

	view := func(model any, frame *Frame) { panic("boom") }
	update := func(model any, msg Msg) (any, Cmd) { return model, nil }
	p := NewProgram(w, bp, pool, cfg, nil, update, view)

	err := p.Run(context.Background())
	if err == nil {
		t.Fatalf("expected Run to return an error after a panicking view")
	}
	var kerr *Error
	if !errors.As(err, &kerr) || kerr.Kind != KindFatal {
		t.Fatalf("expected a KindFatal error wrapping the panic, got %v", err)
	}
	if !strings.Contains(out.String(), syncOutputEnd) {
		t.Fatalf("expected synchronized-output END still emitted despite the panic, got %q", out.String())
	}
	if !strings.Contains(out.String(), "\x1b[?1049l") {
		t.Fatalf("expected alt-screen exit still emitted despite the panic, got %q", out.String())
	}
}

func TestProgramStopCancelsRun(t *testing.T) {
	p, _ := newTestProgram(func(m any, msg Msg) (any, Cmd) { return m, nil }, func(any, *Frame) {}, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	// Give Run a moment to reach its event loop before stopping it.
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected a graceful Stop to return a nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for Run to return after Stop")
	}
}
