package forme

import (
	"context"
	"fmt"
	"os"
	"time"

	"forme/input"
)

// Msg is an opaque application message: the result of a keystroke, a
// subscription tick, or an async command's completion. The program loop
// never inspects a Msg's concrete type itself — that's Update's job.
type Msg any

// Cmd is an optional side effect returned from Update. It runs on its own
// goroutine and, if it produces a Msg, posts it back into the program
// loop's event stream; a nil Cmd (or one returning nil) does nothing.
// Update never touches the terminal directly — only Cmd's eventual Msg
// feeds back through another Update call.
type Cmd func(ctx context.Context) Msg

// UpdateFunc advances model in response to one Msg, optionally returning a
// Cmd to run asynchronously.
type UpdateFunc func(model any, msg Msg) (any, Cmd)

// ViewFunc draws model into frame. It must not block: view construction
// runs on the single render-owner goroutine between Updates.
type ViewFunc func(model any, frame *Frame)

// Sub is a long-lived subscription: a timer, a file watcher, a network
// listener. It runs on its own goroutine from Run until ctx is canceled,
// posting Msg values through post. post is non-blocking: a subscription
// that produces messages faster than the program loop can drain them has
// its oldest undelivered tick coalesced away rather than stalling the
// subscription goroutine or growing without bound.
type Sub func(ctx context.Context, post func(Msg))

const (
	defaultFrameInterval = 16 * time.Millisecond // ~60Hz render/resize-poll tick
	eventQueueCap        = 256
)

type eventKind uint8

const (
	evInput eventKind = iota
	evResize
	evMsg
)

type programEvent struct {
	kind   eventKind
	input  input.Event
	resize Size
	msg    Msg
}

// Program is the C11 event loop: it owns a TerminalWriter and a
// BufferPool, fans input/resize/subscription/async events into a single
// ordered stream, and is the only goroutine that ever calls Update or
// constructs a Frame — "single render owner" per the concurrency model.
type Program struct {
	writer *TerminalWriter
	pool   *BufferPool
	graphemes *GraphemePool
	cfg    Config

	update UpdateFunc
	view   ViewFunc
	model  any

	reader *input.Reader
	parser *input.Parser

	resizeSignal chan os.Signal

	events chan programEvent
	subs   []Sub

	frameInterval time.Duration

	runCtx context.Context
	cancel context.CancelFunc
}

// NewProgram wires a TerminalWriter (already constructed via
// NewTerminalWriter) to an initial model and its update/view functions.
func NewProgram(writer *TerminalWriter, pool *BufferPool, graphemes *GraphemePool, cfg Config, initial any, update UpdateFunc, view ViewFunc) *Program {
	return &Program{
		writer:        writer,
		pool:          pool,
		graphemes:     graphemes,
		cfg:           cfg,
		update:        update,
		view:          view,
		model:         initial,
		events:        make(chan programEvent, eventQueueCap),
		frameInterval: defaultFrameInterval,
	}
}

// Subscribe registers a long-lived subscription to start when Run begins.
// Must be called before Run.
func (p *Program) Subscribe(s Sub) { p.subs = append(p.subs, s) }

// Send enqueues an application message as if a subscription or command had
// produced it, for a host that wants to inject messages from outside the
// program loop (e.g. a test driver).
func (p *Program) Send(msg Msg) {
	select {
	case p.events <- programEvent{kind: evMsg, msg: msg}:
	default:
		// event queue saturated: coalesce by dropping the oldest message,
		// mirroring the subscription backpressure policy rather than
		// blocking the caller indefinitely.
		select {
		case <-p.events:
		default:
		}
		p.events <- programEvent{kind: evMsg, msg: msg}
	}
}

// Run starts the program: it acquires the terminal (TerminalWriter.Start),
// launches the input reader, resize watcher, and every registered
// subscription, performs an initial render, then services events until ctx
// is canceled or Stop is called. Normal return and panic-induced unwinding
// both run the RAII teardown exactly once.
func (p *Program) Run(ctx context.Context) (err error) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.runCtx = ctx

	if err := p.writer.Start(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			p.writer.Shutdown()
			err = newError(KindFatal, "program", fmt.Errorf("panic in view: %v", r))
			return
		}
		p.writer.Shutdown()
	}()
	defer p.cancel()
	defer func() {
		// Cancel interrupts a blocked stdin Read so the input goroutine
		// exits promptly instead of outliving shutdown until the next
		// keystroke.
		if p.reader != nil {
			p.reader.Cancel()
		}
	}()

	reader, rerr := input.NewReader(os.Stdin)
	if rerr == nil {
		p.reader = reader
		p.parser = input.NewParser(input.DefaultLimits())
		go p.readInput(ctx)
	}

	p.watchResize(ctx)

	for _, s := range p.subs {
		go s(ctx, func(m Msg) { p.Send(m) })
	}

	p.render()

	ticker := time.NewTicker(p.frameInterval)
	defer ticker.Stop()

	needsRender := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-p.events:
			p.dispatch(ev)
			needsRender = true
			// Input-before-output fairness: drain every already-queued
			// event before spending a frame boundary on a render.
			p.drainPending(&needsRender)

		case <-ticker.C:
			if size, applied := p.writer.Resize().Poll(); applied {
				p.dispatch(programEvent{kind: evResize, resize: size})
				needsRender = true
			}
			if needsRender {
				p.render()
				needsRender = false
			}
		}
	}
}

// drainPending processes every event already queued without blocking,
// so a burst of input arriving between two frame ticks is fully applied
// before the next render instead of rendering once per keystroke.
func (p *Program) drainPending(needsRender *bool) {
	for {
		select {
		case ev := <-p.events:
			p.dispatch(ev)
			*needsRender = true
		default:
			return
		}
	}
}

func (p *Program) dispatch(ev programEvent) {
	var msg Msg
	switch ev.kind {
	case evInput:
		msg = ev.input
	case evResize:
		msg = ev.resize
		p.applyResize(ev.resize)
	case evMsg:
		msg = ev.msg
	}

	model, cmd := p.update(p.model, msg)
	p.model = model
	if cmd != nil {
		go func() {
			if result := cmd(p.runCtx); result != nil {
				p.Send(result)
			}
		}()
	}
}

func (p *Program) applyResize(size Size) {
	p.pool.Resize(size.Cols, size.Rows)
	p.writer.ApplyResize(size)
}

// render builds one Frame over the pool's current buffer, hands it to the
// view function, and presents the result. Run calls it once at start and
// after that only on frame ticks, in inline mode as in alt-screen mode; no
// event triggers an immediate render.
func (p *Program) render() {
	buf := p.pool.Current()
	frame := NewFrame(buf, p.graphemes)
	p.view(p.model, frame)

	if p.cfg.InlineMode {
		p.writer.PresentInline(buf, frame.Cursor(), frame.links)
	} else {
		p.writer.Present(buf, frame.Cursor(), frame.links)
	}
	p.pool.Swap()
}

// readInput runs on its own goroutine, feeding raw bytes through the
// parser and posting every decoded Event into the program's event stream.
// Input events are never dropped: Send's own channel is used directly
// here with a blocking send rather than Program.Send's coalescing path.
func (p *Program) readInput(ctx context.Context) {
	defer p.reader.Close()
	buf := make([]byte, 4096)
	for {
		n, err := p.reader.Read(buf)
		if err != nil {
			return
		}
		for _, ev := range p.parser.Feed(buf[:n]) {
			select {
			case p.events <- programEvent{kind: evInput, input: ev}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// watchResize feeds OS resize notifications into the writer's
// ResizeCoalescer via Observe; Poll (called from Run's ticker) decides
// when a coalesced size is actually applied. The concrete OS signal wiring
// lives in resize_unix.go / resize_windows.go (build-tag gated) since
// SIGWINCH has no Windows equivalent.
func (p *Program) watchResize(ctx context.Context) {
	p.resizeSignal = make(chan os.Signal, 4)
	notifyResize(p.resizeSignal)
	go func() {
		defer stopResizeNotify(p.resizeSignal)
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.resizeSignal:
				if w, h, err := queryTerminalSize(p.writer); err == nil {
					p.writer.Resize().Observe(Size{Cols: w, Rows: h})
				}
			}
		}
	}()
}

// Stop requests a graceful shutdown; Run returns once the current event
// (if any) finishes dispatching and the teardown defers run.
func (p *Program) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}
