package forme

// UpdateRun is a contiguous horizontal run of cells to rewrite, emitted
// top-to-bottom, left-to-right within a row.
type UpdateRun struct {
	Row      int
	StartCol int
	Cells    []Cell
}

// DiffStrategy names one of the scan strategies the selector chooses
// between.
type DiffStrategy uint8

const (
	StrategyFull DiffStrategy = iota
	StrategyDirtyRow
	StrategyDirtySpan
	StrategyBlockwise
)

func (s DiffStrategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyDirtyRow:
		return "dirty-row"
	case StrategyDirtySpan:
		return "dirty-span"
	case StrategyBlockwise:
		return "blockwise"
	default:
		return "unknown"
	}
}

// DiffConfig tunes the strategy selector. Values are clamped on
// construction; invalid input never panics or produces incorrect output,
// only a worse strategy choice.
type DiffConfig struct {
	HysteresisMargin float64 // new strategy must beat current by this factor
	SwitchAfterN     int     // consecutive winning frames required to switch
	EWMAAlpha        float64 // weight given to the newest observation
}

// DefaultDiffConfig matches the spec's documented defaults.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{HysteresisMargin: 1.1, SwitchAfterN: 3, EWMAAlpha: 0.2}
}

func (c DiffConfig) sanitize() DiffConfig {
	if c.HysteresisMargin < 1 {
		c.HysteresisMargin = 1
	}
	if c.SwitchAfterN < 1 {
		c.SwitchAfterN = 1
	}
	if c.EWMAAlpha <= 0 || c.EWMAAlpha > 1 {
		c.EWMAAlpha = 0.2
	}
	return c
}

// strategyCost is the engine's running per-strategy cost estimate, updated
// by an exponentially-weighted moving average over observed (cells
// scanned, cells changed, wall time) triples. Cost is a unitless scalar:
// scanned cells dominate, changed cells add a constant-factor penalty for
// the work of emitting a run.
type strategyCost struct {
	ewma float64
	seen bool
}

func (c *strategyCost) observe(alpha, cost float64) {
	if !c.seen {
		c.ewma = cost
		c.seen = true
		return
	}
	c.ewma = alpha*cost + (1-alpha)*c.ewma
}

// DiffEngine produces UpdateRuns between two Buffers and picks a scan
// strategy from per-strategy EWMA cost estimates. Only the strategy that
// ran records a cost, and selectStrategy considers only strategies that
// have one, so an engine starts on StrategyDirtyRow and stays there; the
// other strategies are never tried. The selector never affects output:
// every strategy must produce identical UpdateRuns for the same input
// pair, so picking a cheaper one is purely a performance decision.
type DiffEngine struct {
	cfg      DiffConfig
	cost     [4]strategyCost
	current  DiffStrategy
	winStreak int
	winner    DiffStrategy
}

// NewDiffEngine constructs an engine with cfg (sanitized) as its tuning.
func NewDiffEngine(cfg DiffConfig) *DiffEngine {
	return &DiffEngine{cfg: cfg.sanitize(), current: StrategyDirtyRow, winner: StrategyDirtyRow}
}

// Diff compares prev and cur (which must share dimensions) and returns the
// UpdateRuns needed to turn prev into cur, choosing a strategy internally.
// If prev and cur differ in dimensions, the engine falls back to a full
// scan for this call. That is the only fallback: cur's dirty tracking is
// not checked for consistency, and Diff never resets it.
func (e *DiffEngine) Diff(prev, cur *Buffer) []UpdateRun {
	if prev.Cols() != cur.Cols() || prev.Rows() != cur.Rows() {
		return e.scanFull(prev, cur)
	}

	strategy := e.selectStrategy()

	var runs []UpdateRun
	var scanned, changed int

	switch strategy {
	case StrategyFull:
		runs, scanned, changed = e.scanFullCounted(prev, cur)
	case StrategyDirtyRow:
		runs, scanned, changed = e.scanDirtyRows(prev, cur)
	case StrategyDirtySpan:
		runs, scanned, changed = e.scanDirtySpans(prev, cur)
	case StrategyBlockwise:
		runs, scanned, changed = e.scanBlockwise(prev, cur)
	}

	if changed > scanned {
		changed = scanned // clamp: cells_changed <= cells_scanned
	}
	cost := float64(scanned) + float64(changed)*0.25
	e.cost[strategy].observe(e.cfg.EWMAAlpha, cost)

	return runs
}

// selectStrategy picks argmin(estimated cost) among the strategies that
// already have a cost estimate, with hysteresis: a candidate
// must beat the current strategy by HysteresisMargin for SwitchAfterN
// consecutive decisions before the engine actually switches.
func (e *DiffEngine) selectStrategy() DiffStrategy {
	best := e.current
	bestCost := e.cost[e.current].ewma
	haveBest := e.cost[e.current].seen

	for s := DiffStrategy(0); s < 4; s++ {
		if s == e.current || !e.cost[s].seen {
			continue
		}
		if !haveBest || e.cost[s].ewma < bestCost {
			best = s
			bestCost = e.cost[s].ewma
			haveBest = true
		}
	}

	if best == e.current {
		e.winStreak = 0
		return e.current
	}

	curCost := e.cost[e.current].ewma
	if !e.cost[e.current].seen || bestCost*e.cfg.HysteresisMargin < curCost {
		if best == e.winner {
			e.winStreak++
		} else {
			e.winner = best
			e.winStreak = 1
		}
		if e.winStreak >= e.cfg.SwitchAfterN {
			e.current = best
			e.winStreak = 0
		}
	} else {
		e.winStreak = 0
	}
	return e.current
}

func bitsEq(a, b Cell) bool { return a == b }

// diffRow emits UpdateRuns for the [start,end) column range of row y,
// extending any run that would otherwise split a wide/continuation pair.
func diffRow(prev, cur *Buffer, y, start, end int) (runs []UpdateRun, scanned int) {
	x := start
	for x < end {
		if bitsEq(prev.Get(x, y), cur.Get(x, y)) {
			x++
			scanned++
			continue
		}
		runStart := x
		for x < end && !bitsEq(prev.Get(x, y), cur.Get(x, y)) {
			x++
			scanned++
		}
		// Extend to cover a trailing continuation without its wide half,
		// or a leading continuation whose wide half precedes runStart.
		if cur.Get(runStart, y).IsContinuation() && runStart > 0 {
			runStart--
		}
		if x < cur.Cols() && cur.Get(x-1, y).IsWide() && x < end+1 {
			// last included cell is the Wide half; pull its Continuation in too
			if x < cur.Cols() {
				x++
			}
		}
		cells := make([]Cell, x-runStart)
		for i := range cells {
			cells[i] = cur.Get(runStart+i, y)
		}
		runs = append(runs, UpdateRun{Row: y, StartCol: runStart, Cells: cells})
	}
	return runs, scanned
}

func (e *DiffEngine) scanFull(prev, cur *Buffer) []UpdateRun {
	runs, _, _ := e.scanFullCounted(prev, cur)
	return runs
}

func (e *DiffEngine) scanFullCounted(prev, cur *Buffer) (runs []UpdateRun, scanned, changed int) {
	for y := 0; y < cur.Rows(); y++ {
		rowRuns, s := diffRow(prev, cur, y, 0, cur.Cols())
		scanned += s
		for _, r := range rowRuns {
			changed += len(r.Cells)
		}
		runs = append(runs, rowRuns...)
	}
	return runs, scanned, changed
}

func (e *DiffEngine) scanDirtyRows(prev, cur *Buffer) (runs []UpdateRun, scanned, changed int) {
	for y := 0; y < cur.Rows(); y++ {
		if !cur.RowDirty(y) {
			continue
		}
		rowRuns, s := diffRow(prev, cur, y, 0, cur.Cols())
		scanned += s
		for _, r := range rowRuns {
			changed += len(r.Cells)
		}
		runs = append(runs, rowRuns...)
	}
	return runs, scanned, changed
}

func (e *DiffEngine) scanDirtySpans(prev, cur *Buffer) (runs []UpdateRun, scanned, changed int) {
	for y := 0; y < cur.Rows(); y++ {
		if !cur.RowDirty(y) {
			continue
		}
		start, end, ok := cur.DirtySpanRow(y)
		if !ok {
			start, end = 0, cur.Cols()
		}
		rowRuns, s := diffRow(prev, cur, y, start, end)
		scanned += s
		for _, r := range rowRuns {
			changed += len(r.Cells)
		}
		runs = append(runs, rowRuns...)
	}
	return runs, scanned, changed
}

func (e *DiffEngine) scanBlockwise(prev, cur *Buffer) (runs []UpdateRun, scanned, changed int) {
	tilesX := (cur.Cols() + tileWidth - 1) / tileWidth
	tilesY := (cur.Rows() + tileHeight - 1) / tileHeight
	for ty := 0; ty < tilesY; ty++ {
		rowStart := ty * tileHeight
		rowEnd := min(rowStart+tileHeight, cur.Rows())
		for tx := 0; tx < tilesX; tx++ {
			colStart := tx * tileWidth
			if !cur.TileDirty(colStart, rowStart) {
				continue
			}
			colEnd := min(colStart+tileWidth, cur.Cols())
			for y := rowStart; y < rowEnd; y++ {
				rowRuns, s := diffRow(prev, cur, y, colStart, colEnd)
				scanned += s
				for _, r := range rowRuns {
					changed += len(r.Cells)
				}
				runs = append(runs, rowRuns...)
			}
		}
	}
	return runs, scanned, changed
}
