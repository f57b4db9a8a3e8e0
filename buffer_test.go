package forme

import "testing"

func TestNewBufferAllBlank(t *testing.T) {
	b := NewBuffer(10, 4)
	if b.Cols() != 10 || b.Rows() != 4 {
		t.Fatalf("expected 10x4, got %dx%d", b.Cols(), b.Rows())
	}
	blank := BlankCell()
	for y := 0; y < b.Rows(); y++ {
		for x := 0; x < b.Cols(); x++ {
			if c := b.Get(x, y); c != blank {
				t.Fatalf("expected blank cell at (%d,%d), got %+v", x, y, c)
			}
		}
	}
	if !b.RowDirty(0) {
		t.Fatalf("a fresh buffer should report every row dirty")
	}
}

func TestBufferSetGetOutOfBounds(t *testing.T) {
	b := NewBuffer(4, 4)
	if got := b.Get(-1, 0); got != BlankCell() {
		t.Fatalf("out-of-bounds Get should return blank, got %+v", got)
	}
	b.Set(-1, 0, Cell{GraphemeID: 5}) // must not panic
}

func TestBufferSetWidePairing(t *testing.T) {
	b := NewBuffer(4, 1)
	b.SetWide(0, 0, 42, AttrBold, RGB(1, 1, 1), RGB(2, 2, 2), 0)

	left := b.Get(0, 0)
	right := b.Get(1, 0)
	if !left.IsWide() || !right.IsContinuation() {
		t.Fatalf("expected wide+continuation pair, got %+v / %+v", left, right)
	}
	if left.GraphemeID != right.GraphemeID {
		t.Fatalf("wide pair must share a grapheme id")
	}
}

func TestBufferSetClearsWidePartner(t *testing.T) {
	b := NewBuffer(4, 1)
	b.SetWide(0, 0, 42, 0, PackedColor{}, PackedColor{}, 0)

	// Overwriting the continuation half must blank the wide half too.
	b.Set(1, 0, Cell{GraphemeID: 99, Width: WidthNarrow})
	if left := b.Get(0, 0); left != BlankCell() {
		t.Fatalf("expected wide partner to be blanked, got %+v", left)
	}
}

func TestBufferSetWideAtLastColumnFallsBackToBlank(t *testing.T) {
	b := NewBuffer(1, 1)
	b.SetWide(0, 0, 42, 0, PackedColor{}, PackedColor{}, 0)
	if got := b.Get(0, 0); got != BlankCell() {
		t.Fatalf("expected blank fallback when wide pair cannot fit, got %+v", got)
	}
}

func TestBufferClearRegion(t *testing.T) {
	b := NewBuffer(5, 5)
	for x := 0; x < 5; x++ {
		b.Set(x, 2, Cell{GraphemeID: asciiFastPathBase})
	}
	b.ClearDirtyFlags()

	b.ClearRegion(1, 2, 2, 1)
	if got := b.Get(1, 2); got != BlankCell() {
		t.Fatalf("expected cell cleared, got %+v", got)
	}
	if got := b.Get(0, 2); got == BlankCell() {
		t.Fatalf("expected cell outside the cleared region to survive")
	}
	if !b.RowDirty(2) {
		t.Fatalf("expected row 2 marked dirty by ClearRegion")
	}
}

func TestBufferClearDirtyFlagsResetsTracking(t *testing.T) {
	b := NewBuffer(4, 4)
	b.ClearDirtyFlags()
	if b.RowDirty(0) {
		t.Fatalf("expected rows clean immediately after ClearDirtyFlags")
	}
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase})
	if !b.RowDirty(0) {
		t.Fatalf("expected row 0 dirty after a write")
	}
	if b.RowDirty(1) {
		t.Fatalf("expected row 1 to remain clean")
	}
}

func TestBufferClearDirtyBlanksContentAndRemarksDirty(t *testing.T) {
	b := NewBuffer(4, 4)
	b.ClearDirtyFlags()
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase + 1})
	b.Set(1, 2, Cell{GraphemeID: asciiFastPathBase + 2})

	b.ClearDirty()

	if got := b.Get(0, 0); got != BlankCell() {
		t.Fatalf("expected ClearDirty to blank the content of a dirty cell, got %+v", got)
	}
	if got := b.Get(1, 2); got != BlankCell() {
		t.Fatalf("expected ClearDirty to blank the content of a dirty cell, got %+v", got)
	}
	if !b.RowDirty(0) || !b.RowDirty(2) {
		t.Fatalf("expected rows whose content just changed to blank to stay marked dirty")
	}
}

func TestBufferClearDirtyLeavesUntouchedRowsAloneAndClean(t *testing.T) {
	b := NewBuffer(4, 4)
	b.ClearDirtyFlags()
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase + 1})

	b.ClearDirty()

	if b.RowDirty(1) {
		t.Fatalf("expected a row that was never written to stay clean after ClearDirty")
	}
}

func TestBufferResizePreservesOverlap(t *testing.T) {
	b := NewBuffer(4, 4)
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase + 1})
	b.Resize(2, 2)
	if b.Cols() != 2 || b.Rows() != 2 {
		t.Fatalf("expected 2x2 after resize, got %dx%d", b.Cols(), b.Rows())
	}
	if got := b.Get(0, 0); got.GraphemeID != asciiFastPathBase+1 {
		t.Fatalf("expected overlapping cell preserved across resize, got %+v", got)
	}
}

func TestBufferResizeNoOpWhenUnchanged(t *testing.T) {
	b := NewBuffer(4, 4)
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase + 1})
	b.Resize(4, 4)
	if got := b.Get(0, 0); got.GraphemeID != asciiFastPathBase+1 {
		t.Fatalf("expected no-op resize to preserve content")
	}
}

func TestBufferBlitClipping(t *testing.T) {
	src := NewBuffer(4, 4)
	for x := 0; x < 4; x++ {
		src.Set(x, 0, Cell{GraphemeID: asciiFastPathBase + uint32(x)})
	}
	dst := NewBuffer(2, 2)
	dst.Blit(src, 0, 0, 0, 0, 4, 4) // oversized region must clip to dst's bounds
	if got := dst.Get(0, 0); got.GraphemeID != asciiFastPathBase {
		t.Fatalf("expected blitted cell, got %+v", got)
	}
	if got := dst.Get(1, 0); got.GraphemeID != asciiFastPathBase+1 {
		t.Fatalf("expected blitted cell at (1,0), got %+v", got)
	}
}

func TestBufferDirtySpanMerge(t *testing.T) {
	b := NewBuffer(40, 1)
	b.ClearDirtyFlags()
	b.Set(5, 0, Cell{GraphemeID: asciiFastPathBase})
	b.Set(7, 0, Cell{GraphemeID: asciiFastPathBase})

	start, end, ok := b.DirtySpanRow(0)
	if !ok {
		t.Fatalf("expected a tracked dirty span")
	}
	if start > 5 || end < 8 {
		t.Fatalf("expected span to cover both writes, got [%d,%d)", start, end)
	}
}

func TestBufferCopyFromDimensionMismatch(t *testing.T) {
	a := NewBuffer(4, 4)
	b := NewBuffer(5, 5)
	if a.CopyFrom(b) {
		t.Fatalf("expected CopyFrom to refuse mismatched dimensions")
	}
}

func TestBufferCopyFromMarksEverythingDirty(t *testing.T) {
	a := NewBuffer(2, 2)
	b := NewBuffer(2, 2)
	b.Set(0, 0, Cell{GraphemeID: asciiFastPathBase})
	a.ClearDirtyFlags()

	if !a.CopyFrom(b) {
		t.Fatalf("expected CopyFrom to succeed for matching dimensions")
	}
	if got := a.Get(0, 0); got.GraphemeID != asciiFastPathBase {
		t.Fatalf("expected copied cell, got %+v", got)
	}
	if !a.RowDirty(0) {
		t.Fatalf("expected CopyFrom to mark everything dirty")
	}
}
