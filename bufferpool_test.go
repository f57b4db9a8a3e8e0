package forme

import "testing"

func TestBufferPoolSwapAlternatesBuffers(t *testing.T) {
	p := NewBufferPool(4, 2)
	defer p.Stop()

	first := p.Current()
	second := p.Swap()
	if first == second {
		t.Fatalf("expected Swap to return the other buffer")
	}
	if p.Current() != second {
		t.Fatalf("expected Current to reflect the swap")
	}
	third := p.Swap()
	if third != first {
		t.Fatalf("expected a second Swap to return to the original buffer")
	}
}

func TestBufferPoolWidthHeight(t *testing.T) {
	p := NewBufferPool(7, 3)
	defer p.Stop()
	if p.Width() != 7 || p.Height() != 3 {
		t.Fatalf("got %dx%d", p.Width(), p.Height())
	}
}

func TestBufferPoolResizeAppliesToBothBuffers(t *testing.T) {
	p := NewBufferPool(4, 2)
	defer p.Stop()

	p.Resize(10, 6)
	if p.Width() != 10 || p.Height() != 6 {
		t.Fatalf("expected Current buffer resized, got %dx%d", p.Width(), p.Height())
	}
	p.Swap()
	if p.Width() != 10 || p.Height() != 6 {
		t.Fatalf("expected the other buffer resized too, got %dx%d", p.Width(), p.Height())
	}
}

func TestBufferPoolSwapReturnsClearedBuffer(t *testing.T) {
	p := NewBufferPool(4, 2)
	defer p.Stop()

	buf := p.Current()
	buf.Set(0, 0, Cell{GraphemeID: asciiFastPathBase + 5})
	next := p.Swap()
	next.Set(1, 0, Cell{GraphemeID: asciiFastPathBase + 6})

	back := p.Swap()
	if back != buf {
		t.Fatalf("expected swap to alternate back to the original buffer")
	}
	if got := back.Get(0, 0); got != BlankCell() {
		t.Fatalf("expected the buffer cleared by Swap before reuse, got %+v", got)
	}
}
