package arbor

import (
	"slices"
	"testing"
)

func TestInjectClick(t *testing.T) {
	s, a, _, _ := twoBoxes(t)
	clicked := 0
	s.OnPointer(EventClick, func(ev PointerEvent) {
		clicked++
		if ev.Node != a {
			t.Errorf("click on %s, want a", ev.Node.Name)
		}
	})

	s.InjectClick(toScreen(10, 10))
	if s.PendingInjections() != 2 {
		t.Fatalf("pending = %d, want 2", s.PendingInjections())
	}

	s.Update(0) // press
	if s.PendingInjections() != 1 || clicked != 0 {
		t.Fatalf("after frame 1: pending=%d clicked=%d", s.PendingInjections(), clicked)
	}
	s.Update(0) // release
	if s.PendingInjections() != 0 || clicked != 1 {
		t.Errorf("after frame 2: pending=%d clicked=%d", s.PendingInjections(), clicked)
	}
}

func TestInjectDrag(t *testing.T) {
	s, _, _, log := twoBoxes(t)
	fx, fy := toScreen(10, 10)
	tx, ty := toScreen(110, 10)
	s.InjectDrag(fx, fy, tx, ty, 5)
	if s.PendingInjections() != 5 {
		t.Fatalf("pending = %d, want 5", s.PendingInjections())
	}
	for i := 0; i < 5; i++ {
		s.Update(0)
	}
	got := log.take()
	if !slices.Contains(got, "DragBegin:a") || !slices.Contains(got, "DropTo:a>b") {
		t.Errorf("events = %v", got)
	}
}

func TestInjectDragMinFrames(t *testing.T) {
	s := NewScene()
	s.InjectDrag(0, 0, 10, 10, 0)
	if s.PendingInjections() != 2 {
		t.Errorf("pending = %d, want 2 (press + release)", s.PendingInjections())
	}
}

func TestInjectDragInterpolates(t *testing.T) {
	s := NewScene()
	s.InjectDrag(0, 0, 40, 80, 6)
	var xs []float64
	for _, m := range s.injectQueue {
		xs = append(xs, m.X)
	}
	want := []float64{0, 8, 16, 24, 32, 40}
	if !slices.Equal(xs, want) {
		t.Errorf("x = %v, want %v", xs, want)
	}
	if s.injectQueue[0].Kind != InputButtonDown || s.injectQueue[5].Kind != InputButtonUp {
		t.Error("drag must start with a press and end with a release")
	}
}

func TestInjectOneMessagePerUpdate(t *testing.T) {
	s := NewScene()
	s.InjectMove(1, 1)
	s.InjectMove(2, 2)
	s.InjectMessage(InputMessage{Kind: InputKeyDown, Key: 7})

	var keys []int
	s.OnKey(func(ev KeyEvent) { keys = append(keys, ev.Key) })
	s.Update(0)
	s.Update(0)
	if len(keys) != 0 || s.PendingInjections() != 1 {
		t.Fatalf("after 2 frames: keys=%v pending=%d", keys, s.PendingInjections())
	}
	s.Update(0)
	if !slices.Equal(keys, []int{7}) {
		t.Errorf("keys = %v", keys)
	}
	if s.processInjected() {
		t.Error("empty queue should report false")
	}
}

func TestInjectWithCamera(t *testing.T) {
	s := NewScene()
	n := quadChild(s.Root(), "n", 1000, 1000, 20, 20)
	s.MainCamera().Node().SetPosition(1000, 1000)
	s.Update(0)

	clicked := false
	s.OnPointer(EventClick, func(ev PointerEvent) { clicked = ev.Node == n })
	s.InjectClick(650, 370) // world (1010, 1010)
	s.Update(0)
	s.Update(0)
	if !clicked {
		t.Error("click through a moved camera missed")
	}
}
