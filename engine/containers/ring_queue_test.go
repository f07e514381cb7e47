package containers

import (
	"errors"
	"testing"
)

func TestRingQueue(t *testing.T) {
	rq := NewRingQueue[int](3)
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatal(err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	if v, _ := rq.Peek(); v != 1 {
		t.Errorf("peek = %d", v)
	}
	if v, _ := rq.Dequeue(); v != 1 {
		t.Errorf("dequeue = %d", v)
	}
	_ = rq.Enqueue(4)

	got := rq.Items()
	if len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Errorf("items = %v", got)
	}
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	rq := NewRingQueue[string](2)
	rq.Push("a")
	rq.Push("b")
	rq.Push("c")

	got := rq.Items()
	if rq.Len() != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("items = %v", got)
	}

	empty := NewRingQueue[string](0)
	empty.Push("x")
	if empty.Len() != 0 {
		t.Error("zero sized queue stored an element")
	}
}
