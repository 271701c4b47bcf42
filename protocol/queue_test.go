package protocol

import (
	"errors"
	"sync"
	"testing"
)

func TestQueueRoundsCapacity(t *testing.T) {
	cases := []struct{ in, want int }{{1, 1}, {3, 4}, {8, 8}, {1000, 1024}, {0, 1}}
	for _, c := range cases {
		if got := NewQueue[int](c.in).Cap(); got != c.want {
			t.Errorf("capacity %d: expected %d, got %d", c.in, c.want, got)
		}
	}
}

func TestQueueOverflowDrops(t *testing.T) {
	q := NewQueue[AudioMessage](4)
	for i := 0; i < 4; i++ {
		if err := q.Push(NoteOff(0, Token(i))); err != nil {
			t.Fatalf("push %d: unexpected error %v", i, err)
		}
	}
	err := q.Push(Panic())
	if !errors.Is(err, ErrDropped) {
		t.Fatalf("expected ErrDropped on a full queue, got %v", err)
	}
	if q.Len() != 4 {
		t.Fatalf("expected 4 queued items, got %d", q.Len())
	}

	// The dropped message must not have replaced anything.
	for i := 0; i < 4; i++ {
		m, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if m.Kind != KindNoteOff || m.Token != Token(i) {
			t.Errorf("pop %d: expected note-off token %d, got %v token %d", i, i, m.Kind, m.Token)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected empty queue")
	}
	if err := q.Push(Panic()); err != nil {
		t.Errorf("expected room after draining, got %v", err)
	}
}

func TestQueueConcurrentOrder(t *testing.T) {
	const n = 100000
	q := NewQueue[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.Push(i) == nil {
				i++
			}
		}
	}()

	next := 0
	for next < n {
		v, ok := q.Pop()
		if !ok {
			continue
		}
		if v != next {
			t.Fatalf("expected %d, got %d", next, v)
		}
		next++
	}
	wg.Wait()
}

func BenchmarkQueuePushPop(b *testing.B) {
	q := NewQueue[AudioMessage](1024)
	m := NoteOn(0, 60, 1, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = q.Push(m)
		q.Pop()
	}
}
