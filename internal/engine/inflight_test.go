package engine

import (
	"sync"
	"testing"

	"tether/pkg/chat"
)

func TestInflightDedup(t *testing.T) {
	r := newInflightRegistry()
	key := chat.Key{Channel: "C1", Ref: "1.0"}

	if !r.begin(key) {
		t.Fatal("first begin = false, want claim")
	}
	if r.begin(key) {
		t.Error("second begin = true, want dedup")
	}
	if got := r.size(); got != 1 {
		t.Errorf("size = %d, want 1", got)
	}

	r.done(key)
	if got := r.size(); got != 0 {
		t.Errorf("size after done = %d, want 0", got)
	}
	if !r.begin(key) {
		t.Error("begin after done = false, want fresh claim")
	}
}

func TestInflightConcurrentClaims(t *testing.T) {
	r := newInflightRegistry()
	key := chat.Key{Channel: "C1", Ref: "1.0"}

	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.begin(key) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Errorf("%d concurrent claims won, want exactly 1", n)
	}
}
