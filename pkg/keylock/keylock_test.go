package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	set := New()
	unlock := set.Lock("u1")

	acquired := make(chan struct{})
	go func() {
		release := set.Lock("u1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key should block")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock was never granted")
	}
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	set := New()
	unlockA := set.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		set.Lock("b")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
}

func TestEntriesAreReleased(t *testing.T) {
	set := New()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := set.Lock("shared")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
	if n := set.size(); n != 0 {
		t.Fatalf("expected no retained entries, got %d", n)
	}
}

func TestZeroValueSetIsUsable(t *testing.T) {
	var set Set
	set.Lock("k")()
	if n := set.size(); n != 0 {
		t.Fatalf("expected no retained entries, got %d", n)
	}
}
