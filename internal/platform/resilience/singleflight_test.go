package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_Do(t *testing.T) {
	var g Group[string]
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := g.Do("industry:tech", func() (string, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil || v != "ok" {
				t.Errorf("shared call failed: v=%q err=%v", v, err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestGroup_DoRunsAgainAfterCompletion(t *testing.T) {
	var g Group[int]
	calls := 0

	for i := 0; i < 2; i++ {
		if _, err, shared := g.Do("k", func() (int, error) {
			calls++
			return calls, nil
		}); err != nil || shared {
			t.Fatalf("unexpected result: err=%v shared=%v", err, shared)
		}
	}

	if calls != 2 {
		t.Fatalf("expected sequential calls to execute twice, got %d", calls)
	}
}

func TestGroup_WaitersSeePanic(t *testing.T) {
	var g Group[int]
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		_, _, _ = g.Do("k", func() (int, error) {
			close(entered)
			<-release
			panic("generator exploded")
		})
	}()

	<-entered
	result := make(chan error, 1)
	go func() {
		_, err, _ := g.Do("k", func() (int, error) { return 1, nil })
		result <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	err := <-result
	if err != nil && !errors.Is(err, ErrCallPanicked) {
		t.Fatalf("expected ErrCallPanicked or a fresh call, got %v", err)
	}
}
