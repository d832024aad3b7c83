package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/atom-comb/app/feed"
)

type countingTask struct {
	Task
	failures int32
	calls    atomic.Int32
	done     chan struct{}
}

func newCountingTask(failures int32) *countingTask {
	return &countingTask{
		Task:     NewTask(TaskTypeRefilterFeed, "example"),
		failures: failures,
		done:     make(chan struct{}),
	}
}

func (c *countingTask) Execute(ctx context.Context) error {
	if n := c.calls.Add(1); n <= c.failures {
		return errors.New("temporary failure")
	}
	close(c.done)
	return nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cache := feed.NewConfigCache(t.TempDir())
	if err := cache.Run(); err != nil {
		t.Fatalf("Failed to load config cache: %v", err)
	}
	return NewScheduler(Dependencies{
		ConfigCache: cache,
		FeedRepo:    NewMockFeedRepository(),
		ItemRepo:    NewMockItemRepository(),
		Fetcher:     NewFetcher(nil, "test", 100),
		Parser:      feed.NewParser(),
		Filterer:    feed.NewFilterer(),
	}, 2, time.Hour)
}

func TestScheduler_ExecutesEnqueuedTask(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()
	defer s.Stop()

	task := newCountingTask(0)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected task to be executed")
	}
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()
	defer s.Stop()

	task := newCountingTask(1)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected task to succeed on retry")
	}
	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1, got %d", task.GetRetryCount())
	}
}

func TestScheduler_NonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		s := NewScheduler(Dependencies{ConfigCache: feed.NewConfigCache(t.TempDir())}, 1, interval)
		if s.interval != defaultInterval {
			t.Errorf("Expected interval %v for %v, got %v", defaultInterval, interval, s.interval)
		}
		s.Start()
		s.Stop()
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	s := newTestScheduler(t)

	// Workers are not started, so nothing drains the queue.
	for i := 0; i < queueSize; i++ {
		if err := s.EnqueueTask(newCountingTask(0)); err != nil {
			t.Fatalf("Expected enqueue %d to succeed, got: %v", i, err)
		}
	}
	if err := s.EnqueueTask(newCountingTask(0)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got: %v", err)
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()
	s.Stop()

	if err := s.EnqueueTask(newCountingTask(0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled after stop, got: %v", err)
	}
}

func TestScheduler_StartupSyncsConfiguredFeeds(t *testing.T) {
	dir := t.TempDir()
	config := "url: \"https://example.com/feed.atom\"\nsettings:\n  enabled: false\n"
	if err := os.WriteFile(filepath.Join(dir, "example.yml"), []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cache := feed.NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Failed to load config cache: %v", err)
	}
	feedRepo := NewMockFeedRepository()

	s := NewScheduler(Dependencies{
		ConfigCache: cache,
		FeedRepo:    feedRepo,
		ItemRepo:    NewMockItemRepository(),
		Fetcher:     NewFetcher(nil, "test", 100),
		Parser:      feed.NewParser(),
		Filterer:    feed.NewFilterer(),
	}, 1, time.Hour)
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if f, _ := feedRepo.GetFeed("example"); f != nil {
			if f.FeedURL != "https://example.com/feed.atom" {
				t.Errorf("Expected synced URL, got '%s'", f.FeedURL)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Expected startup sync to create the feed row")
}
