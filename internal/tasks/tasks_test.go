package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForStatus(t *testing.T, d *Dispatcher, id string, want Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := d.Status(id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _ := d.Status(id)
	t.Fatalf("task %s stuck at %s, want %s", id, got, want)
}

func TestEnqueueUnknownJob(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()

	_, err := d.Enqueue("no-such-job", nil)
	if !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("got %v, want ErrInvalidJob", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	d := NewDispatcher(Config{Workers: 2})
	defer d.Close()
	RegisterBuiltins(d, 0, 0)

	h, err := d.Enqueue(JobReport, map[string]string{"report_id": "q3"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if h.Status != StatusPending {
		t.Fatalf("fresh handle status = %s, want pending", h.Status)
	}

	waitForStatus(t, d, h.ID, StatusSucceeded)
	result, err := d.Result(h.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result != "Report q3 generated." {
		t.Fatalf("result = %q", result)
	}
}

func TestJobDefaultArgs(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()
	RegisterBuiltins(d, 0, 0)

	h, err := d.Enqueue(JobProcessImage, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitForStatus(t, d, h.ID, StatusSucceeded)
	result, err := d.Result(h.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result != "Image at /default/path/image.jpg processed." {
		t.Fatalf("result = %q", result)
	}
}

func TestResultNotReady(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()

	release := make(chan struct{})
	d.Register("slow", func(ctx context.Context, args map[string]string) (string, error) {
		<-release
		return "done", nil
	})

	h, err := d.Enqueue("slow", nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := d.Result(h.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
	close(release)
	waitForStatus(t, d, h.ID, StatusSucceeded)
	if _, err := d.Result(h.ID); err != nil {
		t.Fatalf("result after completion: %v", err)
	}
}

func TestUnknownTaskID(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()

	if _, err := d.Status("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("status: got %v, want ErrNotFound", err)
	}
	if _, err := d.Result("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("result: got %v, want ErrNotFound", err)
	}
}

func TestFailedJobHasNoResult(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()

	d.Register("broken", func(ctx context.Context, args map[string]string) (string, error) {
		return "", errors.New("boom")
	})
	h, err := d.Enqueue("broken", nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitForStatus(t, d, h.ID, StatusFailed)
	if _, err := d.Result(h.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
}

func TestPanickingJobFails(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1})
	defer d.Close()

	d.Register("panicky", func(ctx context.Context, args map[string]string) (string, error) {
		panic("no")
	})
	h, err := d.Enqueue("panicky", nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitForStatus(t, d, h.ID, StatusFailed)

	// The worker survives the panic and keeps draining the queue.
	RegisterBuiltins(d, 0, 0)
	h2, err := d.Enqueue(JobReport, nil)
	if err != nil {
		t.Fatalf("enqueue after panic: %v", err)
	}
	waitForStatus(t, d, h2.ID, StatusSucceeded)
}
