package retry

import (
	"context"
	"testing"
	"time"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

func TestCallWithRetries_SucceedsAfterRetriableErrors(t *testing.T) {
	r := New(0, nil)
	attempts := 0
	err := CallWithRetries(context.Background(), r, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return vfserrors.New(vfserrors.Unavailable, "try again")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestCallWithRetries_NonRetriableReturnsImmediately(t *testing.T) {
	r := New(0, nil)
	attempts := 0
	err := CallWithRetries(context.Background(), r, func(ctx context.Context) error {
		attempts++
		return vfserrors.New(vfserrors.InvalidArgument, "bad path")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
	if vfserrors.KindOf(err) != vfserrors.InvalidArgument {
		t.Fatalf("expected kind to be preserved, got %s", vfserrors.KindOf(err))
	}
}

func TestCallWithRetries_AbortsAfterMaxRetries(t *testing.T) {
	r := New(0, nil)
	attempts := 0
	err := CallWithRetries(context.Background(), r, func(ctx context.Context) error {
		attempts++
		return vfserrors.New(vfserrors.Unavailable, "down")
	})
	if vfserrors.KindOf(err) != vfserrors.Aborted {
		t.Fatalf("expected Aborted, got %s", vfserrors.KindOf(err))
	}
	if attempts != MaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", MaxRetries+1, attempts)
	}
}

func TestCallWithRetries_RespectsCancellation(t *testing.T) {
	r := New(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- CallWithRetries(ctx, r, func(ctx context.Context) error {
			attempts++
			return vfserrors.New(vfserrors.Unavailable, "down")
		})
	}()
	cancel()
	err := <-done
	if vfserrors.KindOf(err) != vfserrors.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %s", vfserrors.KindOf(err))
	}
}

func TestDeleteWithRetries_AbsorbsNotFoundAfterFirstAttempt(t *testing.T) {
	r := New(0, nil)
	attempts := 0
	err := DeleteWithRetries(context.Background(), r, func(ctx context.Context) error {
		attempts++
		switch attempts {
		case 1, 2:
			return vfserrors.New(vfserrors.Unavailable, "down")
		default:
			return vfserrors.New(vfserrors.NotFound, "already gone")
		}
	})
	if err != nil {
		t.Fatalf("expected NotFound to be absorbed as success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDeleteWithRetries_NotFoundOnFirstAttemptIsReported(t *testing.T) {
	r := New(0, nil)
	err := DeleteWithRetries(context.Background(), r, func(ctx context.Context) error {
		return vfserrors.New(vfserrors.NotFound, "never existed")
	})
	if vfserrors.KindOf(err) != vfserrors.NotFound {
		t.Fatalf("expected NotFound to be reported on first attempt, got %v", err)
	}
}

func TestBackoff_WithinSpecifiedBounds(t *testing.T) {
	r := New(time.Second, nil)
	for attempt := 0; attempt < 6; attempt++ {
		d := r.backoff(attempt)
		lower := time.Second << uint(attempt)
		upper := lower + time.Millisecond*1000
		if d < lower || d >= upper {
			t.Fatalf("attempt %d: backoff %v out of bounds [%v, %v)", attempt, d, lower, upper)
		}
	}

	d := r.backoff(40) // far past saturation
	if d < MaxBackoff || d >= MaxBackoff+time.Millisecond*1000 {
		t.Fatalf("expected saturated backoff near MaxBackoff, got %v", d)
	}
}
