package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	held, err := AcquireLock(ctx, dir, time.Second)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := AcquireLock(ctx, dir, 100*time.Millisecond); !errors.Is(err, ErrBusy) {
		t.Fatalf("contended acquire = %v, want ErrBusy", err)
	}

	if err := held.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := AcquireLock(ctx, dir, time.Second)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again.Release()
}
