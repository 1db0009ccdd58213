package transaction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file", func(t *testing.T) {
		dir := t.TempDir()

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer lock.Release()

		if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
			t.Errorf("lock file not created: %v", err)
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}
		defer lock1.Release()

		_, err = AcquireLock(context.Background(), dir)
		if !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := AcquireLock(ctx, t.TempDir()); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("replaces stale lock", func(t *testing.T) {
		dir := t.TempDir()
		lockPath := filepath.Join(dir, LockFileName)
		if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		old := time.Now().Add(-2 * StaleLockThreshold)
		if err := os.Chtimes(lockPath, old, old); err != nil {
			t.Fatal(err)
		}

		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatalf("expected stale lock to be replaced, got %v", err)
		}
		lock.Release()
	})

	t.Run("release removes file", func(t *testing.T) {
		dir := t.TempDir()
		lock, err := AcquireLock(context.Background(), dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("second Release failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
			t.Error("lock file still present")
		}
	})
}

func TestWaitLock(t *testing.T) {
	dir := t.TempDir()

	held, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lock, err := WaitLock(ctx, dir, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitLock failed: %v", err)
	}
	lock.Release()
}

func TestWaitLockTimeout(t *testing.T) {
	dir := t.TempDir()

	held, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := WaitLock(ctx, dir, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
