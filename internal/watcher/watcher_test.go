package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sitepanel.yml")

	w, err := NewConfigWatcher(path, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, filepath.IsAbs(w.Path()))
	assert.Equal(t, DefaultDebounce, w.debouncer.delay)
	assert.Empty(t, w.handlers)
}

func TestNewConfigWatcher_Errors(t *testing.T) {
	_, err := NewConfigWatcher("", time.Second, nil)
	assert.Error(t, err)

	_, err = NewConfigWatcher(filepath.Join(t.TempDir(), "missing", "config.yml"), time.Second, nil)
	assert.Error(t, err)
}

func TestConfigWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sitepanel.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644))

	w, err := NewConfigWatcher(path, 100*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	var calls atomic.Int32
	var last atomic.Value
	w.AddHandler(func(event ChangeEvent) error {
		calls.Add(1)
		last.Store(event.Path)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 909"+string(rune('0'+i))+"\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, w.Path(), last.Load())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sitepanel.yml")

	w, err := NewConfigWatcher(path, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	var calls atomic.Int32
	w.AddHandler(func(ChangeEvent) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x: 1\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestConfigWatcher_HandlerErrorsDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sitepanel.yml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	w, err := NewConfigWatcher(path, 30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	var calls atomic.Int32
	w.AddHandler(func(ChangeEvent) error {
		calls.Add(1)
		return errors.New("reload failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("a: 3\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_StopTwice(t *testing.T) {
	w, err := NewConfigWatcher(filepath.Join(t.TempDir(), "c.yml"), time.Second, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestDebouncer_KeepsLastEvent(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	d.add(ChangeEvent{Type: EventTypeCreated, Path: "a"})
	d.add(ChangeEvent{Type: EventTypeModified, Path: "a"})

	select {
	case ev := <-d.output:
		assert.Equal(t, EventTypeModified, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not flush")
	}

	select {
	case ev := <-d.output:
		t.Fatalf("unexpected second flush: %v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}
