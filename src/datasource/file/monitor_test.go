package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMonitorTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "air.csv")
	other := filepath.Join(dir, "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	monitor, err := NewFileMonitor(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- monitor.Watch(ctx, func(p string) { fired <- p })
	}()

	// 其他文件的写入不触发
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	// 连续写入合并为一次
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\n1\n2\n"), 0o644))
	}

	select {
	case p := <-fired:
		assert.Equal(t, filepath.Base(path), filepath.Base(p))
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not fire")
	}

	select {
	case p := <-fired:
		t.Fatalf("unexpected second trigger for %s", p)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
