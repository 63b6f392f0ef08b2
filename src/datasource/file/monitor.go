// monitor.go
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听单个输入文件的写入, 在写入停止 debounce 时间后回调
type FileMonitor struct {
	target   string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	lastMod  time.Time
	mu       sync.Mutex
}

// NewFileMonitor 监听文件所在目录, 以便文件被替换(重命名/重建)后仍能收到事件
func NewFileMonitor(path string, debounce time.Duration) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}

	m := &FileMonitor{
		target:   target,
		watcher:  watcher,
		debounce: debounce,
	}
	if info, err := os.Stat(target); err == nil {
		m.lastMod = info.ModTime()
	}
	return m, nil
}

// Close 停止监听
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// Watch 阻塞直到ctx取消或监听出错; handler在Watch所在goroutine中同步执行
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// 连续写入只触发一次
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				timer.Reset(m.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if m.changed() {
				handler(m.target)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// changed 比较修改时间, 记录最新一次
func (m *FileMonitor) changed() bool {
	info, err := os.Stat(m.target)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if info.ModTime().After(m.lastMod) {
		m.lastMod = info.ModTime()
		return true
	}
	return false
}
