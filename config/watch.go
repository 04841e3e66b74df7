package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher 监听配置文件变化并重新加载。监听所在目录，兼容编辑器的 rename 写入。
// 一次写入通常产生多个事件（截断、写内容），最后一个事件之后静默 Debounce 才重载。
type Watcher struct {
	Path     string
	Debounce time.Duration // 为 0 时使用 200ms
	OnError  func(error)   // 重载失败或 watcher 报错时回调，可为空

	ready chan struct{} // 开始监听后关闭，测试用
}

// Start 阻塞直到 ctx 结束；配置有效时以新配置调用 onUpdate。空文件视为写入未完成，跳过。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}
	if w.ready != nil {
		close(w.ready)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			w.reload(target, onUpdate)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.report(err)
		}
	}
}

func (w Watcher) reload(target string, onUpdate func(AppConfig)) {
	info, err := os.Stat(target)
	if err != nil {
		w.report(fmt.Errorf("stat config: %w", err))
		return
	}
	if info.Size() == 0 {
		return
	}
	cfg, err := LoadWithEnvOverrides(target)
	if err != nil {
		w.report(err)
		return
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}
}

func (w Watcher) report(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
