// 指示: miu200521358
// Package watch はリグファイルの変更を監視する。
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
)

// DefaultDebounce は連続した書き込みをまとめる待ち時間。
const DefaultDebounce = 200 * time.Millisecond

// RigWatcher は1つのリグファイルの変更を監視する。
// エディタの置き換え保存に追従するため、親ディレクトリを監視してファイル名で絞り込む。
type RigWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// NewRigWatcher はリグファイルの監視を開始する。
func NewRigWatcher(path string, debounce time.Duration) (*RigWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("監視対象パスを解決できません: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ファイル監視を開始できません: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("監視対象ディレクトリを登録できません: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &RigWatcher{watcher: watcher, path: absPath, debounce: debounce}, nil
}

// Path は監視対象の絶対パスを返す。
func (w *RigWatcher) Path() string {
	return w.path
}

// Run はコンテキストが終了するまで変更を待ち、まとめた変更ごとに onChange を呼ぶ。
func (w *RigWatcher) Run(ctx context.Context, onChange func(path string)) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isTarget(event) {
				continue
			}
			logWatchDebug("リグファイル変更イベント: %s %s", event.Op.String(), event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logWatchWarn("ファイル監視でエラーが発生しました: %v", err)
		}
	}
}

// Close は監視を終了する。
func (w *RigWatcher) Close() error {
	return w.watcher.Close()
}

// isTarget は監視対象ファイルへの書き込み系イベントか判定する。
func (w *RigWatcher) isTarget(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}

func logWatchDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

func logWatchWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
