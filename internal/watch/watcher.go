package watch

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	rewatchAttempts = 5
	rewatchDelay    = 100 * time.Millisecond
)

// FileWatcher re-reads an SVG file whenever it changes and passes the new
// markup to a callback. Unchanged content is not reported twice.
type FileWatcher struct {
	filePath string
	onChange func(markup string)

	mu      sync.Mutex
	last    string
	loaded  bool
	watcher *fsnotify.Watcher
}

// NewFileWatcher creates a watcher for filePath. onChange runs on the
// watcher goroutine.
func NewFileWatcher(filePath string, onChange func(markup string)) *FileWatcher {
	return &FileWatcher{
		filePath: filePath,
		onChange: onChange,
	}
}

// Load reads the file once and reports it if it changed since the last read.
func (w *FileWatcher) Load() error {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		return err
	}
	markup := string(data)

	w.mu.Lock()
	if w.loaded && markup == w.last {
		w.mu.Unlock()
		return nil
	}
	w.last = markup
	w.loaded = true
	w.mu.Unlock()

	w.onChange(markup)
	return nil
}

// Start begins watching until ctx is canceled.
func (w *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.watcher = watcher

	if err := watcher.Add(w.filePath); err != nil {
		watcher.Close() //nolint:errcheck
		return err
	}

	go w.watchLoop(ctx)
	log.Printf("SVGファイル監視開始: %s", w.filePath)

	return nil
}

func (w *FileWatcher) watchLoop(ctx context.Context) {
	defer w.watcher.Close() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("SVGファイル監視エラー: %v", err)
		}
	}
}

func (w *FileWatcher) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		if err := w.Load(); err != nil {
			log.Printf("SVGファイル再読み込みエラー: %v", err)
		}
		return
	}

	// エディタの保存方式によっては置き換えで監視が外れる
	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		go w.attemptRewatch(ctx)
	}
}

func (w *FileWatcher) attemptRewatch(ctx context.Context) {
	for i := 0; i < rewatchAttempts; i++ {
		if w.tryAddWatcher() {
			if err := w.Load(); err != nil {
				log.Printf("SVGファイル再読み込みエラー: %v", err)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(rewatchDelay):
		}
	}
	log.Printf("SVGファイルの監視を再開できませんでした: %s", w.filePath)
}

func (w *FileWatcher) tryAddWatcher() bool {
	if _, err := os.Stat(w.filePath); err != nil {
		return false
	}
	return w.watcher.Add(w.filePath) == nil
}
