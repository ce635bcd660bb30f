package sink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"svg_exporter/internal/model"

	"golang.design/x/clipboard"
)

var (
	ErrNotPNG        = errors.New("clipboard accepts PNG images only")
	ErrWriteRejected = errors.New("clipboard write was rejected")
)

// ClipboardError reports a failed clipboard write. It is not fatal; the
// download path stays available.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("clipboard error: %v", e.Err)
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// imageClipboard is the platform clipboard used by ClipboardSink.
type imageClipboard interface {
	Init() error
	WriteImage(data []byte) <-chan struct{}
}

type systemClipboard struct{}

func (systemClipboard) Init() error { return clipboard.Init() }

// WriteImage returns nil when the platform refused the write.
func (systemClipboard) WriteImage(data []byte) <-chan struct{} {
	return clipboard.Write(clipboard.FmtImage, data)
}

// ClipboardSink writes PNG assets to the system image clipboard as a single item.
type ClipboardSink struct {
	backend imageClipboard

	initOnce sync.Once
	initErr  error

	// 同時コピー時に書き込みが混ざらないよう直列化
	mu sync.Mutex
}

// NewClipboardSink returns a sink backed by the system clipboard.
// The clipboard is initialized lazily on the first write.
func NewClipboardSink() *ClipboardSink {
	return &ClipboardSink{backend: systemClipboard{}}
}

// WriteImage places asset on the clipboard and returns once the platform
// has accepted it. Every failure is a *ClipboardError.
func (s *ClipboardSink) WriteImage(ctx context.Context, asset model.RenderedAsset) error {
	if asset.Format != model.FormatPNG {
		return &ClipboardError{Err: fmt.Errorf("%w: got %s", ErrNotPNG, asset.Format)}
	}
	if len(asset.Data) == 0 {
		return &ClipboardError{Err: errors.New("empty image")}
	}

	s.initOnce.Do(func() {
		s.initErr = s.backend.Init()
		if s.initErr != nil {
			log.Printf("クリップボードの初期化に失敗しました: %v", s.initErr)
		}
	})
	if s.initErr != nil {
		return &ClipboardError{Err: s.initErr}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &ClipboardError{Err: err}
	}

	if changed := s.backend.WriteImage(asset.Data); changed == nil {
		return &ClipboardError{Err: ErrWriteRejected}
	}

	log.Printf("クリップボードに画像を書き込みました: %dx%d (%d bytes)", asset.Width, asset.Height, len(asset.Data))
	return nil
}
