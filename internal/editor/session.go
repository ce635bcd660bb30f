package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"svg_exporter/internal/config"
	"svg_exporter/internal/exporter"
	"svg_exporter/internal/model"
	"svg_exporter/internal/util"
)

// PreviewScale is the magnification of the live preview.
const PreviewScale = 1.0

const logSnippetRunes = 60

// ErrNotReady is returned when an action is requested while the document
// is empty or invalid.
var ErrNotReady = errors.New("document is empty or invalid")

// State は現在のドキュメントの検証状態です
type State int

const (
	StateEmpty State = iota
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

type Renderer interface {
	Rasterize(ctx context.Context, req model.RenderRequest) (model.RenderedAsset, error)
	Render(ctx context.Context, markup string, scale float64) (*image.RGBA, error)
}

type Clipboard interface {
	WriteImage(ctx context.Context, asset model.RenderedAsset) error
}

type Downloader interface {
	Save(ctx context.Context, asset model.RenderedAsset) (string, error)
}

// Session holds the editing state around the exporter: the current
// document, its validation result, and the outcome of the last action.
// Actions snapshot the document and run without holding the lock, so
// overlapping actions complete independently.
type Session struct {
	renderer   Renderer
	clipboard  Clipboard
	downloader Downloader
	messages   *config.Messages

	copyScale   float64
	exportScale float64

	mu           sync.RWMutex
	markup       string
	state        State
	parseErr     error
	errorMessage string
	notice       string
	lastAsset    *model.RenderedAsset
}

// NewSession wires a session. clipboard and downloader may be nil when the
// caller has no such channel; the matching actions then fail.
func NewSession(cfg *config.Config, renderer Renderer, clipboard Clipboard, downloader Downloader) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Session{
		renderer:    renderer,
		clipboard:   clipboard,
		downloader:  downloader,
		messages:    config.NewMessages(cfg.Language),
		copyScale:   cfg.CopyScale,
		exportScale: cfg.ExportScale,
	}
}

// SetMarkup replaces the document and revalidates it.
func (s *Session) SetMarkup(markup string) State {
	err := exporter.Check(markup)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.markup = markup
	s.notice = ""
	switch {
	case errors.Is(err, exporter.ErrEmptyMarkup):
		// 未入力はエラー表示しない
		s.state = StateEmpty
		s.parseErr = nil
		s.errorMessage = ""
	case err != nil:
		s.state = StateInvalid
		s.parseErr = err
		s.errorMessage = s.messages.Get(config.MsgInvalidFormat)
	default:
		s.state = StateValid
		s.parseErr = nil
		s.errorMessage = ""
	}
	return s.state
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ParseErr returns the validation error of an invalid document, or nil.
func (s *Session) ParseErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parseErr
}

// ErrorMessage is the inline, localized feedback for the current document.
func (s *Session) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorMessage
}

// Notice is the localized result of the last copy or export.
func (s *Session) Notice() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notice
}

// CanExport reports whether export and copy actions are enabled.
func (s *Session) CanExport() bool {
	return s.State() == StateValid
}

// LastAsset returns the asset of the most recent copy or export that
// reached its sink.
func (s *Session) LastAsset() (model.RenderedAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAsset == nil {
		return model.RenderedAsset{}, false
	}
	return *s.lastAsset, true
}

// Preview renders the document at PreviewScale. Invalid documents get no
// preview at all.
func (s *Session) Preview(ctx context.Context) (*image.RGBA, error) {
	markup, err := s.readyMarkup()
	if err != nil {
		return nil, err
	}

	img, err := s.renderer.Render(ctx, markup, PreviewScale)
	if err != nil {
		log.Printf("プレビュー生成エラー: %v (入力: %s)", err, util.Snippet(markup, logSnippetRunes))
		return nil, err
	}
	return img, nil
}

// Copy writes a PNG at the copy preset to the clipboard.
func (s *Session) Copy(ctx context.Context) error {
	return s.copyAt(ctx, s.copyScale)
}

// CopyHighRes writes a PNG at the export preset, as used by the context menu.
func (s *Session) CopyHighRes(ctx context.Context) error {
	return s.copyAt(ctx, s.exportScale)
}

func (s *Session) copyAt(ctx context.Context, scale float64) error {
	if s.clipboard == nil {
		return errors.New("no clipboard configured")
	}

	asset, err := s.render(ctx, model.FormatPNG, scale)
	if err != nil {
		return err
	}

	if err := s.clipboard.WriteImage(ctx, asset); err != nil {
		log.Printf("クリップボード書き込みエラー: %v", err)
		s.setNotice(s.messages.Get(config.MsgClipboardFailed))
		return err
	}

	s.mu.Lock()
	s.lastAsset = &asset
	s.notice = s.messages.Get(config.MsgCopied)
	s.mu.Unlock()
	return nil
}

// Export renders the document in format at the export preset and saves it
// as image.<ext>. It returns the written path.
func (s *Session) Export(ctx context.Context, format model.Format) (string, error) {
	if s.downloader == nil {
		return "", errors.New("no downloader configured")
	}

	asset, err := s.render(ctx, format, s.exportScale)
	if err != nil {
		return "", err
	}

	path, err := s.downloader.Save(ctx, asset)
	if err != nil {
		log.Printf("ファイル保存エラー: %v", err)
		return "", fmt.Errorf("failed to save %s: %w", asset.FileName(), err)
	}

	s.mu.Lock()
	s.lastAsset = &asset
	s.notice = s.messages.Get(config.MsgExported, path)
	s.mu.Unlock()
	return path, nil
}

func (s *Session) render(ctx context.Context, format model.Format, scale float64) (model.RenderedAsset, error) {
	markup, err := s.readyMarkup()
	if err != nil {
		return model.RenderedAsset{}, err
	}

	asset, err := s.renderer.Rasterize(ctx, model.RenderRequest{Markup: markup, Format: format, Scale: scale})
	if err != nil {
		// 直前の状態は変更しない
		log.Printf("画像生成エラー: %v (形式: %s, 倍率: %v, 入力: %s)", err, format, scale, util.Snippet(markup, logSnippetRunes))
		s.setNotice(s.messages.Get(config.MsgRenderFailed))
		return model.RenderedAsset{}, err
	}
	return asset, nil
}

func (s *Session) readyMarkup() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateValid {
		return "", ErrNotReady
	}
	return s.markup, nil
}

func (s *Session) setNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
}
