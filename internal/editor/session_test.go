package editor

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"svg_exporter/internal/config"
	"svg_exporter/internal/exporter"
	"svg_exporter/internal/model"
)

const redRect = `<svg width="100" height="50"><rect width="100" height="50" fill="red"/></svg>`

type fakeClipboard struct {
	mu     sync.Mutex
	err    error
	assets []model.RenderedAsset
}

func (f *fakeClipboard) WriteImage(_ context.Context, asset model.RenderedAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.assets = append(f.assets, asset)
	return nil
}

type fakeDownloader struct {
	mu     sync.Mutex
	assets []model.RenderedAsset
}

func (f *fakeDownloader) Save(_ context.Context, asset model.RenderedAsset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets = append(f.assets, asset)
	return "out/" + asset.FileName(), nil
}

// flakyRenderer fails every call while failing is set.
type flakyRenderer struct {
	Renderer
	failing bool
}

func (r *flakyRenderer) Rasterize(ctx context.Context, req model.RenderRequest) (model.RenderedAsset, error) {
	if r.failing {
		return model.RenderedAsset{}, &exporter.RenderError{Stage: exporter.StageEncode, Err: errors.New("boom")}
	}
	return r.Renderer.Rasterize(ctx, req)
}

func (r *flakyRenderer) Render(ctx context.Context, markup string, scale float64) (*image.RGBA, error) {
	if r.failing {
		return nil, &exporter.RenderError{Stage: exporter.StageDraw, Err: errors.New("boom")}
	}
	return r.Renderer.Render(ctx, markup, scale)
}

func newTestSession(lang string) (*Session, *fakeClipboard, *fakeDownloader) {
	cfg := config.Default()
	cfg.Language = lang
	clip := &fakeClipboard{}
	dl := &fakeDownloader{}
	return NewSession(cfg, exporter.NewRasterizer(cfg), clip, dl), clip, dl
}

func TestSession_SetMarkupStates(t *testing.T) {
	s, _, _ := newTestSession("ja")

	tests := []struct {
		name      string
		markup    string
		wantState State
		wantMsg   string
	}{
		{"empty", "", StateEmpty, ""},
		{"whitespace", "  \n ", StateEmpty, ""},
		{"valid", redRect, StateValid, ""},
		{"invalid", `<svg><rect></svg>`, StateInvalid, "SVGの形式が正しくありません"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SetMarkup(tt.markup); got != tt.wantState {
				t.Errorf("SetMarkup() = %v, want %v", got, tt.wantState)
			}
			if got := s.ErrorMessage(); got != tt.wantMsg {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.wantMsg)
			}
			if s.CanExport() != (tt.wantState == StateValid) {
				t.Errorf("CanExport() = %v for %v", s.CanExport(), tt.wantState)
			}
			if (s.ParseErr() != nil) != (tt.wantState == StateInvalid) {
				t.Errorf("ParseErr() = %v for %v", s.ParseErr(), tt.wantState)
			}
		})
	}
}

func TestSession_InvalidBlocksEverything(t *testing.T) {
	s, clip, dl := newTestSession("en")
	s.SetMarkup(`<svg><rect></svg>`)

	if got := s.ErrorMessage(); got != "Invalid SVG format" {
		t.Errorf("ErrorMessage() = %q", got)
	}

	ctx := context.Background()
	if img, err := s.Preview(ctx); !errors.Is(err, ErrNotReady) || img != nil {
		t.Errorf("Preview() = %v, %v; want nil, ErrNotReady", img, err)
	}
	if err := s.Copy(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("Copy() = %v, want ErrNotReady", err)
	}
	if _, err := s.Export(ctx, model.FormatPNG); !errors.Is(err, ErrNotReady) {
		t.Errorf("Export() = %v, want ErrNotReady", err)
	}
	if len(clip.assets) != 0 || len(dl.assets) != 0 {
		t.Error("invalid document reached a sink")
	}
}

func TestSession_Preview(t *testing.T) {
	s, _, _ := newTestSession("ja")
	s.SetMarkup(redRect)

	img, err := s.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("preview size = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestSession_CopyPresets(t *testing.T) {
	s, clip, _ := newTestSession("ja")
	s.SetMarkup(redRect)
	ctx := context.Background()

	if err := s.Copy(ctx); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if err := s.CopyHighRes(ctx); err != nil {
		t.Fatalf("CopyHighRes failed: %v", err)
	}

	if len(clip.assets) != 2 {
		t.Fatalf("clipboard got %d assets, want 2", len(clip.assets))
	}
	for i, want := range []image.Point{{200, 100}, {300, 150}} {
		a := clip.assets[i]
		if a.Format != model.FormatPNG || a.Width != want.X || a.Height != want.Y {
			t.Errorf("asset %d = %s %dx%d, want png %dx%d", i, a.Format, a.Width, a.Height, want.X, want.Y)
		}
	}
	if s.Notice() != "画像をクリップボードにコピーしました" {
		t.Errorf("Notice() = %q", s.Notice())
	}
}

func TestSession_Export(t *testing.T) {
	s, _, dl := newTestSession("en")
	s.SetMarkup(redRect)
	ctx := context.Background()

	path, err := s.Export(ctx, model.FormatJPEG)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if path != "out/image.jpeg" {
		t.Errorf("path = %q, want out/image.jpeg", path)
	}
	if s.Notice() != "Image saved: out/image.jpeg" {
		t.Errorf("Notice() = %q", s.Notice())
	}

	if _, err := s.Export(ctx, model.FormatSVG); err != nil {
		t.Fatalf("Export(svg) failed: %v", err)
	}

	if got := dl.assets[0]; got.Width != 300 || got.Height != 150 {
		t.Errorf("jpeg size = %dx%d, want 300x150", got.Width, got.Height)
	}
	if got := string(dl.assets[1].Data); got != redRect {
		t.Errorf("svg export = %q, want original markup", got)
	}
}

func TestSession_ClipboardFailure(t *testing.T) {
	s, clip, _ := newTestSession("en")
	clip.err = errors.New("permission denied")
	s.SetMarkup(redRect)

	if err := s.Copy(context.Background()); err == nil {
		t.Fatal("Copy succeeded with failing clipboard")
	}
	if s.Notice() != "Could not copy to clipboard. Use download instead" {
		t.Errorf("Notice() = %q", s.Notice())
	}
	if s.State() != StateValid {
		t.Errorf("State() = %v after clipboard failure, want valid", s.State())
	}

	if _, err := s.Export(context.Background(), model.FormatPNG); err != nil {
		t.Errorf("Export fallback failed: %v", err)
	}
}

func TestSession_RenderFailureKeepsPreviousAsset(t *testing.T) {
	cfg := config.Default()
	renderer := &flakyRenderer{Renderer: exporter.NewRasterizer(cfg)}
	clip := &fakeClipboard{}
	s := NewSession(cfg, renderer, clip, &fakeDownloader{})
	s.SetMarkup(redRect)
	ctx := context.Background()

	if err := s.Copy(ctx); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	before, ok := s.LastAsset()
	if !ok {
		t.Fatal("no asset after successful copy")
	}

	renderer.failing = true
	err := s.CopyHighRes(ctx)
	var renderErr *exporter.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("CopyHighRes error = %v, want *exporter.RenderError", err)
	}

	after, _ := s.LastAsset()
	if after.Width != before.Width || len(clip.assets) != 1 {
		t.Error("failed render changed the previous result")
	}
	if got := s.Notice(); got != "画像の生成に失敗しました" {
		t.Errorf("Notice() = %q after render failure", got)
	}

	renderer.failing = false
	if err := s.CopyHighRes(ctx); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestSession_OverlappingActions(t *testing.T) {
	s, clip, dl := newTestSession("ja")
	s.SetMarkup(redRect)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := s.Copy(ctx); err != nil {
				t.Errorf("Copy failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.Export(ctx, model.FormatGIF); err != nil {
				t.Errorf("Export failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(clip.assets) != 4 || len(dl.assets) != 4 {
		t.Errorf("clipboard=%d downloads=%d, want 4 each", len(clip.assets), len(dl.assets))
	}
}

func TestSession_SinkFailureKeepsPreviousAsset(t *testing.T) {
	s, clip, _ := newTestSession("en")
	s.SetMarkup(redRect)
	ctx := context.Background()

	if _, ok := s.LastAsset(); ok {
		t.Fatal("LastAsset() set before any action")
	}

	clip.err = errors.New("permission denied")
	if err := s.CopyHighRes(ctx); err == nil {
		t.Fatal("CopyHighRes succeeded with failing clipboard")
	}
	if _, ok := s.LastAsset(); ok {
		t.Error("LastAsset() set by a copy that never reached the clipboard")
	}

	clip.err = nil
	if err := s.Copy(ctx); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	copied, ok := s.LastAsset()
	if !ok || copied.Width != 200 {
		t.Fatalf("LastAsset() = %dx%d, %v; want 200 wide", copied.Width, copied.Height, ok)
	}

	clip.err = errors.New("permission denied")
	if err := s.CopyHighRes(ctx); err == nil {
		t.Fatal("CopyHighRes succeeded with failing clipboard")
	}
	if got, _ := s.LastAsset(); got.Width != copied.Width {
		t.Errorf("LastAsset().Width = %d after failed copy, want %d", got.Width, copied.Width)
	}
}
