package exporter

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"
	"strings"

	"svg_exporter/internal/config"
	"svg_exporter/internal/model"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterizer converts SVG markup into raster assets. It holds no mutable
// state, so one instance can serve overlapping requests; every call draws
// on its own surface.
type Rasterizer struct {
	jpegQuality   int
	defaultWidth  float64
	defaultHeight float64
	maxPixels     int
	errMode       oksvg.ErrorMode
}

// NewRasterizer creates a Rasterizer from cfg. A nil cfg uses config.Default().
func NewRasterizer(cfg *config.Config) *Rasterizer {
	if cfg == nil {
		cfg = config.Default()
	}
	errMode := oksvg.WarnErrorMode
	if cfg.StrictParse {
		errMode = oksvg.StrictErrorMode
	}
	return &Rasterizer{
		jpegQuality:   cfg.JPEGQuality,
		defaultWidth:  float64(cfg.DefaultWidth),
		defaultHeight: float64(cfg.DefaultHeight),
		maxPixels:     cfg.MaxPixels,
		errMode:       errMode,
	}
}

// Rasterize renders markup with the default configuration.
func Rasterize(ctx context.Context, markup string, format model.Format, scale float64) (model.RenderedAsset, error) {
	return NewRasterizer(nil).Rasterize(ctx, model.RenderRequest{Markup: markup, Format: format, Scale: scale})
}

// Rasterize produces the asset for req. SVG requests return the markup
// unchanged; raster requests are drawn over white and encoded.
func (r *Rasterizer) Rasterize(ctx context.Context, req model.RenderRequest) (model.RenderedAsset, error) {
	if req.Format.IsVector() {
		return model.RenderedAsset{
			Data:     []byte(req.Markup),
			Format:   model.FormatSVG,
			MIMEType: model.FormatSVG.MIMEType(),
		}, nil
	}
	if req.Format.MIMEType() == "" {
		return model.RenderedAsset{}, renderErr(StageEncode, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format))
	}

	img, err := r.Render(ctx, req.Markup, req.Scale)
	if err != nil {
		return model.RenderedAsset{}, err
	}

	if err := ctx.Err(); err != nil {
		return model.RenderedAsset{}, err
	}
	data, err := encodeSurface(img, req.Format, r.jpegQuality)
	if err != nil {
		return model.RenderedAsset{}, renderErr(StageEncode, err)
	}

	bounds := img.Bounds()
	return model.RenderedAsset{
		Data:     data,
		Format:   req.Format,
		MIMEType: req.Format.MIMEType(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// Render draws markup at scale onto a new opaque white surface.
func (r *Rasterizer) Render(ctx context.Context, markup string, scale float64) (*image.RGBA, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 1 {
		return nil, renderErr(StageDimensions, fmt.Errorf("%w: %v", ErrInvalidScale, scale))
	}

	root, err := parseRoot(markup)
	if err != nil {
		return nil, renderErr(StageParse, err)
	}

	for _, ref := range ExternalRefs(markup) {
		log.Printf("外部リソースは読み込まれません: %s", ref)
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(markup), r.errMode)
	if err != nil {
		return nil, renderErr(StageParse, fmt.Errorf("failed to parse SVG: %w", err))
	}

	size := resolveSize(root, r.defaultWidth, r.defaultHeight)
	w, h := surfaceSize(size, scale)
	if w < 1 || h < 1 {
		return nil, renderErr(StageDimensions, fmt.Errorf("surface %dx%d from %s size %.2fx%.2f", w, h, size.Source, size.Width, size.Height))
	}
	if r.maxPixels > 0 && w > r.maxPixels/h {
		return nil, renderErr(StageSurface, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSurfaceTooLarge, w, h, r.maxPixels))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	vb := size.ViewBox
	icon.ViewBox.X = vb.X
	icon.ViewBox.Y = vb.Y
	icon.ViewBox.W = vb.W
	icon.ViewBox.H = vb.H
	icon.SetTarget(0, 0, float64(w), float64(h))
	// SetTarget scales before translating; the origin must move first.
	icon.Transform = rasterx.Identity.Scale(float64(w)/vb.W, float64(h)/vb.H).Translate(-vb.X, -vb.Y)

	if err := drawIcon(icon, img); err != nil {
		return nil, renderErr(StageDraw, err)
	}
	return img, nil
}

// drawIcon rasterizes icon with the antialiasing scanner.
// oksvg can panic on degenerate paths, which is reported as an error instead.
func drawIcon(icon *oksvg.SvgIcon, img *image.RGBA) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to draw SVG: %v", rec)
		}
	}()

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return nil
}
