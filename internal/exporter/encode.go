package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"svg_exporter/internal/model"
)

const maxGIFColors = 256

// encodeSurface encodes the finished surface in the requested raster format.
func encodeSurface(img *image.RGBA, format model.Format, jpegQuality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case model.FormatPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = encoder.Encode(&buf, img)
	case model.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case model.FormatGIF:
		err = encodeGIF(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// encodeGIF keeps colors exact when the surface fits in one GIF palette,
// and otherwise dithers onto the Plan 9 palette.
func encodeGIF(buf *bytes.Buffer, img *image.RGBA) error {
	if pal, ok := exactPalette(img); ok {
		paletted := image.NewPaletted(img.Bounds(), pal)
		draw.Draw(paletted, img.Bounds(), img, img.Bounds().Min, draw.Src)
		return gif.Encode(buf, paletted, nil)
	}
	return gif.Encode(buf, img, &gif.Options{NumColors: maxGIFColors, Drawer: draw.FloydSteinberg})
}

// exactPalette collects the distinct colors of img, giving up past 256.
func exactPalette(img *image.RGBA) (color.Palette, bool) {
	seen := make(map[color.RGBA]struct{}, maxGIFColors)
	pal := make(color.Palette, 0, maxGIFColors)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			c := color.RGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]}
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == maxGIFColors {
				return nil, false
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal, true
}
