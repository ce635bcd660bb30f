package model

import (
	"fmt"
	"strings"
)

// Format は出力形式を表します
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatSVG  Format = "svg"
)

// スケールのプリセット
const (
	// CopyScale はクリップボードへの通常コピーで使う倍率
	CopyScale = 2.0

	// ExportScale はファイル出力と右クリックコピーで使う倍率
	ExportScale = 3.0
)

// DefaultFileBaseName はダウンロードファイルのベース名
const DefaultFileBaseName = "image"

var mimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatGIF:  "image/gif",
	FormatSVG:  "image/svg+xml",
}

// Formats returns every supported output format in menu order.
func Formats() []Format {
	return []Format{FormatPNG, FormatJPEG, FormatSVG, FormatGIF}
}

// ParseFormat resolves a user supplied format name ("png", "JPG", ".svg", ...).
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if name == "jpg" {
		name = string(FormatJPEG)
	}
	f := Format(name)
	if _, ok := mimeTypes[f]; !ok {
		return "", fmt.Errorf("unsupported format: %q", s)
	}
	return f, nil
}

// MIMEType returns the media type tag for the format, or "" if unknown.
func (f Format) MIMEType() string {
	return mimeTypes[f]
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

// IsVector reports whether the format is the passthrough vector format.
func (f Format) IsVector() bool {
	return f == FormatSVG
}

// RenderRequest は1回のエクスポート/コピー操作の入力です (生成後は変更しない)
type RenderRequest struct {
	Markup string
	Format Format
	Scale  float64
}

// RenderedAsset はレンダリング結果のバイト列と種別です
type RenderedAsset struct {
	Data     []byte
	Format   Format
	MIMEType string
	Width    int // ベクター形式では0
	Height   int
}

// FileName returns the download name, e.g. "image.png".
func (a RenderedAsset) FileName() string {
	return DefaultFileBaseName + "." + a.Format.Extension()
}

// IsVector reports whether the asset carries vector markup rather than raster bytes.
func (a RenderedAsset) IsVector() bool {
	return a.Format.IsVector()
}
