package config

import (
	"fmt"

	"golang.org/x/text/language"
)

// MessageKey はユーザー向けメッセージの識別子です
type MessageKey int

const (
	MsgInvalidFormat MessageKey = iota
	MsgCopied
	MsgExported
	MsgClipboardFailed
	MsgRenderFailed
)

var supportedLanguages = []language.Tag{
	language.Japanese, // 最初の要素が既定
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var catalog = [][]string{
	{
		MsgInvalidFormat:   "SVGの形式が正しくありません",
		MsgCopied:          "画像をクリップボードにコピーしました",
		MsgExported:        "画像を保存しました: %s",
		MsgClipboardFailed: "クリップボードへのコピーに失敗しました。ダウンロードをご利用ください",
		MsgRenderFailed:    "画像の生成に失敗しました",
	},
	{
		MsgInvalidFormat:   "Invalid SVG format",
		MsgCopied:          "Image copied to clipboard",
		MsgExported:        "Image saved: %s",
		MsgClipboardFailed: "Could not copy to clipboard. Use download instead",
		MsgRenderFailed:    "Failed to render image",
	},
}

// Messages resolves localized user-facing text.
type Messages struct {
	tag   language.Tag
	table []string
}

// NewMessages picks the closest supported language for lang (BCP 47, e.g. "en-US").
// Unknown or empty input falls back to Japanese.
func NewMessages(lang string) *Messages {
	_, idx, conf := languageMatcher.Match(language.Make(lang))
	if conf == language.No {
		idx = 0
	}
	return &Messages{tag: supportedLanguages[idx], table: catalog[idx]}
}

// Language returns the matched language tag.
func (m *Messages) Language() language.Tag {
	return m.tag
}

// Get returns the message for key, formatted with args when given.
func (m *Messages) Get(key MessageKey, args ...any) string {
	if int(key) < 0 || int(key) >= len(m.table) {
		return ""
	}
	if len(args) == 0 {
		return m.table[key]
	}
	return fmt.Sprintf(m.table[key], args...)
}
