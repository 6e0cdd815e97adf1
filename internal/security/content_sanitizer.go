// Package security はブログ本文など外部由来のHTMLを安全に扱うための機能を提供する。
//
// HTMLSanitizer はブログAPIが返す本文HTMLを許可リストベースでサニタイズする。
// プレビュー用にはタグを除去したプレーンテキストも生成する。
package security

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// HTMLSanitizer はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
type HTMLSanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string

	// PlainText は全てのタグを除去し、連続する空白を1つにまとめたテキストを返す。
	PlainText(rawHTML string) string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はブログ本文用のHTMLSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, h2〜h4, ul, ol, li, blockquote, pre, code, strong, em, b, i, u, a, img
//   - URL: httpsスキームと相対パスのみ許可
//   - aタグ: 外部リンクにtarget="_blank"とrel="noopener noreferrer"を付与
//   - imgタグ: srcとaltを許可
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i", "u",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// ブログ内の画像・リンクはメディアサーバーの相対パスで書かれることがある
	p.AllowRelativeURLs(true)
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// PlainText はHTMLからテキストノードのみを取り出す。
// script・style要素の中身は含めない。
func (s *contentSanitizer) PlainText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF以外のエラーもそれまでに読めたテキストを返す
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if rawTextElements[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				} else if tt == html.EndTagToken && skipDepth > 0 {
					skipDepth--
				}
			}
			if blockElements[tag] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

var rawTextElements = map[string]bool{"script": true, "style": true}

// blockElements は前後に空白を挟む要素。インライン要素は単語を分断しない
var blockElements = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "td": true, "th": true,
}

var _ HTMLSanitizer = (*contentSanitizer)(nil)
