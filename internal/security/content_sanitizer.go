// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は編集コメント本文をサニタイズし、
// 編集画面に表示されるコメントからスクリプト等を除去する。
// bluemondayの許可リストベースのポリシーで、簡単な書式タグとリンクのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は編集コメント本文のサニタイズのインターフェース。
type ContentSanitizer interface {
	// Sanitize は本文をサニタイズし、前後の空白を除去して返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, code, strong, em）のみを通過させる。
	// aタグのhref属性はhttpsとmailtoのみ許可し、rel="nofollow noopener noreferrer"を付与する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(body string) string
}

// commentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type commentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer は編集コメント用のContentSanitizerを生成する。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style, on*属性は許可リストに無いため除去される
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "code",
		"strong", "em",
	)

	// コメント内のリンクは参照先の記事や資料を想定する
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &commentSanitizer{policy: p}
}

// Sanitize は本文をサニタイズする。
func (s *commentSanitizer) Sanitize(body string) string {
	return strings.TrimSpace(s.policy.Sanitize(body))
}
