// Package security はユーザー入力の無害化を提供する。
//
// 記事のタイトル・概要はタグをすべて除去したプレーンテキストに、
// 本文は許可リストのタグのみを残したHTML（Markdown混在可）に変換してから
// バックエンドへ送信する。
package security

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/articlehub/internal/model"
)

// ArticleSanitizer は記事入力のサニタイズ機能のインターフェースを定義する。
type ArticleSanitizer interface {
	// SanitizeArticle はタイトル・概要・本文・タグをサニタイズした入力を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeArticle(in model.ArticleInput) model.ArticleInput
}

// textUnescaper はプレーンテキスト化で生じた実体参照のうち、タグを生成し得ないものを戻す。
// &lt; は戻さない。
var textUnescaper = strings.NewReplacer("&amp;", "&", "&gt;", ">", "&#39;", "'", "&#34;", `"`)

// bodyUnescaper は本文用。属性値を壊さないよう引用符は戻さない。
// Markdownの引用（>）と&を保つ。
var bodyUnescaper = strings.NewReplacer("&amp;", "&", "&gt;", ">")

// contentSanitizer はArticleSanitizerの実装。
// bluemondayのポリシーはスレッドセーフ。
type contentSanitizer struct {
	text *bluemonday.Policy
	body *bluemonday.Policy
}

// NewContentSanitizer は記事用のサニタイザーを生成する。
// 本文ポリシーの内容:
//   - 許可タグ: p, br, hr, h1-h6, a, ul, ol, li, blockquote, pre, code, strong, em, del, img, table系
//   - script, iframe, style等および全てのon*イベント属性は除去
//   - URLはhttps/mailtoと相対URLのみ。imgのsrcも同じ
//   - 外部リンクにはtarget="_blank"とrel="noopener noreferrer"を付与
//   - codeのclassは "language-xxx" のみ許可
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "del",
	)
	p.AllowTables()

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})
	p.AllowURLSchemes("mailto")

	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w-]+$`)).OnElements("code")

	return &contentSanitizer{
		text: bluemonday.StrictPolicy(),
		body: p,
	}
}

// SanitizeText はタグをすべて除去したプレーンテキストを返す。前後の空白は除去する。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(textUnescaper.Replace(s.text.Sanitize(raw)))
}

// SanitizeBody は本文を許可リストのポリシーでサニタイズする。
func (s *contentSanitizer) SanitizeBody(raw string) string {
	return bodyUnescaper.Replace(s.body.Sanitize(raw))
}

// SanitizeArticle は記事入力全体をサニタイズする。
// サニタイズ後に空になったタグは除去する。添付ファイルの指定はそのまま引き継ぐ。
func (s *contentSanitizer) SanitizeArticle(in model.ArticleInput) model.ArticleInput {
	out := model.ArticleInput{
		Title:       s.SanitizeText(in.Title),
		Description: s.SanitizeText(in.Description),
		Body:        s.SanitizeBody(in.Body),
		TagList:     make([]string, 0, len(in.TagList)),
		FileID:      in.FileID,
		Key:         in.Key,
		Role:        in.Role,
	}
	for _, tag := range in.TagList {
		if t := s.SanitizeText(tag); t != "" {
			out.TagList = append(out.TagList, t)
		}
	}
	return out
}
