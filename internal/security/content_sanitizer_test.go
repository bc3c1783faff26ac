package security

import (
	"strings"
	"testing"

	"github.com/hitoshi/articlehub/internal/model"
)

func TestSanitizeText(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Go で Web アプリを書く", "Go で Web アプリを書く"},
		{"タグは除去される", "<b>太字</b>のタイトル", "太字のタイトル"},
		{"scriptは中身ごと除去される", "安全<script>alert('xss')</script>", "安全"},
		{"&と引用符は保持される", `Tom & Jerry's "show"`, `Tom & Jerry's "show"`},
		{"前後の空白は除去される", "  hello  ", "hello"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_NoTagInjection はエスケープ済みの<を戻してタグを生成しないことを検証する。
func TestSanitizeText_NoTagInjection(t *testing.T) {
	s := NewContentSanitizer()

	for _, input := range []string{"&lt;script&gt;", "a < b", "&amp;lt;img&amp;gt;"} {
		if got := s.SanitizeText(input); strings.Contains(got, "<") {
			t.Errorf("SanitizeText(%q) = %q, should NOT contain '<'", input, got)
		}
	}
}

// TestSanitizeBody_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitizeBody_AllowedTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{"pタグ", "<p>テスト段落</p>", []string{"<p>テスト段落</p>"}},
		{"見出し", "<h2>見出し</h2>", []string{"<h2>見出し</h2>"}},
		{"リスト", "<ul><li>項目1</li></ul>", []string{"<ul>", "<li>項目1</li>"}},
		{"引用", "<blockquote>引用</blockquote>", []string{"<blockquote>引用</blockquote>"}},
		{"コードのlanguageクラス", `<pre><code class="language-go">x := 1</code></pre>`, []string{`class="language-go"`}},
		{"表", "<table><tr><td>1</td></tr></table>", []string{"<table>", "<td>1</td>"}},
		{"https画像", `<img src="https://example.com/a.png" alt="画像">`, []string{`src="https://example.com/a.png"`, `alt="画像"`}},
		{"相対リンク", `<a href="/articles/hello">記事</a>`, []string{`href="/articles/hello"`}},
		{"Markdownの引用記号", "> quoted & kept", []string{"> quoted & kept"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeBody(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeBody(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitizeBody_Forbidden は禁止要素と危険な属性が除去されることを検証する。
func TestSanitizeBody_Forbidden(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{"script", `<p>a</p><script>alert('xss')</script>`, []string{"<script", "alert"}},
		{"iframe", `<iframe src="https://evil.com"></iframe>`, []string{"<iframe", "evil.com"}},
		{"style", `<style>body{display:none}</style>`, []string{"<style", "display:none"}},
		{"onclick", `<p onclick="alert('xss')">t</p>`, []string{"onclick", "alert"}},
		{"img onerror", `<img src="https://example.com/a.png" onerror="alert('xss')">`, []string{"onerror"}},
		{"javascript URI", `<a href="javascript:alert('xss')">c</a>`, []string{"javascript:"}},
		{"data URI", `<img src="data:image/png;base64,abc">`, []string{"data:image"}},
		{"http画像", `<img src="http://example.com/a.png">`, []string{"http://example.com"}},
		{"任意のclass", `<code class="x onclick">c</code>`, []string{"class="}},
		{"style属性", `<p style="background:url(javascript:alert(1))">t</p>`, []string{"style=", "javascript:"}},
		{"svg", `<svg onload="alert('xss')">`, []string{"<svg", "onload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeBody(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(strings.ToLower(got), strings.ToLower(absent)) {
					t.Errorf("SanitizeBody(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitizeBody_ExternalLinks は外部リンクにtarget="_blank"とrelが付与されることを検証する。
func TestSanitizeBody_ExternalLinks(t *testing.T) {
	s := NewContentSanitizer()

	got := s.SanitizeBody(`<a href="https://example.com" target="_self" rel="nofollow">リンク</a>`)
	for _, want := range []string{`target="_blank"`, "noopener", "noreferrer"} {
		if !strings.Contains(got, want) {
			t.Errorf("got %q, expected to contain %q", got, want)
		}
	}
	if strings.Contains(got, `target="_self"`) {
		t.Errorf("got %q, should NOT contain target=\"_self\"", got)
	}
}

// TestSanitizeArticle_Idempotent は二重サニタイズで結果が変わらないことを検証する。
func TestSanitizeArticle_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	in := model.ArticleInput{
		Title:       "<em>Hello</em> & welcome",
		Description: "desc<script>x</script>",
		Body:        `<p>本文<strong>太字</strong></p><a href="https://example.com">リンク</a>`,
		TagList:     []string{"go", "<b></b>", " web "},
	}

	once := s.SanitizeArticle(in)
	twice := s.SanitizeArticle(once)

	if once.Title != "Hello & welcome" || once.Description != "desc" {
		t.Errorf("once = %+v", once)
	}
	if len(once.TagList) != 2 || once.TagList[0] != "go" || once.TagList[1] != "web" {
		t.Errorf("TagList = %v", once.TagList)
	}
	if once.Title != twice.Title || once.Body != twice.Body || once.Description != twice.Description {
		t.Errorf("冪等性違反: once=%+v twice=%+v", once, twice)
	}
}

// TestSanitizeArticle_KeepsFileAttachment は添付ファイルの指定が引き継がれることを検証する。
func TestSanitizeArticle_KeepsFileAttachment(t *testing.T) {
	s := NewContentSanitizer()

	got := s.SanitizeArticle(model.ArticleInput{
		Title:  "t",
		FileID: 12,
		Key:    "uploads/clip.mp4",
		Role:   model.FileRoleVideos,
	})
	if got.FileID != 12 || got.Key != "uploads/clip.mp4" || got.Role != model.FileRoleVideos {
		t.Errorf("got = %+v", got)
	}
}

func TestArticleSanitizerInterface(t *testing.T) {
	var _ ArticleSanitizer = NewContentSanitizer()
}
