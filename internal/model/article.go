// Package model はドメインモデルを定義する。
package model

import "time"

// Article はバックエンドAPIが返す記事を表す。
type Article struct {
	Slug           string        `json:"slug"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Body           string        `json:"body"`
	TagList        []string      `json:"tagList"`
	Favorited      bool          `json:"favorited"`
	FavoritesCount int           `json:"favoritesCount"`
	Files          []ArticleFile `json:"files,omitempty"`
	Author         Author        `json:"author"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// FileRoleVideos は記事に添付する動画ファイルのrole。
const FileRoleVideos = "videos"

// FileByRole は指定したroleの添付ファイルを返す。存在しない場合はnil。
func (a *Article) FileByRole(role string) *ArticleFile {
	for i := range a.Files {
		if a.Files[i].Role == role {
			return &a.Files[i]
		}
	}
	return nil
}

// ArticleFile は記事に添付されたファイルを表す。
type ArticleFile struct {
	ID          int       `json:"id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"url"`
	ByteSize    int64     `json:"byteSize"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Author は記事の著者を表す。
type Author struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// ArticleList は記事一覧APIの応答を表す。
type ArticleList struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

// ArticleInput は記事の作成・更新に送信する内容を表す。
type ArticleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`

	// アップロード済みファイルを記事に紐付ける場合のみ設定する
	FileID int    `json:"fileId,omitempty"`
	Key    string `json:"key,omitempty"`
	Role   string `json:"role,omitempty"`
}

// ArticleQuery は記事一覧の検索条件を表す。
type ArticleQuery struct {
	Limit     int
	Offset    int
	Tag       string
	Author    string
	Favorited string
	Feed      bool // trueの場合はフォロー中ユーザーのフィードを取得する
}
