package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/articlehub/internal/model"
)

// ListArticles は記事一覧を取得する。
// GET /articles または GET /articles/feed
func (c *Client) ListArticles(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Favorited != "" {
		params.Set("favorited", q.Favorited)
	}

	path := "/articles"
	if q.Feed {
		path += "/feed"
	}

	var out model.ArticleList
	if err := c.do(ctx, "list_articles", http.MethodGet, path+"?"+params.Encode(), accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.Articles == nil {
		out.Articles = []model.Article{}
	}
	return &out, nil
}

// GetArticle は記事詳細を取得する。
// GET /articles/{slug}
func (c *Client) GetArticle(ctx context.Context, accessToken, slug string) (*model.Article, error) {
	var out struct {
		Article model.Article `json:"article"`
	}
	if err := c.do(ctx, "get_article", http.MethodGet, "/articles/"+url.PathEscape(slug), accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// CreateArticle は記事を作成する。
// POST /articles
func (c *Client) CreateArticle(ctx context.Context, accessToken string, input model.ArticleInput) (*model.Article, error) {
	in := map[string]any{"article": input}
	var out struct {
		Article model.Article `json:"article"`
	}
	if err := c.do(ctx, "create_article", http.MethodPost, "/articles", accessToken, in, &out); err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// UpdateArticle は記事を更新する。
// PUT /articles/{slug}
func (c *Client) UpdateArticle(ctx context.Context, accessToken, slug string, input model.ArticleInput) (*model.Article, error) {
	in := map[string]any{"article": input}
	var out struct {
		Article model.Article `json:"article"`
	}
	if err := c.do(ctx, "update_article", http.MethodPut, "/articles/"+url.PathEscape(slug), accessToken, in, &out); err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// DeleteArticle は記事を削除する。
// DELETE /articles/{slug}
func (c *Client) DeleteArticle(ctx context.Context, accessToken, slug string) error {
	return c.do(ctx, "delete_article", http.MethodDelete, "/articles/"+url.PathEscape(slug), accessToken, nil, nil)
}

// FavoriteArticle は記事をお気に入りに追加する。
// POST /articles/{slug}/favorite
func (c *Client) FavoriteArticle(ctx context.Context, accessToken, slug string) error {
	return c.do(ctx, "favorite_article", http.MethodPost, "/articles/"+url.PathEscape(slug)+"/favorite", accessToken, nil, nil)
}

// UnfavoriteArticle は記事をお気に入りから外す。
// DELETE /articles/{slug}/favorite
func (c *Client) UnfavoriteArticle(ctx context.Context, accessToken, slug string) error {
	return c.do(ctx, "unfavorite_article", http.MethodDelete, "/articles/"+url.PathEscape(slug)+"/favorite", accessToken, nil, nil)
}

// ListTags は人気タグの一覧を取得する。
// GET /tags
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.do(ctx, "list_tags", http.MethodGet, "/tags", "", nil, &out); err != nil {
		return nil, err
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out.Tags, nil
}
