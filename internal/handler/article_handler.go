package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
	"github.com/hitoshi/articlehub/internal/security"
)

// defaultArticleLimit は記事一覧の1ページあたりの既定件数。
const defaultArticleLimit = 10

// maxUploadRequestBytes は署名付きURL要求ボディの読み取り上限。
const maxUploadRequestBytes = 1 << 16

// articleFormFields は記事フォームの再表示に返すフィールド。
var articleFormFields = []string{"title", "description", "body", "tagList", "fileId", "key", "role"}

// ArticleBackend は記事ハンドラーが必要とするバックエンド呼び出しのインターフェース。
// backend.Clientが実装する。
type ArticleBackend interface {
	ListArticles(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error)
	GetArticle(ctx context.Context, accessToken, slug string) (*model.Article, error)
	CreateArticle(ctx context.Context, accessToken string, input model.ArticleInput) (*model.Article, error)
	UpdateArticle(ctx context.Context, accessToken, slug string, input model.ArticleInput) (*model.Article, error)
	FavoriteArticle(ctx context.Context, accessToken, slug string) error
	UnfavoriteArticle(ctx context.Context, accessToken, slug string) error
	ListTags(ctx context.Context) ([]string, error)
	RequestUploadURL(ctx context.Context, accessToken string, req backend.UploadRequest) (json.RawMessage, error)
}

// ArticleHandler は記事関連のHTTPハンドラー。
type ArticleHandler struct {
	backend   ArticleBackend
	sanitizer security.ArticleSanitizer
	validator *form.Validator
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(b ArticleBackend, sanitizer security.ArticleSanitizer, validator *form.Validator) *ArticleHandler {
	return &ArticleHandler{
		backend:   b,
		sanitizer: sanitizer,
		validator: validator,
	}
}

type articleListResponse struct {
	Articles      []model.Article `json:"articles"`
	ArticlesCount int             `json:"articlesCount"`
	Page          int             `json:"page"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
	TotalPages    int             `json:"totalPages"`
}

// List は記事一覧を返す。
// GET /articles?page=1&limit=10&offset=0&tag=go&author=name&favorited=name&feed=1
// offsetが未指定の場合は (page-1)*limit。feed=1はログイン中のみフィードを取得する。
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultArticleLimit)
	offset := (page - 1) * limit
	if q.Has("offset") {
		offset = queryInt(r, "offset", 0)
	}

	token := accessToken(r)
	query := model.ArticleQuery{
		Limit:     limit,
		Offset:    offset,
		Tag:       q.Get("tag"),
		Author:    q.Get("author"),
		Favorited: q.Get("favorited"),
		Feed:      q.Get("feed") == "1" && token != "",
	}

	list, err := h.backend.ListArticles(r.Context(), token, query)
	if err != nil {
		handleBackendError(w, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, articleListResponse{
		Articles:      list.Articles,
		ArticlesCount: list.ArticlesCount,
		Page:          page,
		Limit:         limit,
		Offset:        offset,
		TotalPages:    totalPages(list.ArticlesCount, limit),
	})
}

// Get は記事詳細を返す。
// GET /articles/{slug}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	article, err := h.backend.GetArticle(r.Context(), accessToken(r), slug)
	if err != nil {
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"article": article})
}

// Tags は人気タグの一覧を返す。
// GET /tags
func (h *ArticleHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.backend.ListTags(r.Context())
	if err != nil {
		handleBackendError(w, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// CreatePage は記事作成フォームの初期状態を返す。
// GET /articles/create
func (h *ArticleHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	writeFormState(w, http.StatusOK, nil, nil, "")
}

// Create は記事を作成し、記事一覧へ303で遷移する。
// POST /articles/create
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input, errs, ok := h.readArticle(w, r)
	if !ok {
		return
	}
	data := form.Values(r, articleFormFields...)
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Create Article.")
		return
	}

	if _, err := h.backend.CreateArticle(r.Context(), accessToken(r), input); err != nil {
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) {
			writeFormState(w, http.StatusUnprocessableEntity, data, respErr.FieldErrors(), "Failed to create article.")
			return
		}
		handleBackendError(w, err, nil)
		return
	}

	seeOther(w, r, "/articles")
}

// EditPage は記事編集フォームの初期状態を返す。タグはカンマ区切りで返す。
// GET /articles/{slug}/edit
func (h *ArticleHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	article, err := h.backend.GetArticle(r.Context(), accessToken(r), slug)
	if err != nil {
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}

	writeFormState(w, http.StatusOK, map[string]string{
		"slug":        article.Slug,
		"title":       article.Title,
		"description": article.Description,
		"body":        article.Body,
		"tagList":     strings.Join(article.TagList, ", "),
	}, nil, "")
}

// Update は記事を更新し、記事詳細へ303で遷移する。
// POST /articles/{slug}/edit
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	slug := chi.URLParam(r, "slug")

	input, errs, ok := h.readArticle(w, r)
	if !ok {
		return
	}
	data := form.Values(r, articleFormFields...)
	data["slug"] = slug
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Update Article.")
		return
	}

	article, err := h.backend.UpdateArticle(r.Context(), accessToken(r), slug, input)
	if err != nil {
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnprocessableEntity {
			writeFormState(w, http.StatusUnprocessableEntity, data, respErr.FieldErrors(), "Failed to update article.")
			return
		}
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}

	// タイトル変更でslugが変わる場合がある
	if article.Slug != "" {
		slug = article.Slug
	}
	seeOther(w, r, "/articles/"+slug)
}

// readArticle はフォームの記事入力をサニタイズしてから検証する。
// fileId・key・roleのいずれかが送信された場合は添付ファイルの指定も検証する。
// 検証自体に失敗した場合は500を書き込みok=falseを返す。
func (h *ArticleHandler) readArticle(w http.ResponseWriter, r *http.Request) (model.ArticleInput, form.FieldErrors, bool) {
	input := h.sanitizer.SanitizeArticle(model.ArticleInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Body:        r.PostFormValue("body"),
		TagList:     form.SplitTags(r.PostFormValue("tagList")),
	})

	errs, err := h.validator.Check(form.Article{
		Title:       input.Title,
		Description: input.Description,
		Body:        input.Body,
	}, form.ArticleMessages)
	if err != nil {
		slog.Error("article validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return input, nil, false
	}

	if !hasFileFields(r) {
		return input, errs, true
	}
	file, fileErrs, ok := h.readFile(w, r)
	if !ok {
		return input, nil, false
	}
	for field, msgs := range fileErrs {
		if errs == nil {
			errs = make(form.FieldErrors)
		}
		errs[field] = append(errs[field], msgs...)
	}
	input.FileID, input.Key, input.Role = file.FileID, file.Key, file.Role
	return input, errs, true
}

func hasFileFields(r *http.Request) bool {
	return r.PostFormValue("fileId") != "" || r.PostFormValue("key") != "" || r.PostFormValue("role") != ""
}

// readFile は添付ファイルの指定を読み取って検証する。
// 数値として解釈できないfileIdは未指定として扱う。
func (h *ArticleHandler) readFile(w http.ResponseWriter, r *http.Request) (form.ArticleFile, form.FieldErrors, bool) {
	fileID, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("fileId")))
	file := form.ArticleFile{
		FileID: fileID,
		Key:    strings.TrimSpace(r.PostFormValue("key")),
		Role:   r.PostFormValue("role"),
	}

	errs, err := h.validator.Check(file, form.ArticleFileMessages)
	if err != nil {
		slog.Error("article file validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return file, nil, false
	}
	return file, errs, true
}

// VideoEditPage は動画添付フォームの初期状態を返す。
// 既に動画が添付されている場合はそのファイル情報を含める。
// GET /articles/{slug}/video-edit
func (h *ArticleHandler) VideoEditPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	article, err := h.backend.GetArticle(r.Context(), accessToken(r), slug)
	if err != nil {
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}

	data := map[string]string{
		"slug":  article.Slug,
		"title": article.Title,
	}
	if f := article.FileByRole(model.FileRoleVideos); f != nil {
		data["fileId"] = strconv.Itoa(f.ID)
		data["key"] = f.Key
		data["role"] = f.Role
		data["url"] = f.URL
		data["filename"] = f.Filename
		data["byteSize"] = strconv.FormatInt(f.ByteSize, 10)
	}
	writeFormState(w, http.StatusOK, data, nil, "")
}

// VideoUpdate はアップロード済みの動画を記事に紐付け、記事詳細へ303で遷移する。
// タイトル・本文等は現在の記事の内容をそのまま送信する。
// POST /articles/{slug}/video-edit
func (h *ArticleHandler) VideoUpdate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	slug := chi.URLParam(r, "slug")

	file, errs, ok := h.readFile(w, r)
	if !ok {
		return
	}
	data := form.Values(r, "fileId", "key", "role")
	data["slug"] = slug
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Update Article.")
		return
	}

	token := accessToken(r)
	article, err := h.backend.GetArticle(r.Context(), token, slug)
	if err != nil {
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}

	tags := article.TagList
	if tags == nil {
		tags = []string{}
	}
	updated, err := h.backend.UpdateArticle(r.Context(), token, slug, model.ArticleInput{
		Title:       article.Title,
		Description: article.Description,
		Body:        article.Body,
		TagList:     tags,
		FileID:      file.FileID,
		Key:         file.Key,
		Role:        file.Role,
	})
	if err != nil {
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnprocessableEntity {
			writeFormState(w, http.StatusUnprocessableEntity, data, respErr.FieldErrors(), "Failed to update article.")
			return
		}
		handleBackendError(w, err, model.NewArticleNotFoundError(slug))
		return
	}

	if updated.Slug != "" {
		slug = updated.Slug
	}
	seeOther(w, r, "/articles/"+slug)
}

// Favorite は記事をお気に入りに追加する。
// POST /articles/{slug}/favorite
func (h *ArticleHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.backend.FavoriteArticle, "Article favorited successfully.")
}

// Unfavorite は記事をお気に入りから外す。
// POST /articles/{slug}/unfavorite
func (h *ArticleHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.backend.UnfavoriteArticle, "Article unfavorited successfully.")
}

// toggleFavorite はお気に入り操作の結果をmodel.ActionResultとして200で返す。
// 失敗時のメッセージは "<status> - <statusText>"。
func (h *ArticleHandler) toggleFavorite(w http.ResponseWriter, r *http.Request,
	call func(ctx context.Context, accessToken, slug string) error, successMsg string) {
	token := accessToken(r)
	if token == "" {
		middleware.WriteJSON(w, http.StatusOK, model.ActionResult{
			Message: "You must be logged in to perform this action.",
		})
		return
	}

	if err := call(r.Context(), token, chi.URLParam(r, "slug")); err != nil {
		status := http.StatusBadGateway
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) {
			status = respErr.StatusCode
		}
		middleware.WriteJSON(w, http.StatusOK, model.ActionResult{
			Message: fmt.Sprintf("%d - %s", status, http.StatusText(status)),
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, model.ActionResult{Message: successMsg, Success: true})
}

// UploadURL はバックエンドの署名付きアップロードURL発行APIへ中継する。
// POST /api/upload/presigned-url
// リクエスト: {"filename": "...", "contentType": "...", "checksum": "...", "size": 123}
// バックエンドが2xx以外を返した場合はそのステータスでエラーを返す。
func (h *ArticleHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req backend.UploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return
	}

	raw, err := h.backend.RequestUploadURL(r.Context(), accessToken(r), req)
	if err != nil {
		status := http.StatusBadGateway
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) {
			status = respErr.StatusCode
		} else {
			slog.Error("presigned url request failed", slog.String("error", err.Error()))
		}
		middleware.WriteErrorResponse(w, status, &model.APIError{
			Code:     model.ErrCodeUploadFailed,
			Message:  "Failed to get presigned URL",
			Category: "upload",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
