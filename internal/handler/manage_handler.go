package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
)

// ManageBackend は管理画面が必要とするバックエンド呼び出しのインターフェース。
type ManageBackend interface {
	ListArticles(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error)
	DeleteArticle(ctx context.Context, accessToken, slug string) error
}

// ManageHandler は記事管理画面のHTTPハンドラー。
type ManageHandler struct {
	backend   ManageBackend
	validator *form.Validator
}

// NewManageHandler はManageHandlerを生成する。
func NewManageHandler(b ManageBackend, validator *form.Validator) *ManageHandler {
	return &ManageHandler{backend: b, validator: validator}
}

type manageListResponse struct {
	Articles    []model.Article `json:"articles"`
	Query       string          `json:"query"`
	CurrentPage int             `json:"currentPage"`
	Limit       int             `json:"limit"`
	TotalPages  int             `json:"totalPages"`
}

// List は管理画面の記事テーブルを返す。
// GET /manage/articles?query=&currentPage=1&limit=10
// queryは検索欄の表示用でバックエンドには送信しない。
func (h *ManageHandler) List(w http.ResponseWriter, r *http.Request) {
	currentPage := queryInt(r, "currentPage", 1)
	limit := queryInt(r, "limit", defaultArticleLimit)

	list, err := h.backend.ListArticles(r.Context(), accessToken(r), model.ArticleQuery{
		Limit:  limit,
		Offset: (currentPage - 1) * limit,
	})
	if err != nil {
		handleBackendError(w, err, nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, manageListResponse{
		Articles:    list.Articles,
		Query:       r.URL.Query().Get("query"),
		CurrentPage: currentPage,
		Limit:       limit,
		TotalPages:  totalPages(list.ArticlesCount, limit),
	})
}

// Delete は記事を削除し、管理画面へ303で遷移する。
// POST /manage/articles/delete
func (h *ManageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input := form.DeleteArticle{Slug: r.PostFormValue("slug")}
	errs, err := h.validator.Check(input, form.DeleteArticleMessages)
	if err != nil {
		slog.Error("delete validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, form.Values(r, "slug"), errs, "Missing Fields. Failed to Delete Article.")
		return
	}

	if err := h.backend.DeleteArticle(r.Context(), accessToken(r), input.Slug); err != nil {
		handleBackendError(w, err, model.NewArticleNotFoundError(input.Slug))
		return
	}

	seeOther(w, r, "/manage/articles")
}
