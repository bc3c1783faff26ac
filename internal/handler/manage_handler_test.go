package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/model"
)

func TestManageHandler_List(t *testing.T) {
	var got model.ArticleQuery
	h := NewManageHandler(&mockArticleBackend{
		listArticlesFn: func(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error) {
			got = q
			return &model.ArticleList{Articles: []model.Article{{Slug: "a"}}, ArticlesCount: 11}, nil
		},
	}, form.NewValidator())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/manage/articles?query=go&currentPage=2&limit=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.Limit != 5 || got.Offset != 5 {
		t.Errorf("query = %+v", got)
	}

	var resp manageListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalPages != 3 || resp.CurrentPage != 2 || resp.Query != "go" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestManageHandler_List_BackendError(t *testing.T) {
	h := NewManageHandler(&mockArticleBackend{
		listArticlesFn: func(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error) {
			return nil, &backend.ResponseError{StatusCode: http.StatusInternalServerError}
		},
	}, form.NewValidator())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/manage/articles", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestManageHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		slug       string
		backendErr error
		wantStatus int
		wantCalled bool
	}{
		{name: "成功", slug: "my-post", wantStatus: http.StatusSeeOther, wantCalled: true},
		{name: "slug未指定", slug: "", wantStatus: http.StatusUnprocessableEntity},
		{name: "バックエンドエラー", slug: "my-post", backendErr: errors.New("timeout"), wantStatus: http.StatusBadGateway, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewManageHandler(&mockArticleBackend{
				deleteArticleFn: func(ctx context.Context, accessToken, slug string) error {
					called = true
					if accessToken != "access" {
						t.Errorf("token = %q", accessToken)
					}
					return tt.backendErr
				},
			}, form.NewValidator())

			req := withAccessToken(newFormRequest("/manage/articles/delete", url.Values{"slug": {tt.slug}}), "access")
			w := httptest.NewRecorder()
			h.Delete(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantStatus == http.StatusSeeOther {
				if loc := w.Header().Get("Location"); loc != "/manage/articles" {
					t.Errorf("Location = %q", loc)
				}
			}
			if tt.wantStatus == http.StatusUnprocessableEntity {
				state := decodeFormState(t, w)
				if state.Message != "Missing Fields. Failed to Delete Article." {
					t.Errorf("message = %q", state.Message)
				}
			}
		})
	}
}
