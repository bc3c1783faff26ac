package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/model"
	"github.com/hitoshi/articlehub/internal/storage"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*model.TokenPair, error)
	registerFn func(ctx context.Context, username, email, password string) error
	currentFn  func(ctx context.Context, accessToken string) (*model.CurrentUser, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, accessToken string) (*model.CurrentUser, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, accessToken)
	}
	return &model.CurrentUser{Username: "user"}, nil
}

// mockArticleBackend はArticleBackendとManageBackendのモック実装。
type mockArticleBackend struct {
	listArticlesFn      func(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error)
	getArticleFn        func(ctx context.Context, accessToken, slug string) (*model.Article, error)
	createArticleFn     func(ctx context.Context, accessToken string, input model.ArticleInput) (*model.Article, error)
	updateArticleFn     func(ctx context.Context, accessToken, slug string, input model.ArticleInput) (*model.Article, error)
	deleteArticleFn     func(ctx context.Context, accessToken, slug string) error
	favoriteArticleFn   func(ctx context.Context, accessToken, slug string) error
	unfavoriteArticleFn func(ctx context.Context, accessToken, slug string) error
	listTagsFn          func(ctx context.Context) ([]string, error)
	requestUploadURLFn  func(ctx context.Context, accessToken string, req backend.UploadRequest) (json.RawMessage, error)
}

func (m *mockArticleBackend) ListArticles(ctx context.Context, accessToken string, q model.ArticleQuery) (*model.ArticleList, error) {
	if m.listArticlesFn != nil {
		return m.listArticlesFn(ctx, accessToken, q)
	}
	return &model.ArticleList{Articles: []model.Article{}}, nil
}

func (m *mockArticleBackend) GetArticle(ctx context.Context, accessToken, slug string) (*model.Article, error) {
	if m.getArticleFn != nil {
		return m.getArticleFn(ctx, accessToken, slug)
	}
	return &model.Article{Slug: slug}, nil
}

func (m *mockArticleBackend) CreateArticle(ctx context.Context, accessToken string, input model.ArticleInput) (*model.Article, error) {
	if m.createArticleFn != nil {
		return m.createArticleFn(ctx, accessToken, input)
	}
	return &model.Article{Slug: "created"}, nil
}

func (m *mockArticleBackend) UpdateArticle(ctx context.Context, accessToken, slug string, input model.ArticleInput) (*model.Article, error) {
	if m.updateArticleFn != nil {
		return m.updateArticleFn(ctx, accessToken, slug, input)
	}
	return &model.Article{Slug: slug}, nil
}

func (m *mockArticleBackend) DeleteArticle(ctx context.Context, accessToken, slug string) error {
	if m.deleteArticleFn != nil {
		return m.deleteArticleFn(ctx, accessToken, slug)
	}
	return nil
}

func (m *mockArticleBackend) FavoriteArticle(ctx context.Context, accessToken, slug string) error {
	if m.favoriteArticleFn != nil {
		return m.favoriteArticleFn(ctx, accessToken, slug)
	}
	return nil
}

func (m *mockArticleBackend) UnfavoriteArticle(ctx context.Context, accessToken, slug string) error {
	if m.unfavoriteArticleFn != nil {
		return m.unfavoriteArticleFn(ctx, accessToken, slug)
	}
	return nil
}

func (m *mockArticleBackend) ListTags(ctx context.Context) ([]string, error) {
	if m.listTagsFn != nil {
		return m.listTagsFn(ctx)
	}
	return []string{}, nil
}

func (m *mockArticleBackend) RequestUploadURL(ctx context.Context, accessToken string, req backend.UploadRequest) (json.RawMessage, error) {
	if m.requestUploadURLFn != nil {
		return m.requestUploadURLFn(ctx, accessToken, req)
	}
	return json.RawMessage(`{}`), nil
}

// mockCustomerRepo はrepository.CustomerRepositoryのモック実装。
type mockCustomerRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Customer, error)
	listFn     func(ctx context.Context, query string, limit, offset int) ([]model.Customer, error)
	countFn    func(ctx context.Context, query string) (int, error)
	listAllFn  func(ctx context.Context) ([]model.Customer, error)
	createFn   func(ctx context.Context, customer *model.Customer) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCustomerRepo) List(ctx context.Context, query string, limit, offset int) ([]model.Customer, error) {
	if m.listFn != nil {
		return m.listFn(ctx, query, limit, offset)
	}
	return nil, nil
}

func (m *mockCustomerRepo) Count(ctx context.Context, query string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query)
	}
	return 0, nil
}

func (m *mockCustomerRepo) ListAll(ctx context.Context) ([]model.Customer, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	if m.createFn != nil {
		return m.createFn(ctx, customer)
	}
	return nil
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockInvoiceRepo はrepository.InvoiceRepositoryのモック実装。
type mockInvoiceRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Invoice, error)
	listFilteredFn  func(ctx context.Context, query string, limit, offset int) ([]model.InvoiceWithCustomer, error)
	countFilteredFn func(ctx context.Context, query string) (int, error)
	createFn        func(ctx context.Context, invoice *model.Invoice) error
	updateFn        func(ctx context.Context, invoice *model.Invoice) error
	deleteFn        func(ctx context.Context, id string) error
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id string) (*model.Invoice, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) ListFiltered(ctx context.Context, query string, limit, offset int) ([]model.InvoiceWithCustomer, error) {
	if m.listFilteredFn != nil {
		return m.listFilteredFn(ctx, query, limit, offset)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) CountFiltered(ctx context.Context, query string) (int, error) {
	if m.countFilteredFn != nil {
		return m.countFilteredFn(ctx, query)
	}
	return 0, nil
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	if m.createFn != nil {
		return m.createFn(ctx, invoice)
	}
	return nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *model.Invoice) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, invoice)
	}
	return nil
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockStorage はObjectStorageのモック実装。
type mockStorage struct {
	presignUploadFn func(ctx context.Context, fileName string, size int64, contentType string) (*storage.PresignedURL, error)
	presignViewFn   func(ctx context.Context, key string) (string, error)
	deleteFn        func(ctx context.Context, key string) error
}

func (m *mockStorage) PresignUpload(ctx context.Context, fileName string, size int64, contentType string) (*storage.PresignedURL, error) {
	if m.presignUploadFn != nil {
		return m.presignUploadFn(ctx, fileName, size, contentType)
	}
	return &storage.PresignedURL{URL: "https://storage.example/put", Key: "uploads/x.png"}, nil
}

func (m *mockStorage) PresignView(ctx context.Context, key string) (string, error) {
	if m.presignViewFn != nil {
		return m.presignViewFn(ctx, key)
	}
	return "https://storage.example/" + key, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

// --- テストヘルパー ---

// newFormRequest はURLエンコードされたフォームのPOSTリクエストを生成する。
func newFormRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// withAccessToken はアクセストークンCookieを付与する。
func withAccessToken(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: token})
	return req
}

// decodeFormState はレスポンスボディをFormStateとしてデコードする。
func decodeFormState(t *testing.T, w *httptest.ResponseRecorder) model.FormState {
	t.Helper()
	var state model.FormState
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("FormStateのデコードに失敗: %v", err)
	}
	return state
}

// decodeErrorCode はエラーレスポンスのcodeを返す。
func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("エラーレスポンスのデコードに失敗: %v", err)
	}
	return body.Code
}
