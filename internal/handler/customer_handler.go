package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
	"github.com/hitoshi/articlehub/internal/repository"
	"github.com/hitoshi/articlehub/internal/storage"
)

// customerAPIPageSize は /learning/api/customers の1ページあたりの件数。
const customerAPIPageSize = 10

const customersPath = "/learning/dashboard/customers"

// ObjectStorage は顧客画像の保存先のインターフェース。
// storage.Presignerが実装する。
type ObjectStorage interface {
	PresignUpload(ctx context.Context, fileName string, size int64, contentType string) (*storage.PresignedURL, error)
	PresignView(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// CustomerHandler は顧客のHTTPハンドラー。
type CustomerHandler struct {
	customers     repository.CustomerRepository
	storage       ObjectStorage
	validator     *form.Validator
	maxUploadSize int64
}

// NewCustomerHandler はCustomerHandlerを生成する。
// storageがnilの場合、画像のアップロードURL発行は常に失敗し、画像の表示URLはキーのまま返す。
func NewCustomerHandler(customers repository.CustomerRepository, objects ObjectStorage, validator *form.Validator, maxUploadSize int64) *CustomerHandler {
	return &CustomerHandler{
		customers:     customers,
		storage:       objects,
		validator:     validator,
		maxUploadSize: maxUploadSize,
	}
}

type customerListResponse struct {
	Customers   []model.Customer `json:"customers"`
	Query       string           `json:"query"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

// List は検索条件に一致する顧客を返す。
// GET /learning/dashboard/customers?query=&currentPage=1
// アップロード済みの画像は署名付きの表示URLに置き換える。
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	page := queryInt(r, "currentPage", 1)

	count, err := h.customers.Count(r.Context(), query)
	if err != nil {
		writeDatabaseError(w, "count customers", err)
		return
	}
	customers, err := h.customers.List(r.Context(), query, dashboardPageSize, (page-1)*dashboardPageSize)
	if err != nil {
		writeDatabaseError(w, "list customers", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, customerListResponse{
		Customers:   h.withViewURLs(r.Context(), customers),
		Query:       query,
		CurrentPage: page,
		TotalPages:  totalPages(count, dashboardPageSize),
	})
}

// APIList は顧客一覧をJSON APIとして返す。
// GET /learning/api/customers?page=1
func (h *CustomerHandler) APIList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	customers, err := h.customers.List(r.Context(), "", customerAPIPageSize, (page-1)*customerAPIPageSize)
	if err != nil {
		writeDatabaseError(w, "list customers", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"customers": h.withViewURLs(r.Context(), customers),
	})
}

// withViewURLs は画像がオブジェクトキーの顧客について、表示URLを発行して置き換える。
// 発行に失敗した顧客はキーのまま返す。
func (h *CustomerHandler) withViewURLs(ctx context.Context, customers []model.Customer) []model.Customer {
	if customers == nil {
		return []model.Customer{}
	}
	if h.storage == nil {
		return customers
	}
	for i := range customers {
		if !storage.IsObjectKey(customers[i].ImageURL) {
			continue
		}
		url, err := h.storage.PresignView(ctx, customers[i].ImageURL)
		if err != nil {
			slog.Warn("failed to presign customer image",
				slog.String("customer_id", customers[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		customers[i].ImageURL = url
	}
	return customers
}

// CreatePage は顧客作成フォームの初期状態を返す。
// GET /learning/dashboard/customers/create
func (h *CustomerHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	writeFormState(w, http.StatusOK, nil, nil, "")
}

// Create は顧客を作成し、顧客一覧へ303で遷移する。
// POST /learning/dashboard/customers/create
// image_keyが空の場合は既定の画像を割り当てる。
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input := form.Customer{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		ImageKey: r.PostFormValue("image_key"),
	}
	errs, err := h.validator.Check(input, form.CustomerMessages)
	if err != nil {
		slog.Error("customer validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, form.Values(r, "name", "email", "image_key"), errs, "Missing Fields. Failed to Create Customer.")
		return
	}

	customer := &model.Customer{
		Name:     input.Name,
		Email:    input.Email,
		ImageURL: input.ImageKey,
	}
	if customer.ImageURL == "" {
		customer.ImageURL = model.DefaultCustomerImage
	}
	if err := h.customers.Create(r.Context(), customer); err != nil {
		writeDatabaseError(w, "create customer", err)
		return
	}

	seeOther(w, r, customersPath)
}

// Delete は顧客を削除し、顧客一覧へ303で遷移する。
// POST /learning/dashboard/customers/delete
// 画像がアップロード済みオブジェクトの場合はストレージからも削除する。
// ストレージの削除失敗はログに記録するのみ。
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input := form.DeleteByID{ID: r.PostFormValue("id")}
	errs, err := h.validator.Check(input, form.DeleteByIDMessages)
	if err != nil {
		slog.Error("delete validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, form.Values(r, "id"), errs, "Missing Fields. Failed to Delete Customer.")
		return
	}

	customer, err := h.customers.FindByID(r.Context(), input.ID)
	if err != nil {
		writeDatabaseError(w, "find customer", err)
		return
	}
	if customer == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewCustomerNotFoundError(input.ID))
		return
	}

	if err := h.customers.Delete(r.Context(), customer.ID); err != nil {
		writeDatabaseError(w, "delete customer", err)
		return
	}

	if h.storage != nil && storage.IsObjectKey(customer.ImageURL) {
		if err := h.storage.Delete(r.Context(), customer.ImageURL); err != nil {
			slog.Warn("failed to delete customer image",
				slog.String("customer_id", customer.ID),
				slog.String("key", customer.ImageURL),
				slog.String("error", err.Error()),
			)
		}
	}

	seeOther(w, r, customersPath)
}

// uploadURLRequest は顧客画像の署名付きアップロードURLの要求。
type uploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Checksum    string `json:"checksum"`
	FileSize    int64  `json:"fileSize"`
}

// PresignUpload は顧客画像の署名付きアップロードURLを発行する。
// POST /learning/api/upload/presigned-url
// レスポンス: {"url": "...", "key": "uploads/..."}
func (h *CustomerHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return
	}

	if reason := h.rejectUpload(req); reason != "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewUploadRejectedError(reason))
		return
	}

	if h.storage == nil {
		slog.Error("object storage is not configured")
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewUploadFailedError())
		return
	}

	presigned, err := h.storage.PresignUpload(r.Context(), req.FileName, req.FileSize, req.ContentType)
	if err != nil {
		slog.Error("failed to generate presigned url", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewUploadFailedError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, presigned)
}

// rejectUpload はアップロード要求を検証し、拒否する場合はその理由を返す。
func (h *CustomerHandler) rejectUpload(req uploadURLRequest) string {
	switch {
	case req.FileName == "" || req.ContentType == "":
		return "fileName and contentType are required"
	case req.Checksum == "":
		return "File checksum is required for validation"
	case !strings.HasPrefix(req.ContentType, "image/"):
		return "Only image files are allowed"
	case h.maxUploadSize > 0 && req.FileSize > h.maxUploadSize:
		return fmt.Sprintf("File size must be less than %dMB", h.maxUploadSize>>20)
	}
	return ""
}
