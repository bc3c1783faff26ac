package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
	"github.com/hitoshi/articlehub/internal/repository"
)

// dashboardPageSize はダッシュボードの一覧の1ページあたりの件数。
const dashboardPageSize = 6

const invoicesPath = "/learning/dashboard/invoices"

// InvoiceHandler は請求書のHTTPハンドラー。
type InvoiceHandler struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	validator *form.Validator
	now       func() time.Time
}

// NewInvoiceHandler はInvoiceHandlerを生成する。
func NewInvoiceHandler(invoices repository.InvoiceRepository, customers repository.CustomerRepository, validator *form.Validator) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:  invoices,
		customers: customers,
		validator: validator,
		now:       time.Now,
	}
}

type invoiceListResponse struct {
	Invoices    []model.InvoiceWithCustomer `json:"invoices"`
	Query       string                      `json:"query"`
	CurrentPage int                         `json:"currentPage"`
	TotalPages  int                         `json:"totalPages"`
}

// List は検索条件に一致する請求書を返す。
// GET /learning/dashboard/invoices?query=&page=1
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	page := queryInt(r, "page", 1)

	count, err := h.invoices.CountFiltered(r.Context(), query)
	if err != nil {
		writeDatabaseError(w, "count invoices", err)
		return
	}
	invoices, err := h.invoices.ListFiltered(r.Context(), query, dashboardPageSize, (page-1)*dashboardPageSize)
	if err != nil {
		writeDatabaseError(w, "list invoices", err)
		return
	}
	if invoices == nil {
		invoices = []model.InvoiceWithCustomer{}
	}

	middleware.WriteJSON(w, http.StatusOK, invoiceListResponse{
		Invoices:    invoices,
		Query:       query,
		CurrentPage: page,
		TotalPages:  totalPages(count, dashboardPageSize),
	})
}

// CreatePage は請求書作成フォームの選択肢（全顧客）を返す。
// GET /learning/dashboard/invoices/create
func (h *InvoiceHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	customers, err := h.allCustomers(r)
	if err != nil {
		writeDatabaseError(w, "list customers", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// Create は請求書を作成し、請求書一覧へ303で遷移する。
// POST /learning/dashboard/invoices/create
// 金額はドルで受け取りセント単位で保存する。日付は当日（UTC）。
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input, errs, ok := h.readInvoice(w, r)
	if !ok {
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, invoiceFormData(r), errs, "Missing Fields. Failed to Create Invoice.")
		return
	}

	invoice := &model.Invoice{
		CustomerID: input.CustomerID,
		Amount:     toCents(input.Amount),
		Status:     model.InvoiceStatus(input.Status),
		Date:       h.now().UTC().Format(time.DateOnly),
	}
	if err := h.invoices.Create(r.Context(), invoice); err != nil {
		writeDatabaseError(w, "create invoice", err)
		return
	}

	seeOther(w, r, invoicesPath)
}

// EditPage は請求書編集フォームの初期状態と顧客の選択肢を返す。
// GET /learning/dashboard/invoices/{id}/edit
func (h *InvoiceHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	invoice, err := h.invoices.FindByID(r.Context(), id)
	if err != nil {
		writeDatabaseError(w, "find invoice", err)
		return
	}
	if invoice == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewInvoiceNotFoundError(id))
		return
	}

	customers, err := h.allCustomers(r)
	if err != nil {
		writeDatabaseError(w, "list customers", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"invoice":   invoice,
		"customers": customers,
	})
}

// Update は請求書の顧客・金額・状態を更新し、請求書一覧へ303で遷移する。
// POST /learning/dashboard/invoices/{id}/edit
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	id := chi.URLParam(r, "id")

	input, errs, ok := h.readInvoice(w, r)
	if !ok {
		return
	}
	if errs != nil {
		data := invoiceFormData(r)
		data["id"] = id
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Update Invoice.")
		return
	}

	existing, err := h.invoices.FindByID(r.Context(), id)
	if err != nil {
		writeDatabaseError(w, "find invoice", err)
		return
	}
	if existing == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewInvoiceNotFoundError(id))
		return
	}

	existing.CustomerID = input.CustomerID
	existing.Amount = toCents(input.Amount)
	existing.Status = model.InvoiceStatus(input.Status)
	if err := h.invoices.Update(r.Context(), existing); err != nil {
		writeDatabaseError(w, "update invoice", err)
		return
	}

	seeOther(w, r, invoicesPath)
}

// Delete は請求書を削除し、請求書一覧へ303で遷移する。
// POST /learning/dashboard/invoices/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		writeFormState(w, http.StatusUnprocessableEntity, form.Values(r, "id"), errs, "Missing Fields. Failed to Delete Invoice.")
		return
	}

	if err := h.invoices.Delete(r.Context(), input.ID); err != nil {
		writeDatabaseError(w, "delete invoice", err)
		return
	}

	seeOther(w, r, invoicesPath)
}

// readInvoice はフォームの請求書入力を検証する。
// 数値として解釈できない金額は0として扱い、金額のエラーにする。
func (h *InvoiceHandler) readInvoice(w http.ResponseWriter, r *http.Request) (form.Invoice, form.FieldErrors, bool) {
	amount, err := strconv.ParseFloat(r.PostFormValue("amount"), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	input := form.Invoice{
		CustomerID: r.PostFormValue("customerId"),
		Amount:     amount,
		Status:     r.PostFormValue("status"),
	}

	errs, err := h.validator.Check(input, form.InvoiceMessages)
	if err != nil {
		slog.Error("invoice validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return input, nil, false
	}
	return input, errs, true
}

func (h *InvoiceHandler) allCustomers(r *http.Request) ([]model.Customer, error) {
	customers, err := h.customers.ListAll(r.Context())
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return customers, nil
}

func invoiceFormData(r *http.Request) map[string]string {
	return form.Values(r, "customerId", "amount", "status")
}

// toCents はドル金額をセント単位に変換する。
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// writeDatabaseError はDB操作の失敗をログに記録し、500を書き込む。
func writeDatabaseError(w http.ResponseWriter, op string, err error) {
	slog.Error("database operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewDatabaseError())
}
