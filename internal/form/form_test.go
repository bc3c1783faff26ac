package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Check_Valid(t *testing.T) {
	v := NewValidator()

	errs, err := v.Check(Login{Email: "user@example.com", Password: "secret1"}, LoginMessages)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestValidator_Check_Login(t *testing.T) {
	v := NewValidator()

	errs, err := v.Check(Login{Email: "not-an-email", Password: "12345"}, LoginMessages)
	require.NoError(t, err)
	assert.Equal(t, FieldErrors{
		"email":    {"Please enter a valid email."},
		"password": {"Password must be at least 6 characters."},
	}, errs)
}

func TestValidator_Check_Invoice(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		input Invoice
		want  FieldErrors
	}{
		{
			name:  "すべて未入力",
			input: Invoice{},
			want: FieldErrors{
				"customerId": {"Please select a customer."},
				"amount":     {"Please enter an amount greater than $0."},
				"status":     {"Please select an invoice status."},
			},
		},
		{
			name:  "負の金額",
			input: Invoice{CustomerID: "c1", Amount: -1, Status: "paid"},
			want:  FieldErrors{"amount": {"Please enter an amount greater than $0."}},
		},
		{
			name:  "上限超過",
			input: Invoice{CustomerID: "c1", Amount: 1e17, Status: "paid"},
			want:  FieldErrors{"amount": {"Please enter an amount no more than $1,000,000,000."}},
		},
		{
			name:  "上限ちょうど",
			input: Invoice{CustomerID: "c1", Amount: MaxInvoiceAmount, Status: "paid"},
			want:  nil,
		},
		{
			name:  "不正な状態",
			input: Invoice{CustomerID: "c1", Amount: 10, Status: "overdue"},
			want:  FieldErrors{"status": {"Please select an invoice status."}},
		},
		{
			name:  "正常",
			input: Invoice{CustomerID: "c1", Amount: 0.5, Status: "pending"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Check(tt.input, InvoiceMessages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestValidator_Check_ArticleFile(t *testing.T) {
	v := NewValidator()

	errs, err := v.Check(ArticleFile{FileID: 1, Key: "uploads/a.mp4", Role: "videos"}, ArticleFileMessages)
	require.NoError(t, err)
	assert.Nil(t, errs)

	errs, err = v.Check(ArticleFile{Role: "images"}, ArticleFileMessages)
	require.NoError(t, err)
	assert.Equal(t, FieldErrors{
		"fileId": {"Please upload a file."},
		"key":    {"Please upload a file."},
		"role":   {"Invalid file role."},
	}, errs)
}

func TestValidator_Check_TagSpecificMessage(t *testing.T) {
	v := NewValidator()
	msgs := Messages{
		"email":          "Please enter a valid email.",
		"email.required": "Email is required.",
	}

	errs, err := v.Check(Customer{Name: "n"}, msgs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Email is required."}, errs["email"])
}

func TestValidator_Check_FallbackMessage(t *testing.T) {
	v := NewValidator()

	errs, err := v.Check(DeleteArticle{}, Messages{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid value."}, errs["slug"])
}

func TestValidator_Check_NonStruct(t *testing.T) {
	v := NewValidator()

	_, err := v.Check("not a struct", nil)
	assert.Error(t, err)
}

func TestValues(t *testing.T) {
	body := url.Values{"email": {"user@example.com"}, "password": {"secret"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got := Values(r, "email", "redirectTo")
	assert.Equal(t, map[string]string{"email": "user@example.com", "redirectTo": ""}, got)
	assert.NotContains(t, got, "password")
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web dev", "chi"}, SplitTags(" go, web dev ,,chi, "))
	assert.Equal(t, []string{}, SplitTags(""))
}
