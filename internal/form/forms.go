package form

// Login はログインフォーム。
type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// LoginMessages はログインフォームのエラーメッセージ。
var LoginMessages = Messages{
	"email":    "Please enter a valid email.",
	"password": "Password must be at least 6 characters.",
}

// Register はユーザー登録フォーム。
type Register struct {
	Username string `form:"username" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// RegisterMessages はユーザー登録フォームのエラーメッセージ。
var RegisterMessages = Messages{
	"username": "Please enter a username.",
	"email":    "Please enter a valid email.",
	"password": "Password must be at least 6 characters.",
}

// Article は記事の作成・編集フォーム。TagListはカンマ区切り。
type Article struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	Body        string `form:"body" validate:"required"`
	TagList     string `form:"tagList"`
}

// ArticleMessages は記事フォームのエラーメッセージ。
var ArticleMessages = Messages{
	"title":       "Please enter a title.",
	"description": "Please enter a description.",
	"body":        "Please enter the body content.",
}

// ArticleFile は記事へのファイル添付フォーム。
type ArticleFile struct {
	FileID int    `form:"fileId" validate:"gt=0"`
	Key    string `form:"key" validate:"required"`
	Role   string `form:"role" validate:"oneof=videos"`
}

// ArticleFileMessages は添付フォームのエラーメッセージ。
var ArticleFileMessages = Messages{
	"fileId": "Please upload a file.",
	"key":    "Please upload a file.",
	"role":   "Invalid file role.",
}

// DeleteArticle は管理画面の記事削除フォーム。
type DeleteArticle struct {
	Slug string `form:"slug" validate:"required"`
}

// DeleteArticleMessages は記事削除フォームのエラーメッセージ。
var DeleteArticleMessages = Messages{
	"slug": "Please select an article.",
}

// MaxInvoiceAmount は請求金額（ドル）の上限。セント換算でint64に収まる範囲に抑える。
const MaxInvoiceAmount = 1_000_000_000

// Invoice は請求書の作成・編集フォーム。Amountはドル単位。
type Invoice struct {
	CustomerID string  `form:"customerId" validate:"required"`
	Amount     float64 `form:"amount" validate:"gt=0,lte=1000000000"`
	Status     string  `form:"status" validate:"oneof=pending paid"`
}

// InvoiceMessages は請求書フォームのエラーメッセージ。
var InvoiceMessages = Messages{
	"customerId": "Please select a customer.",
	"amount":     "Please enter an amount greater than $0.",
	"amount.lte": "Please enter an amount no more than $1,000,000,000.",
	"status":     "Please select an invoice status.",
}

// Customer は顧客作成フォーム。ImageKeyはアップロード済みオブジェクトのキー。
type Customer struct {
	Name     string `form:"name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	ImageKey string `form:"image_key"`
}

// CustomerMessages は顧客フォームのエラーメッセージ。
var CustomerMessages = Messages{
	"name":  "Please enter a name.",
	"email": "Please enter a valid email.",
}

// DeleteByID はID指定の削除フォーム。
type DeleteByID struct {
	ID string `form:"id" validate:"required"`
}

// DeleteByIDMessages は削除フォームのエラーメッセージ。
var DeleteByIDMessages = Messages{
	"id": "Missing ID.",
}
