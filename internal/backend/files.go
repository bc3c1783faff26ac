package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// UploadRequest はバックエンドに署名付きアップロードURLを要求する内容。
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Checksum    string `json:"checksum"`
	Size        int64  `json:"size"`
}

// RequestUploadURL はバックエンドから署名付きアップロードURLを取得する。
// POST /files/presigned-url
// 応答は形式を解釈せずにそのまま返す。
func (c *Client) RequestUploadURL(ctx context.Context, accessToken string, req UploadRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, "presigned_url", http.MethodPost, "/files/presigned-url", accessToken, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
