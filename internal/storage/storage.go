// Package storage はS3互換オブジェクトストレージの署名付きURL発行と削除を提供する。
// aws-sdk-go-v2/service/s3 をimportするのはこのパッケージのみ。
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadPrefix はアップロードされたオブジェクトのキーの接頭辞。
const UploadPrefix = "uploads/"

// ErrBucketNotConfigured はバケット名が設定されていない場合のエラー。
var ErrBucketNotConfigured = errors.New("storage: bucket is not configured")

// Config はオブジェクトストレージの接続設定。
type Config struct {
	Bucket string
	Region string

	// Endpoint はLocalStackやMinIOなどのエンドポイント。
	// 設定した場合はパス形式のURLを使用する。
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	UploadTTL time.Duration
	ViewTTL   time.Duration
}

// Recorder は署名付きURLの発行を記録するインターフェース。
type Recorder interface {
	RecordPresignedURL(kind string)
}

// PresignedURL は発行した署名付きURLとオブジェクトキー。
type PresignedURL struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Method string `json:"-"`
}

// Presigner はS3の署名付きURLを発行する。
type Presigner struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	uploadTTL time.Duration
	viewTTL   time.Duration
	recorder  Recorder
}

// NewPresigner はConfigからPresignerを生成する。
// Endpointが設定されている場合、認証情報が未指定ならLocalStack用の固定値を使う。
func NewPresigner(ctx context.Context, cfg Config, recorder Recorder) (*Presigner, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	accessKey, secretKey := cfg.AccessKeyID, cfg.SecretAccessKey
	if accessKey == "" && cfg.Endpoint != "" {
		accessKey, secretKey = "test", "test"
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	uploadTTL, viewTTL := cfg.UploadTTL, cfg.ViewTTL
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	if viewTTL <= 0 {
		viewTTL = time.Hour
	}

	return &Presigner{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		uploadTTL: uploadTTL,
		viewTTL:   viewTTL,
		recorder:  recorder,
	}, nil
}

// NewObjectKey はファイル名の拡張子を保ったまま一意なオブジェクトキーを生成する。
// 例: "photo.png" → "uploads/<uuid>.png"
func NewObjectKey(fileName string) string {
	return UploadPrefix + uuid.NewString() + path.Ext(fileName)
}

// IsObjectKey は画像参照がストレージのオブジェクトキーかどうかを判定する。
// "/customers/..." のような静的パスはfalse。
func IsObjectKey(ref string) bool {
	return strings.HasPrefix(ref, UploadPrefix)
}

// PresignUpload はPUT用の署名付きURLを発行する。
// Content-Typeと（sizeが正の場合）Content-Lengthを署名に含め、アップロード内容を固定する。
func (p *Presigner) PresignUpload(ctx context.Context, fileName string, size int64, contentType string) (*PresignedURL, error) {
	key := NewObjectKey(fileName)

	in := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	req, err := p.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(p.uploadTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}
	p.record("upload")

	return &PresignedURL{URL: req.URL, Key: key, Method: req.Method}, nil
}

// PresignView はGET用の署名付きURLを発行する。keyが空の場合は空文字列を返す。
func (p *Presigner) PresignView(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.viewTTL))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	p.record("view")

	return req.URL, nil
}

// Delete はオブジェクトを削除する。keyが空の場合は何もしない。
func (p *Presigner) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (p *Presigner) record(kind string) {
	if p.recorder != nil {
		p.recorder.RecordPresignedURL(kind)
	}
}
