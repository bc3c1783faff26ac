package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu    sync.Mutex
	kinds []string
}

func (f *fakeRecorder) RecordPresignedURL(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func newTestPresigner(t *testing.T, endpoint string) (*Presigner, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	p, err := NewPresigner(context.Background(), Config{
		Bucket:    "articlehub-test",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		UploadTTL: 15 * time.Minute,
		ViewTTL:   time.Hour,
	}, rec)
	require.NoError(t, err)
	return p, rec
}

var objectKeyPattern = regexp.MustCompile(`^uploads/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[A-Za-z0-9]+)?$`)

func TestNewObjectKey(t *testing.T) {
	tests := []struct {
		fileName string
		wantExt  string
	}{
		{"photo.png", ".png"},
		{"archive.tar.gz", ".gz"},
		{"README", ""},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			key := NewObjectKey(tt.fileName)
			assert.Regexp(t, objectKeyPattern, key)
			assert.True(t, strings.HasSuffix(key, tt.wantExt))
		})
	}

	assert.NotEqual(t, NewObjectKey("a.png"), NewObjectKey("a.png"), "キーは毎回一意であること")
}

func TestIsObjectKey(t *testing.T) {
	assert.True(t, IsObjectKey("uploads/abc.png"))
	assert.False(t, IsObjectKey("/customers/evil-rabbit.png"))
	assert.False(t, IsObjectKey(""))
}

func TestNewPresigner_RequiresBucket(t *testing.T) {
	_, err := NewPresigner(context.Background(), Config{Region: "us-east-1"}, nil)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
}

func TestPresigner_PresignUpload(t *testing.T) {
	p, rec := newTestPresigner(t, "http://localhost:4566")

	signed, err := p.PresignUpload(context.Background(), "avatar.jpg", 1024, "image/jpeg")
	require.NoError(t, err)

	assert.Regexp(t, objectKeyPattern, signed.Key)
	assert.True(t, strings.HasSuffix(signed.Key, ".jpg"))
	assert.Equal(t, http.MethodPut, signed.Method)

	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:4566", u.Host)
	assert.Equal(t, "/articlehub-test/"+signed.Key, u.Path, "エンドポイント指定時はパス形式")

	q := u.Query()
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("X-Amz-SignedHeaders"), "content-type")

	assert.Equal(t, []string{"upload"}, rec.kinds)
}

func TestPresigner_PresignView(t *testing.T) {
	p, rec := newTestPresigner(t, "http://localhost:4566")

	t.Run("空のキー", func(t *testing.T) {
		got, err := p.PresignView(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("署名付きGET URL", func(t *testing.T) {
		got, err := p.PresignView(context.Background(), "uploads/abc.png")
		require.NoError(t, err)

		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "/articlehub-test/uploads/abc.png", u.Path)
		assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	})

	assert.Equal(t, []string{"view"}, rec.kinds, "空のキーは記録しないこと")
}

func TestPresigner_Delete(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p, _ := newTestPresigner(t, server.URL)

	require.NoError(t, p.Delete(context.Background(), ""))
	require.NoError(t, p.Delete(context.Background(), "uploads/abc.png"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"DELETE /articlehub-test/uploads/abc.png"}, seen, "空のキーではリクエストしないこと")
}

func TestPresigner_Delete_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
	}))
	defer server.Close()

	p, _ := newTestPresigner(t, server.URL)

	err := p.Delete(context.Background(), "uploads/abc.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploads/abc.png")
}
