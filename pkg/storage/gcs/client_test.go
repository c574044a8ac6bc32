package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/archive-export/pkg/config"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func staticTokens(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func newTestClient(hc *http.Client) *Client {
	return &Client{
		httpClient:  hc,
		baseURL:     "https://storage.test",
		bucket:      "exports",
		prefix:      "archive-export",
		tokenSource: staticTokens("tok"),
	}
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestObjectName(t *testing.T) {
	c := newTestClient(nil)
	assert.Equal(t, "archive-export/2024-03-01/item.csv", c.ObjectName("2024-03-01", "/tmp/out/item.csv"))

	c.prefix = ""
	assert.Equal(t, "2024-03-01/item.csv", c.ObjectName("2024-03-01", "item.csv"))
}

func TestUploadFileSendsMediaUpload(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "feedback.csv")
	require.NoError(t, os.WriteFile(local, []byte("id\n1\n"), 0o644))

	var seen *http.Request
	var body string
	c := newTestClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		seen = req
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
		return textResponse(http.StatusOK, `{"name":"ok"}`)
	})})

	uri, err := c.UploadFile(context.Background(), "2024-03-01", local)
	require.NoError(t, err)
	assert.Equal(t, "gs://exports/archive-export/2024-03-01/feedback.csv", uri)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/upload/storage/v1/b/exports/o", seen.URL.Path)
	assert.Equal(t, "media", seen.URL.Query().Get("uploadType"))
	assert.Equal(t, "archive-export/2024-03-01/feedback.csv", seen.URL.Query().Get("name"))
	assert.Equal(t, "Bearer tok", seen.Header.Get("Authorization"))
	assert.Equal(t, csvContentType, seen.Header.Get("Content-Type"))
	assert.Equal(t, "id\n1\n", body)
}

func TestUploadFailureIncludesStatusBody(t *testing.T) {
	c := newTestClient(&http.Client{Transport: roundTripFunc(func(*http.Request) *http.Response {
		return textResponse(http.StatusForbidden, "permission denied")
	})})

	err := c.Upload(context.Background(), "a/b.csv", strings.NewReader("x"), csvContentType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	err = c.Upload(context.Background(), "", strings.NewReader("x"), csvContentType)
	assert.Error(t, err)
}

func TestUploadFileMissingLocal(t *testing.T) {
	c := newTestClient(&http.Client{})
	_, err := c.UploadFile(context.Background(), "2024-03-01", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	c := newTestClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
		assert.Equal(t, "/storage/v1/b/exports/o", req.URL.Path)
		assert.Equal(t, "1", req.URL.Query().Get("maxResults"))
		return textResponse(http.StatusOK, `{}`)
	})})
	require.NoError(t, c.Ping(context.Background()))

	c = newTestClient(&http.Client{Transport: roundTripFunc(func(*http.Request) *http.Response {
		return textResponse(http.StatusNotFound, "")
	})})
	assert.Error(t, c.Ping(context.Background()))

	var nilClient *Client
	assert.Error(t, nilClient.Ping(context.Background()))
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var calls int32
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return "t", time.Now().Add(time.Hour), nil
	}}
	for i := 0; i < 3; i++ {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "t", tok)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewClientWithServiceAccount(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	var assertion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			_ = r.ParseForm()
			assertion = r.PostForm.Get("assertion")
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "sa-token", "expires_in": 3600})
		case r.URL.Path == "/storage/v1/b/exports/o":
			if r.Header.Get("Authorization") != "Bearer sa-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"items":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "exporter@project.iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
		"token_uri":    srv.URL + "/token",
	})
	require.NoError(t, err)

	client, err := NewClient(
		context.Background(),
		config.GCSConfig{BucketName: "exports", ObjectPrefix: "/archive-export/"},
		config.GCPConfig{CredentialsJSON: string(creds)},
		nil,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	assert.Equal(t, "exports", client.Bucket())
	assert.Equal(t, "archive-export", client.prefix)

	parsed, err := jwt.ParseWithClaims(assertion, &assertionClaims{}, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(*assertionClaims)
	assert.Equal(t, "exporter@project.iam.gserviceaccount.com", claims.Issuer)
	assert.Equal(t, scope, claims.Scope)
	assert.Equal(t, jwt.ClaimStrings{srv.URL + "/token"}, claims.Audience)
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.GCSConfig{BucketName: "b"}, config.GCPConfig{CredentialsJSON: `{"client_email":"x"}`}, nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.GCSConfig{BucketName: "b"}, config.GCPConfig{ApplicationCredentials: "/does/not/exist.json"}, nil)
	assert.Error(t, err)
}
