package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/archive-export/pkg/config"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
)

func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv(config.EnvAPIToken, "cli-token")
	t.Setenv(config.EnvRegion, "eu")
	t.Setenv(config.EnvRegionEUURL, baseURL)
	t.Setenv(config.EnvLogFormat, "json")
	for _, key := range []string{config.EnvRedisURL, config.EnvGCSBucket, config.EnvMetricsTextfile} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRunWithoutCategoriesIsUsage(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	setEnv(t, srv.URL)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(nil, stdout, stderr)

	assert.Equal(t, pkgerrors.ExitUsage, code)
	assert.Contains(t, stderr.String(), "usage: archive-export")
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestRunFutureDatePrintsAndMakesNoCalls(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	setEnv(t, srv.URL)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run([]string{"eu", "2099-01-01", "feedback"}, stdout, stderr)

	assert.Equal(t, pkgerrors.ExitFatal, code)
	assert.Equal(t, "Invalid Date, please input a date atleast yesterday\n", stdout.String())
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestRunBadFlagIsUsage(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	setEnv(t, srv.URL)

	code := run([]string{"-max-pages", "0", "feedback"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, pkgerrors.ExitUsage, code)
}

func TestRunMissingTokenIsFatal(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	setEnv(t, srv.URL)
	require.NoError(t, os.Unsetenv(config.EnvAPIToken))

	code := run([]string{"feedback"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, pkgerrors.ExitFatal, code)
}

func TestRunExportsFeedback(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "api-token cli-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/store":
			_, _ = w.Write([]byte(`{"data":[{"id":3,"group":"retail"}]}`))
		case "/v2/archive/feedback":
			_, _ = w.Write([]byte(`{"metadata":{"code":200},"data":{"values":[{"id":"x","rating":4}],"next":null,"hasMore":false}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	setEnv(t, srv.URL)
	out := t.TempDir()

	date := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	stdout := &bytes.Buffer{}
	code := run([]string{"-out", out, date, "feedback"}, stdout, &bytes.Buffer{})

	require.Equal(t, pkgerrors.ExitOK, code)
	assert.Equal(t, "Date Specified: "+date+"\nFetching store 3\nfeedback done\n", stdout.String())

	raw, err := os.ReadFile(filepath.Join(out, "feedback.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, []string{"id,shopperName,rating,storeId,deviceRating,createdAt", "x,,4,,,"}, lines)
}

func TestRunPartialExitCode(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/store":
			_, _ = w.Write([]byte(`{"data":[{"id":3}]}`))
		default:
			_, _ = w.Write([]byte(`{"metadata":{"code":503,"message":"maintenance"}}`))
		}
	})
	setEnv(t, srv.URL)

	code := run([]string{"-out", t.TempDir(), "shopper"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, pkgerrors.ExitPartial, code)
}
