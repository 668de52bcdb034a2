package net

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestPrintHTTPResponse_Nil(t *testing.T) {
	// should not panic
	PrintHTTPResponse(nil)
}

func TestPrintHTTPResponse_WithResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
	// should not panic
	PrintHTTPResponse(resp)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/run.yaml":
			assert.Equal(t, clientAgent, r.Header.Get("User-Agent"))
			fmt.Fprint(w, "id: run-1\n")
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, Download(ctx, srv.URL+"/run.yaml", path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id: run-1\n", string(b))

	err = Download(ctx, srv.URL+"/missing", filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrorURLNotFound)
	_, err = os.Stat(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = Download(ctx, srv.URL+"/broken", filepath.Join(dir, "broken"))
	assert.Error(t, err)
}

func TestDownload_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Download(ctx, srv.URL, filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, context.Canceled)
}
