package ics

import (
	"context"
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

	apperr "icsconv/internal/errors"
)

func TestLoaderRevalidatesWithCache(t *testing.T) {
	t.Parallel()

	const body = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	var hits, conditional atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	l := NewLoader(t.TempDir(), time.Second)
	url := srv.URL + "/private/token.ics"

	got, err := l.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	got, err = l.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), conditional.Load())
}

func TestLoaderFallsBackToCacheOnServerError(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("cached"))
	}))
	defer srv.Close()

	l := NewLoader(t.TempDir(), time.Second)
	_, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)

	fail.Store(true)
	got, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(got))

	// without a cache the failure surfaces as a source error
	_, err = NewLoader("", time.Second).Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSource))
	assert.NotContains(t, err.Error(), "token")
}

func TestLoaderFileAndStdin(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.ics")
	require.NoError(t, os.WriteFile(path, []byte("file body"), 0o600))

	l := NewLoader("", 0)
	got, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(got))

	l.stdin = strings.NewReader("stdin body")
	got, err = l.Load(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, "stdin body", string(got))

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.ics"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSource))
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://calendar.example.com/...(redacted)",
		redactURL("https://calendar.example.com/owa/calendar/secret/reachcalendar.ics"))
	assert.Equal(t, "https://host/...(redacted)", redactURL("https://host?key=1"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
	assert.True(t, IsRemote("HTTPS://x"))
	assert.True(t, IsStdio("STDIN"))
	assert.False(t, IsStdio("file.ics"))
}
