package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<table></table>"))
	}))
	defer srv.Close()

	body, err := NewFetcher(srv.URL, time.Second, 0, discardLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", string(body))
}

func TestFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, time.Second, 0, discardLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewFetcher(srv.URL, time.Second, 2, discardLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, 50*time.Millisecond, 0, discardLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(url, time.Second, 0, discardLogger()).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
}

func TestDecodeWindows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("ул. Ленина, 10")
	require.NoError(t, err)

	got, err := DecodeWindows1251([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, "ул. Ленина, 10", got)

	// D0 B8 is also valid UTF-8 ("и") but must still be read as cp1251.
	got, err = DecodeWindows1251([]byte{0xd0, 0xb8})
	require.NoError(t, err)
	assert.Equal(t, "Рё", got)
}

func TestDecoder(t *testing.T) {
	for _, enc := range []string{"windows-1251", "CP1251", "utf-8", ""} {
		_, err := Decoder(enc)
		assert.NoError(t, err, enc)
	}
	_, err := Decoder("koi8-r")
	assert.Error(t, err)

	_, err = DecodeUTF8([]byte{0xff, 0xfe})
	assert.Error(t, err)
}
