package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tinyJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func shortDelays(t *testing.T) {
	t.Helper()
	orig := fetchDelays
	fetchDelays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { fetchDelays = orig })
}

func TestFetchSucceedsOnFinalAttempt(t *testing.T) {
	shortDelays(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 4 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(tinyJPEG)
	}))
	defer srv.Close()

	data, err := fetchValidatedImage(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, tinyJPEG, data)
	assert.Equal(t, 4, calls)
}

func TestFetchRejectsNonImagePayload(t *testing.T) {
	shortDelays(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>bucket not found</html>"))
	}))
	defer srv.Close()

	_, err := fetchValidatedImage(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JPEG or PNG")
}

func TestFetchStopsWhenContextCancelled(t *testing.T) {
	orig := fetchDelays
	fetchDelays = []time.Duration{0, time.Minute}
	t.Cleanup(func() { fetchDelays = orig })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := fetchValidatedImage(ctx, srv.Client(), srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImageSignatures(t *testing.T) {
	assert.True(t, looksLikeImage([]byte{0xFF, 0xD8, 0xFF, 0x00}))
	assert.True(t, looksLikeImage([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}))
	assert.False(t, looksLikeImage([]byte("GIF89a")))
	assert.False(t, looksLikeImage(nil))
}
