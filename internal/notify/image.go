package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchDelays are the waits before each download attempt; the first attempt
// fires immediately.
var fetchDelays = []time.Duration{0, time.Second, 2 * time.Second, 4 * time.Second}

// maxImageBytes caps downloads; Telegram rejects photos above 10 MB anyway.
const maxImageBytes = 10 << 20

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// looksLikeImage reports whether the payload starts with a JPEG or PNG
// signature. Storage URLs occasionally serve an HTML error page with a 200
// status, which this filters out.
func looksLikeImage(b []byte) bool {
	return bytes.HasPrefix(b, jpegMagic) || bytes.HasPrefix(b, pngMagic)
}

// fetchValidatedImage downloads the image with escalating retry delays and
// returns its bytes only if the payload is a real JPEG or PNG.
func fetchValidatedImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	var lastErr error
	for attempt, delay := range fetchDelays {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := fetchOnce(ctx, client, url)
		if err == nil {
			return data, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	if !looksLikeImage(data) {
		return nil, errors.New("payload is not a JPEG or PNG image")
	}
	return data, nil
}
