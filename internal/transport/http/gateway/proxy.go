package gateway

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/presentation/http/response"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

// allowedPrefixes lists the only upstream paths the proxy will relay.
// Everything else is refused before a byte leaves the gateway.
var allowedPrefixes = []string{
	"rest/v1/",
	"auth/v1/",
	"storage/v1/",
}

// placeholderBearer is what app builds shipped without a baked-in key send;
// the proxy swaps it for the real anon key.
const placeholderBearer = "Bearer zero-key-mode"

// passthroughHeaders are relayed from client to upstream verbatim.
var passthroughHeaders = []string{
	"Content-Type",
	"Prefer",
	"Range",
	"Accept",
	"Accept-Profile",
	"Content-Profile",
}

// proxy relays a request to the backing data platform, injecting the API
// key so it never ships inside the app binary.
func (h *Handler) proxy(c echo.Context) error {
	target := c.Param("*")
	if !pathAllowed(target) {
		return response.New(c).WithError(errorbank.Forbidden("path not allowed")).Build()
	}

	upstream := strings.TrimSuffix(h.cfg.Supabase.URL, "/") + "/" + target
	if q := c.QueryString(); q != "" {
		upstream += "?" + q
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), c.Request().Method, upstream, c.Request().Body)
	if err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid proxy request", errorbank.WithCause(err))).Build()
	}

	for _, name := range passthroughHeaders {
		if v := c.Request().Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set("apikey", h.cfg.Supabase.AnonKey)

	auth := c.Request().Header.Get("Authorization")
	if auth == "" || auth == placeholderBearer {
		auth = "Bearer " + h.cfg.Supabase.AnonKey
	}
	req.Header.Set("Authorization", auth)

	// Storage uploads overwrite in place rather than erroring on conflict.
	if strings.HasPrefix(target, "storage/v1/") && c.Request().Method == http.MethodPut {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("proxy upstream failed", zap.String("path", target), zap.Error(err))
		return response.New(c).WithError(errorbank.Internal("upstream request failed", errorbank.WithCause(err))).Build()
	}
	defer resp.Body.Close()

	for _, name := range []string{"Content-Type", "Content-Range", "Content-Disposition", "Cache-Control"} {
		if v := resp.Header.Get(name); v != "" {
			c.Response().Header().Set(name, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)
	_, err = io.Copy(c.Response().Writer, resp.Body)
	return err
}

func pathAllowed(target string) bool {
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}
