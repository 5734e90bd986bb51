package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/presentation/http/response"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

// crashAlertThresholds are the recurrence counts at which a known crash
// cluster is escalated again; a brand-new cluster always alerts.
var crashAlertThresholds = map[int]bool{10: true, 50: true, 100: true, 500: true, 1000: true}

// botUpdate feeds a Telegram webhook delivery into the bot router. Telegram
// retries on non-2xx, so the handler always acknowledges.
func (h *Handler) botUpdate(c echo.Context) error {
	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		h.logger.Warn("undecodable bot update", zap.Error(err))
		return c.NoContent(http.StatusNoContent)
	}
	if h.bot != nil {
		h.bot.HandleUpdate(c.Request().Context(), update)
	}
	return c.NoContent(http.StatusOK)
}

// placeOrder runs the atomic placement procedure.
func (h *Handler) placeOrder(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Order json.RawMessage `json:"order"`
		Items json.RawMessage `json:"items"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	result, err := h.placer.Place(c.Request().Context(), payload.Order, payload.Items)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(result).Build()
}

func (h *Handler) submitReview(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		UserID   string `json:"user_id"`
		OrderID  int64  `json:"order_id"`
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
		FullName string `json:"full_name"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		return b.WithError(errorbank.BadRequest("rating must be between 1 and 5")).Build()
	}

	rev := &entity.Review{
		UserID:   payload.UserID,
		OrderID:  payload.OrderID,
		Rating:   payload.Rating,
		Comment:  payload.Comment,
		FullName: payload.FullName,
	}
	if err := h.reviews.Insert(c.Request().Context(), rev); err != nil {
		return b.WithError(errorbank.Internal("failed to store review", errorbank.WithCause(err))).Build()
	}

	name := payload.FullName
	if name == "" {
		name = "Anonymous"
	}
	h.alerter.Alert(fmt.Sprintf("⭐ New review from %s: %s\n%s",
		name, strings.Repeat("⭐", payload.Rating), payload.Comment))

	return b.WithStatus(http.StatusCreated).WithData(rev).Build()
}

func (h *Handler) listReviews(c echo.Context) error {
	b := response.New(c)

	reviews, err := h.reviews.ListRecent(c.Request().Context(), 20)
	if err != nil {
		return b.WithError(errorbank.Internal("failed to load reviews", errorbank.WithCause(err))).Build()
	}
	return b.WithData(reviews).Build()
}

// remind lets the app nudge a user about a pending order.
func (h *Handler) remind(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		UserID  string `json:"user_id"`
		Title   string `json:"title"`
		Body    string `json:"body"`
		OrderID string `json:"order_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.UserID == "" {
		return b.WithError(errorbank.BadRequest("user_id is required")).Build()
	}
	if payload.Title == "" {
		payload.Title = "⏰ Order Reminder"
	}
	if payload.Body == "" {
		payload.Body = "You have an order waiting for your attention."
	}

	data := map[string]string{"type": "reminder"}
	if payload.OrderID != "" {
		data["order_id"] = payload.OrderID
	}
	h.pusher.PushToUser(c.Request().Context(), payload.UserID, payload.Title, payload.Body, data)

	return b.WithData(map[string]bool{"sent": true}).Build()
}

// recordCrash ingests one crash report, folds it into its cluster and
// escalates to the operator on the cluster's first occurrence and again at
// the recurrence thresholds.
func (h *Handler) recordCrash(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		UserID       string `json:"user_id"`
		ErrorMessage string `json:"error_message"`
		ErrorStack   string `json:"error_stack"`
		DeviceModel  string `json:"device_model"`
		OSVersion    string `json:"os_version"`
		AppVersion   string `json:"app_version"`
		AppType      string `json:"app_type"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.ErrorMessage == "" {
		return b.WithError(errorbank.BadRequest("error_message is required")).Build()
	}
	if payload.AppType == "" {
		payload.AppType = "customer"
	}

	cluster, err := h.crashes.Record(c.Request().Context(), entity.CrashLog{
		UserID:       payload.UserID,
		ErrorMessage: payload.ErrorMessage,
		ErrorStack:   payload.ErrorStack,
		DeviceModel:  payload.DeviceModel,
		OSVersion:    payload.OSVersion,
		AppVersion:   payload.AppVersion,
		AppType:      payload.AppType,
		LogHash:      crashFingerprint(payload.ErrorMessage, payload.ErrorStack),
	})
	if err != nil {
		return b.WithError(errorbank.Internal("failed to record crash", errorbank.WithCause(err))).Build()
	}

	switch {
	case cluster.Count == 1:
		h.alerter.Alert(fmt.Sprintf("🆕 New crash in %s app:\n%s",
			cluster.AppType, cluster.ErrorMessage))
	case crashAlertThresholds[cluster.Count]:
		h.alerter.Alert(fmt.Sprintf("🚨 Crash in %s app hit %d occurrences:\n%s",
			cluster.AppType, cluster.Count, cluster.ErrorMessage))
	}

	return b.WithData(map[string]any{"count": cluster.Count}).Build()
}

// crashFingerprint hashes the message plus the top stack frame, so the same
// failure from different devices lands in one cluster.
func crashFingerprint(message, stack string) string {
	top := stack
	if i := strings.IndexByte(stack, '\n'); i >= 0 {
		top = stack[:i]
	}
	sum := sha256.Sum256([]byte(message + "|" + top))
	return hex.EncodeToString(sum[:])
}

// realtimeConfig hands the app the connection details for live updates.
func (h *Handler) realtimeConfig(c echo.Context) error {
	return response.New(c).WithData(map[string]string{
		"url":      h.cfg.Supabase.URL,
		"anon_key": h.cfg.Supabase.AnonKey,
	}).Build()
}
