package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/orderflow"
)

type fakeTelegram struct {
	sent    []tgbotapi.Chattable
	failFor int
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.failFor > 0 {
		f.failFor--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	return tgbotapi.Message{}, nil
}

func testOperator(tg telegramSender) *Operator {
	return &Operator{
		tg:      tg,
		chatID:  1234,
		client:  &http.Client{Timeout: time.Second},
		logger:  zap.NewNop(),
		enabled: true,
	}
}

func placedTestOrder() *entity.Order {
	return &entity.Order{
		ID:          9,
		DisplayCode: "KF-7Q2M",
		Status:      string(orderflow.StatusPlaced),
		TotalAmount: decimal.RequireFromString("540.00"),
	}
}

func TestNewOrderWithValidProofSendsPhotoBytes(t *testing.T) {
	shortDelays(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(tinyJPEG)
	}))
	defer srv.Close()

	tg := &fakeTelegram{}
	op := testOperator(tg)

	order := placedTestOrder()
	order.PaymentProofURL = srv.URL

	op.NotifyNewOrder(context.Background(), order, nil, nil)

	require.Len(t, tg.sent, 1)
	photo, ok := tg.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok, "expected a photo message")
	_, isBytes := photo.File.(tgbotapi.FileBytes)
	assert.True(t, isBytes, "photo should carry downloaded bytes")
	assert.Contains(t, photo.Caption, "KF-7Q2M")
}

func TestNewOrderFallsBackToURLThenText(t *testing.T) {
	shortDelays(t)
	origRetry := sendRetryDelay
	sendRetryDelay = time.Millisecond
	t.Cleanup(func() { sendRetryDelay = origRetry })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Every Telegram send fails, so after the URL-photo fallback is
	// exhausted the text fallback runs too.
	tg := &fakeTelegram{failFor: sendAttempts * 2}
	op := testOperator(tg)

	order := placedTestOrder()
	order.PaymentProofURL = srv.URL

	op.NotifyNewOrder(context.Background(), order, nil, nil)

	require.Len(t, tg.sent, sendAttempts*2+sendAttempts)
	_, isPhoto := tg.sent[0].(tgbotapi.PhotoConfig)
	assert.True(t, isPhoto)
	last, isText := tg.sent[len(tg.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, isText, "final fallback should be plain text")
	assert.Contains(t, last.Text, "KF-7Q2M")
}

func TestNewOrderWithoutProofSendsText(t *testing.T) {
	tg := &fakeTelegram{}
	op := testOperator(tg)

	customer := &entity.Profile{FullName: "Abebe B.", PhoneNumber: "+251911000000"}
	items := []entity.OrderItem{{Title: "Special Burger", Quantity: 2}}

	op.NotifyNewOrder(context.Background(), placedTestOrder(), items, customer)

	require.Len(t, tg.sent, 1)
	msg, ok := tg.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "2x Special Burger")
	assert.Contains(t, msg.Text, "Abebe B.")
	assert.Contains(t, msg.Text, "540.00")
}

func TestDisabledOperatorIsSilent(t *testing.T) {
	tg := &fakeTelegram{}
	op := testOperator(tg)
	op.enabled = false

	op.NotifyNewOrder(context.Background(), placedTestOrder(), nil, nil)
	op.NotifyCancellation(placedTestOrder())
	op.Alert("hello")

	assert.Empty(t, tg.sent)
}

func TestKeyboardMatchesStatus(t *testing.T) {
	order := placedTestOrder()
	kb := KeyboardForStatus(order)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "accept_9", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject_9", *kb.InlineKeyboard[0][1].CallbackData)

	order.Status = string(orderflow.StatusPreparing)
	kb = KeyboardForStatus(order)
	assert.Equal(t, "status_9_ready", *kb.InlineKeyboard[0][0].CallbackData)
}
