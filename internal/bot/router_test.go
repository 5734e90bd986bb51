package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

const (
	adminID    = int64(777)
	strangerID = int64(1)
	chatID     = int64(900)
)

type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "expected a text message, got %T", f.sent[len(f.sent)-1])
	return msg.Text
}

type fakeMachine struct {
	accepted map[int64]int
	rejected map[int64]string
	err      error
}

func (f *fakeMachine) order(id int64, status string) (*entity.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Order{ID: id, DisplayCode: fmt.Sprintf("KF-%d", id), Status: status}, nil
}

func (f *fakeMachine) Accept(_ context.Context, id int64, eta int) (*entity.Order, error) {
	if f.err == nil {
		if f.accepted == nil {
			f.accepted = map[int64]int{}
		}
		f.accepted[id] = eta
	}
	return f.order(id, "Accepted")
}

func (f *fakeMachine) Reject(_ context.Context, id int64, reason string) (*entity.Order, error) {
	if f.err == nil {
		if f.rejected == nil {
			f.rejected = map[int64]string{}
		}
		f.rejected[id] = reason
	}
	return f.order(id, "Rejected")
}

func (f *fakeMachine) StartPreparing(_ context.Context, id int64) (*entity.Order, error) {
	return f.order(id, "Preparing")
}

func (f *fakeMachine) MarkReady(_ context.Context, id int64) (*entity.Order, error) {
	return f.order(id, "Ready for Pickup")
}

type fakeOrderOps struct {
	queue []entity.Order
}

func (f *fakeOrderOps) Queue(context.Context) ([]entity.Order, error) { return f.queue, nil }

func (f *fakeOrderOps) Details(_ context.Context, id int64) (*entity.Order, []entity.OrderItem, error) {
	return &entity.Order{ID: id, DisplayCode: fmt.Sprintf("KF-%d", id), Status: "Placed"}, nil, nil
}

func (f *fakeOrderOps) Stats(context.Context) (*ordersvc.StatsReport, error) {
	return &ordersvc.StatsReport{TodayOrders: 3, WeekOrders: 12}, nil
}

type fakeLists struct{}

func (fakeLists) ListRecent(context.Context, int) ([]entity.Review, error) { return nil, nil }

type fakeCrashes struct{}

func (fakeCrashes) ListRecent(context.Context, int) ([]entity.CrashLog, error) { return nil, nil }

type fakeCatalog struct {
	items    []*entity.MenuItem
	settings map[string]string
}

func (f *fakeCatalog) ListMenu(context.Context) ([]entity.MenuItem, error) { return nil, nil }

func (f *fakeCatalog) AddMenuItem(_ context.Context, item *entity.MenuItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeCatalog) ListPaymentMethods(context.Context) ([]entity.PaymentMethod, error) {
	return nil, nil
}

func (f *fakeCatalog) PutSetting(_ context.Context, key, value string) error {
	if f.settings == nil {
		f.settings = map[string]string{}
	}
	f.settings[key] = value
	return nil
}

type fakeStaff struct {
	drivers []entity.Profile
}

func (f *fakeStaff) ListByRole(_ context.Context, role string) ([]entity.Profile, error) {
	if role != entity.RoleDriver {
		return nil, nil
	}
	return f.drivers, nil
}

type memorySessions struct {
	data map[string]json.RawMessage
}

func (m *memorySessions) Load(_ context.Context, key string) (json.RawMessage, error) {
	return m.data[key], nil
}

func (m *memorySessions) Save(_ context.Context, key string, payload json.RawMessage) error {
	if m.data == nil {
		m.data = map[string]json.RawMessage{}
	}
	m.data[key] = payload
	return nil
}

func (m *memorySessions) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type botFixture struct {
	router   *Router
	api      *fakeAPI
	machine  *fakeMachine
	catalog  *fakeCatalog
	staff    *fakeStaff
	sessions *memorySessions
}

func newBotFixture() *botFixture {
	api := &fakeAPI{}
	machine := &fakeMachine{}
	catalog := &fakeCatalog{}
	staff := &fakeStaff{}
	sessions := &memorySessions{}
	router := NewRouter(RouterDeps{
		API:      api,
		AdminID:  adminID,
		Machine:  machine,
		Orders:   &fakeOrderOps{},
		Reviews:  fakeLists{},
		Crashes:  fakeCrashes{},
		Catalog:  catalog,
		Staff:    staff,
		Sessions: sessions,
		Logger:   zap.NewNop(),
	})
	return &botFixture{router: router, api: api, machine: machine, catalog: catalog, staff: staff, sessions: sessions}
}

func message(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: chatID},
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		Data: data,
		From: &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func TestStrangerIsRefused(t *testing.T) {
	f := newBotFixture()

	f.router.HandleUpdate(context.Background(), message(strangerID, "/queue"))

	assert.Contains(t, f.api.lastText(t), "authorized staff only")
}

func TestQueueListsPendingOrders(t *testing.T) {
	f := newBotFixture()
	router := NewRouter(RouterDeps{
		API:     f.api,
		AdminID: adminID,
		Machine: f.machine,
		Orders: &fakeOrderOps{queue: []entity.Order{
			{ID: 5, DisplayCode: "KF-5", Status: "Placed", TotalAmount: decimal.RequireFromString("120")},
		}},
		Reviews:  fakeLists{},
		Crashes:  fakeCrashes{},
		Catalog:  f.catalog,
		Sessions: f.sessions,
		Logger:   zap.NewNop(),
	})

	router.HandleUpdate(context.Background(), message(adminID, "/queue"))

	require.Len(t, f.api.sent, 1)
	msg := f.api.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "1 pending order")
	assert.Contains(t, msg.Text, "KF-5")
}

func TestAcceptFlowPromptsForETAThenApplies(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, callback(adminID, "accept_5"))
	assert.Contains(t, f.api.lastText(t), "estimated preparation time")

	f.router.HandleUpdate(ctx, message(adminID, "not a number"))
	assert.Contains(t, f.api.lastText(t), "positive number")

	f.router.HandleUpdate(ctx, message(adminID, "25"))
	assert.Equal(t, 25, f.machine.accepted[5])
	assert.Contains(t, f.api.lastText(t), "accepted")

	// Form is consumed: further text falls back to help.
	f.router.HandleUpdate(ctx, message(adminID, "30"))
	assert.Contains(t, f.api.lastText(t), "/help")
}

func TestRejectFlowRequiresReason(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, callback(adminID, "reject_42"))
	assert.Contains(t, f.api.lastText(t), "rejection reason")

	f.router.HandleUpdate(ctx, message(adminID, "Kitchen Busy"))
	assert.Equal(t, "Kitchen Busy", f.machine.rejected[42])
	assert.Contains(t, f.api.lastText(t), "rejected")
}

func TestConflictShownAsAlreadyHandled(t *testing.T) {
	f := newBotFixture()
	f.machine.err = errorbank.Conflict("order state changed")
	ctx := context.Background()

	f.router.HandleUpdate(ctx, callback(adminID, "status_5_preparing"))

	assert.Contains(t, f.api.lastText(t), "another admin")
}

func TestStatusCallbackAdvancesOrder(t *testing.T) {
	f := newBotFixture()

	f.router.HandleUpdate(context.Background(), callback(adminID, "status_5_ready"))

	assert.Contains(t, f.api.lastText(t), "Ready for Pickup")
}

func TestAddItemFormSurvivesRestart(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, message(adminID, "/additem"))
	f.router.HandleUpdate(ctx, message(adminID, "Special Burger"))
	assert.Contains(t, f.api.lastText(t), "Price")

	// A fresh router over the same session store stands in for a
	// process restart mid-form.
	restarted := NewRouter(RouterDeps{
		API:      f.api,
		AdminID:  adminID,
		Machine:  f.machine,
		Orders:   &fakeOrderOps{},
		Reviews:  fakeLists{},
		Crashes:  fakeCrashes{},
		Catalog:  f.catalog,
		Sessions: f.sessions,
		Logger:   zap.NewNop(),
	})
	restarted.HandleUpdate(ctx, message(adminID, "240"))
	assert.Contains(t, f.api.lastText(t), "Category")

	restarted.HandleUpdate(ctx, message(adminID, "Burgers"))
	require.Len(t, f.catalog.items, 1)
	assert.Equal(t, "Special Burger", f.catalog.items[0].Title)
	assert.Equal(t, "Burgers", f.catalog.items[0].Category)
	assert.True(t, f.catalog.items[0].Price.Equal(decimal.RequireFromString("240")))
}

func TestDriversRosterShowsPushRegistration(t *testing.T) {
	f := newBotFixture()
	f.staff.drivers = []entity.Profile{
		{ID: "d1", Role: entity.RoleDriver, FullName: "Abel T.", PhoneNumber: "+251911000000", FCMToken: "tok-1"},
		{ID: "d2", Role: entity.RoleDriver},
	}

	f.router.HandleUpdate(context.Background(), message(adminID, "/drivers"))

	text := f.api.lastText(t)
	assert.Contains(t, text, "Abel T.")
	assert.Contains(t, text, "+251911000000")
	assert.Contains(t, text, "✅")
	assert.Contains(t, text, "Unnamed Driver")
	assert.Contains(t, text, "❌")
}

func TestDriversRosterEmpty(t *testing.T) {
	f := newBotFixture()

	f.router.HandleUpdate(context.Background(), message(adminID, "/drivers"))

	assert.Contains(t, f.api.lastText(t), "No drivers")
}

func TestSetFeeUpdatesSetting(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, message(adminID, "/setfee"))
	f.router.HandleUpdate(ctx, message(adminID, "45"))

	assert.Equal(t, "45.00", f.catalog.settings["delivery_fee"])
}

func TestCancelAbortsForm(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, callback(adminID, "accept_5"))
	f.router.HandleUpdate(ctx, message(adminID, "/cancel"))
	assert.Contains(t, f.api.lastText(t), "cancelled")

	f.router.HandleUpdate(ctx, message(adminID, "25"))
	assert.Empty(t, f.machine.accepted)
}
