package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/notify"
)

func (r *Router) sendQueue(ctx context.Context, chatID int64) {
	orders, err := r.orders.Queue(ctx)
	if err != nil {
		r.logger.Error("queue load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load the queue.")
		return
	}
	if len(orders) == 0 {
		r.reply(chatID, "📭 No pending orders. Enjoy the quiet!")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 %d pending order(s):\n\n", len(orders))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(&b, "• #%s — %s — %s ETB\n", o.DisplayID(), o.Status, o.TotalAmount.StringFixed(2))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("#"+o.DisplayID(), fmt.Sprintf("view_order_%d", o.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	r.send(msg)
}

func (r *Router) sendOrderDetails(ctx context.Context, chatID, orderID int64) {
	order, items, err := r.orders.Details(ctx, orderID)
	if err != nil {
		r.replyMachineError(chatID, err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 Order #%s\n", order.DisplayID())
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	fmt.Fprintf(&b, "Total: %s ETB\n", order.TotalAmount.StringFixed(2))
	if order.EstimatedTime > 0 {
		fmt.Fprintf(&b, "ETA: %d min\n", order.EstimatedTime)
	}
	if len(items) > 0 {
		b.WriteString("\nItems:\n")
		for _, item := range items {
			fmt.Fprintf(&b, "  • %dx %s\n", item.Quantity, item.Title)
		}
	}
	if order.AdminNotes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", order.AdminNotes)
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ReplyMarkup = notify.KeyboardForStatus(order)
	r.send(msg)
}

func (r *Router) sendStats(ctx context.Context, chatID int64) {
	report, err := r.orders.Stats(ctx)
	if err != nil {
		r.logger.Error("stats load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load stats.")
		return
	}
	r.reply(chatID, fmt.Sprintf(
		"📊 Stats\n\nToday: %d orders, %s ETB revenue\nLast 7 days: %d orders, %s ETB revenue",
		report.TodayOrders, report.TodayRevenue.StringFixed(2),
		report.WeekOrders, report.WeekRevenue.StringFixed(2),
	))
}

func (r *Router) sendReviews(ctx context.Context, chatID int64) {
	reviews, err := r.reviews.ListRecent(ctx, 10)
	if err != nil {
		r.logger.Error("reviews load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load reviews.")
		return
	}
	if len(reviews) == 0 {
		r.reply(chatID, "No reviews yet.")
		return
	}

	var b strings.Builder
	b.WriteString("⭐ Latest reviews:\n\n")
	for _, rev := range reviews {
		name := rev.FullName
		if name == "" {
			name = "Anonymous"
		}
		fmt.Fprintf(&b, "%s %s\n%s\n\n", strings.Repeat("⭐", rev.Rating), name, rev.Comment)
	}
	r.reply(chatID, b.String())
}

func (r *Router) sendCrashLogs(ctx context.Context, chatID int64) {
	logs, err := r.crashes.ListRecent(ctx, 10)
	if err != nil {
		r.logger.Error("crash logs load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load crash logs.")
		return
	}
	if len(logs) == 0 {
		r.reply(chatID, "🎉 No crashes recorded.")
		return
	}

	var b strings.Builder
	b.WriteString("🐞 Recent crash clusters:\n\n")
	for _, l := range logs {
		fmt.Fprintf(&b, "[%s] ×%d %s\n  last seen %s\n\n",
			l.AppType, l.Count, truncate(l.ErrorMessage, 80), l.LastSeen.Format("Jan 2 15:04"))
	}
	r.reply(chatID, b.String())
}

func (r *Router) sendMenu(ctx context.Context, chatID int64) {
	items, err := r.catalog.ListMenu(ctx)
	if err != nil {
		r.logger.Error("menu load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load the menu.")
		return
	}
	if len(items) == 0 {
		r.reply(chatID, "The menu is empty. Add items with /additem.")
		return
	}

	var b strings.Builder
	b.WriteString("🍽 Menu:\n")
	category := ""
	for _, item := range items {
		if item.Category != category {
			category = item.Category
			fmt.Fprintf(&b, "\n%s\n", category)
		}
		marker := "✅"
		if !item.Available {
			marker = "🚫"
		}
		fmt.Fprintf(&b, "  %s %s — %s ETB\n", marker, item.Title, item.Price.StringFixed(2))
	}
	r.reply(chatID, b.String())
}

func (r *Router) sendPayments(ctx context.Context, chatID int64) {
	methods, err := r.catalog.ListPaymentMethods(ctx)
	if err != nil {
		r.logger.Error("payment methods load failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load payment methods.")
		return
	}
	if len(methods) == 0 {
		r.reply(chatID, "No payment methods configured.")
		return
	}

	var b strings.Builder
	b.WriteString("💳 Payment destinations:\n\n")
	for _, m := range methods {
		fmt.Fprintf(&b, "• %s — %s (%s)\n", m.Name, m.AccountNumber, m.AccountName)
	}
	r.reply(chatID, b.String())
}

func (r *Router) sendDrivers(ctx context.Context, chatID int64) {
	drivers, err := r.staff.ListByRole(ctx, entity.RoleDriver)
	if err != nil {
		r.logger.Error("driver list failed", zap.Error(err))
		r.reply(chatID, "❌ Could not load the staff list.")
		return
	}
	if len(drivers) == 0 {
		r.reply(chatID, "📭 No drivers found in the system.")
		return
	}

	var b strings.Builder
	b.WriteString("🛵 Delivery staff:\n\n")
	for _, d := range drivers {
		name := d.FullName
		if name == "" {
			name = "Unnamed Driver"
		}
		phone := d.PhoneNumber
		if phone == "" {
			phone = "N/A"
		}
		push := "❌"
		if d.FCMToken != "" {
			push = "✅"
		}
		fmt.Fprintf(&b, "%s\n  📱 %s\n  🔔 Push: %s\n\n", name, phone, push)
	}
	r.reply(chatID, b.String())
}

// decimalString validates a money amount and returns its normalized form.
func decimalString(text string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	if d.IsNegative() {
		return "", fmt.Errorf("negative amount")
	}
	return d.StringFixed(2), nil
}

func menuItemFromDraft(draft menuDraft, category string) (*entity.MenuItem, error) {
	price, err := decimal.NewFromString(draft.Price)
	if err != nil {
		return nil, err
	}
	return &entity.MenuItem{
		Title:     draft.Title,
		Price:     price,
		Category:  category,
		Available: true,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
