package checkout

import (
	"context"
	"log/slog"
	"strings"

	"hoststore/internal/model"
)

// OrderConfirmation is the notice sent to the customer after payment
// initiation.
type OrderConfirmation struct {
	OrderNumber string
	Email       string
	Items       []model.CartItem
	Total       float64
}

// Mailer is the outbound order-confirmation boundary. The transport is an
// external collaborator; LogMailer stands in until one is wired.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, conf OrderConfirmation) error
}

// LogMailer writes the confirmation to the service log instead of sending
// it. Best effort only; callers must not fail an order on mailer errors.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendOrderConfirmation(_ context.Context, conf OrderConfirmation) error {
	names := make([]string, 0, len(conf.Items))
	for _, item := range conf.Items {
		names = append(names, item.Name)
	}
	m.Logger.Info("order confirmation",
		slog.String("order_number", conf.OrderNumber),
		slog.String("email", conf.Email),
		slog.String("items", strings.Join(names, ", ")),
		slog.String("total", model.FormatAmount(conf.Total)),
	)
	return nil
}
