// Package checkout implements the multi-step checkout state machine
// composing the cart, the session manager, and the payment gateway client.
// Steps run cart → auth → payment → confirmation, with auth skipped for
// visitors already holding a verified session. State is process-local per
// visitor; a restart resets everyone to the cart step.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"hoststore/internal/cart"
	"hoststore/internal/identity"
	"hoststore/internal/model"
	"hoststore/internal/payment"
	"hoststore/internal/relay"
)

// PaymentCreator is the slice of the gateway client the flow needs.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, order payment.Order) (*model.PaymentResponse, error)
}

// State is a snapshot of a visitor's checkout progress.
type State struct {
	Step       model.CheckoutStep `json:"step"`
	OrderID    string             `json:"order_id,omitempty"`
	PaymentURL string             `json:"payment_url,omitempty"`
	Processing bool               `json:"processing"`
}

// visitorFlow is the mutable per-visitor record. Guarded by its own mutex so
// concurrent requests from one impatient visitor serialize.
type visitorFlow struct {
	mu         sync.Mutex
	step       model.CheckoutStep
	orderID    string
	paymentURL string
	processing bool
}

// Flow owns the checkout state machines for all visitors.
type Flow struct {
	carts    *cart.Store
	sessions *identity.Manager
	payments PaymentCreator
	notifier relay.Notifier
	mailer   Mailer
	logger   *slog.Logger

	flows cmap.ConcurrentMap[string, *visitorFlow]

	now func() time.Time
}

func NewFlow(carts *cart.Store, sessions *identity.Manager, payments PaymentCreator,
	notifier relay.Notifier, mailer Mailer, logger *slog.Logger) *Flow {
	f := &Flow{
		carts:    carts,
		sessions: sessions,
		payments: payments,
		notifier: notifier,
		mailer:   mailer,
		logger:   logger,
		flows:    cmap.New[*visitorFlow](),
		now:      time.Now,
	}

	// A sign-out mid-checkout drops the visitor back to the cart step;
	// auth and payment both require a live session.
	sessions.Subscribe(func(visitorID string, session *model.Session) {
		if session != nil {
			return
		}
		vf := f.visitor(visitorID)
		vf.mu.Lock()
		defer vf.mu.Unlock()
		if vf.step == model.StepAuth || vf.step == model.StepPayment {
			vf.reset()
		}
	})
	return f
}

func (f *Flow) visitor(visitorID string) *visitorFlow {
	vf, _ := f.flows.Get(visitorID)
	if vf == nil {
		vf = &visitorFlow{step: model.StepCart}
		if !f.flows.SetIfAbsent(visitorID, vf) {
			vf, _ = f.flows.Get(visitorID)
		}
	}
	return vf
}

func (vf *visitorFlow) reset() {
	vf.step = model.StepCart
	vf.orderID = ""
	vf.paymentURL = ""
	vf.processing = false
}

// Status returns the visitor's current checkout state.
func (f *Flow) Status(visitorID string) State {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()
	return State{
		Step:       vf.step,
		OrderID:    vf.orderID,
		PaymentURL: vf.paymentURL,
		Processing: vf.processing,
	}
}

// Proceed advances from the cart step. An empty cart cannot check out. A
// verified session skips straight to payment; otherwise auth comes first.
func (f *Flow) Proceed(ctx context.Context, visitorID string) (model.CheckoutStep, error) {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if vf.step != model.StepCart {
		return vf.step, model.NewStepError(vf.step, "proceed to checkout")
	}

	c, err := f.carts.Get(ctx, visitorID)
	if err != nil {
		return vf.step, err
	}
	if c.Count() == 0 {
		return vf.step, model.NewValidationError("cart", "cart is empty")
	}

	if session := f.sessions.Current(visitorID); session != nil && session.EmailVerified {
		vf.step = model.StepPayment
	} else {
		vf.step = model.StepAuth
	}
	return vf.step, nil
}

// SignIn authenticates through the session manager and, on success,
// advances auth → payment. A failed sign-in leaves the step unchanged.
func (f *Flow) SignIn(ctx context.Context, visitorID, email, password string) (*model.Session, error) {
	session, err := f.sessions.SignIn(ctx, visitorID, email, password)
	if err != nil {
		return nil, err
	}

	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()
	if vf.step == model.StepAuth {
		vf.step = model.StepPayment
	}
	return session, nil
}

// Pay creates the payment session for the visitor's cart. Requires the
// payment step and a verified session. On success the payment URL is
// recorded and returned for the client-side redirect; confirmation waits for
// the gateway's callback. On failure the step stays at payment with
// processing reset so the visitor can retry.
func (f *Flow) Pay(ctx context.Context, visitorID string) (State, error) {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if vf.step != model.StepPayment {
		return f.snapshot(vf), model.NewStepError(vf.step, "pay")
	}
	if vf.processing {
		return f.snapshot(vf), model.NewValidationError("payment", "payment already in progress")
	}

	session := f.sessions.Current(visitorID)
	if session == nil || !session.EmailVerified {
		return f.snapshot(vf), model.NewUnauthorizedError("sign in to complete your order")
	}

	c, err := f.carts.Get(ctx, visitorID)
	if err != nil {
		return f.snapshot(vf), err
	}
	if c.Count() == 0 {
		return f.snapshot(vf), model.NewValidationError("cart", "cart is empty")
	}

	vf.processing = true
	orderID := payment.GenerateOrderID()

	resp, err := f.payments.CreatePayment(ctx, payment.Order{
		OrderID:     orderID,
		Amount:      c.Total(),
		Email:       session.Email,
		Description: fmt.Sprintf("Order #%s - %d items", orderID, c.Count()),
	})
	if err != nil {
		vf.processing = false
		f.logger.Warn("payment initiation failed",
			slog.String("visitor_id", visitorID),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return f.snapshot(vf), err
	}

	vf.orderID = orderID
	vf.paymentURL = resp.PaymentURL
	vf.processing = false

	// Order notice to the operations chat, fire-and-forget.
	message := f.formatOrderMessage(orderID, resp.PaymentURL, session, c)
	go f.notifier.Send(context.WithoutCancel(ctx), message)

	// Confirmation email is best effort; the order is already placed.
	if err := f.mailer.SendOrderConfirmation(ctx, OrderConfirmation{
		OrderNumber: orderID,
		Email:       session.Email,
		Items:       c.Items,
		Total:       c.Total(),
	}); err != nil {
		f.logger.Warn("order confirmation email failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	f.logger.Info("payment initiated",
		slog.String("visitor_id", visitorID),
		slog.String("order_id", orderID),
		slog.String("total", model.FormatAmount(c.Total())),
	)
	return f.snapshot(vf), nil
}

// Confirm completes the order after the gateway reported success: the flow
// lands on confirmation and the cart is cleared, persisted key included.
func (f *Flow) Confirm(ctx context.Context, visitorID string) (State, error) {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if vf.step != model.StepPayment || vf.orderID == "" {
		return f.snapshot(vf), model.NewStepError(vf.step, "confirm order")
	}

	if err := f.carts.Clear(ctx, visitorID); err != nil {
		return f.snapshot(vf), err
	}

	vf.step = model.StepConfirmation
	vf.processing = false
	f.logger.Info("order confirmed",
		slog.String("visitor_id", visitorID),
		slog.String("order_id", vf.orderID),
	)
	return f.snapshot(vf), nil
}

// Fail records a failed or cancelled gateway return. The flow stays at the
// payment step so the visitor can retry with a fresh order.
func (f *Flow) Fail(visitorID string) State {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if vf.step == model.StepPayment {
		vf.orderID = ""
		vf.paymentURL = ""
		vf.processing = false
	}
	return f.snapshot(vf)
}

// Reset returns the visitor to the cart step. Used after the confirmation
// page has been shown.
func (f *Flow) Reset(visitorID string) State {
	vf := f.visitor(visitorID)
	vf.mu.Lock()
	defer vf.mu.Unlock()
	vf.reset()
	return f.snapshot(vf)
}

// snapshot must be called with vf.mu held.
func (f *Flow) snapshot(vf *visitorFlow) State {
	return State{
		Step:       vf.step,
		OrderID:    vf.orderID,
		PaymentURL: vf.paymentURL,
		Processing: vf.processing,
	}
}

func (f *Flow) formatOrderMessage(orderID, paymentURL string, session *model.Session, c cart.Cart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛍️ <b>New Order #%s</b>\n", orderID)
	fmt.Fprintf(&b, "⏰ <b>Order Time:</b> %s\n\n", f.now().Format("1/2/2006, 3:04:05 PM"))

	b.WriteString("👤 <b>Customer Information:</b>\n")
	fmt.Fprintf(&b, "• Email: %s\n", session.Email)
	name := session.DisplayName
	if name == "" {
		name = "N/A"
	}
	fmt.Fprintf(&b, "• Name: %s\n\n", name)

	b.WriteString("🛒 <b>Order Items:</b>\n")
	for _, item := range c.Items {
		fmt.Fprintf(&b, "• %s - $%s\n", item.Name, model.FormatAmount(item.Price))
	}

	fmt.Fprintf(&b, "\n💰 <b>Total Amount:</b> $%s\n\n", model.FormatAmount(c.Total()))

	b.WriteString("💳 <b>Payment Method:</b> Crypto\n")
	fmt.Fprintf(&b, "🔗 <b>Payment URL:</b> %s\n", paymentURL)
	return b.String()
}
