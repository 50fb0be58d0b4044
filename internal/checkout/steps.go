package checkout

import "hoststore/internal/model"

// StepInfo describes one step for progress rendering.
type StepInfo struct {
	ID          model.CheckoutStep `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
}

// StepList is the ordered progress indicator shown during checkout.
var StepList = []StepInfo{
	{ID: model.StepCart, Title: "Review Cart", Description: "Review your selected items"},
	{ID: model.StepAuth, Title: "Authentication", Description: "Sign in to continue"},
	{ID: model.StepPayment, Title: "Payment", Description: "Choose payment method"},
	{ID: model.StepConfirmation, Title: "Confirmation", Description: "Complete your order"},
}
