package enums

import "fmt"

// ConversationStep identifies where a customer is within the ordering dialog.
type ConversationStep string

const (
	StepGreeting          ConversationStep = "greeting"
	StepMenu              ConversationStep = "menu"
	StepBrowsingProducts  ConversationStep = "browsing_products"
	StepAddingToCart      ConversationStep = "adding_to_cart"
	StepCartReview        ConversationStep = "cart_review"
	StepCustomerInfo      ConversationStep = "customer_info"
	StepOrderConfirmation ConversationStep = "order_confirmation"
)

var validConversationSteps = []ConversationStep{
	StepGreeting,
	StepMenu,
	StepBrowsingProducts,
	StepAddingToCart,
	StepCartReview,
	StepCustomerInfo,
	StepOrderConfirmation,
}

// String implements fmt.Stringer.
func (s ConversationStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConversationStep.
func (s ConversationStep) IsValid() bool {
	for _, candidate := range validConversationSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConversationStep converts raw input into a ConversationStep.
func ParseConversationStep(value string) (ConversationStep, error) {
	for _, candidate := range validConversationSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conversation step %q", value)
}
