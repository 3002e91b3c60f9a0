// Package assist defines the contract with the remote text-completion service
// and provides clients for it: an HTTP client for the hosted suggestion
// endpoint and a direct client for OpenAI-compatible chat models.
package assist

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// Suggestion types returned by the completion service.
const (
	TypeContinuation = "continuation"
	TypeImprovement  = "improvement"
	TypeStructure    = "structure"
	TypeGeneral      = "general"
)

// Request is the body sent to the completion service.
type Request struct {
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	CurrentTextID *string `json:"current_text_id"`
}

// Suggestion is a single completion returned by the service.
type Suggestion struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the success payload of the completion service.
type Response struct {
	Success     bool         `json:"success"`
	Suggestions []Suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

// Completer produces suggestions for the given request.
// Implementations return *AccessDeniedError when the account lacks access.
type Completer interface {
	Suggest(ctx context.Context, req Request) ([]Suggestion, error)
}

// Pick selects the suggestion to show: the first continuation if any,
// otherwise the first suggestion. Returns false for an empty list.
func Pick(suggestions []Suggestion) (Suggestion, bool) {
	if len(suggestions) == 0 {
		return Suggestion{}, false
	}
	if s, ok := lo.Find(suggestions, func(s Suggestion) bool {
		return s.Type == TypeContinuation
	}); ok {
		return s, true
	}
	return suggestions[0], true
}

// AccessDeniedError is returned when the service answers 403 because the
// account has no active trial or subscription.
type AccessDeniedError struct {
	Reason             string `json:"error"`
	TrialExpired       bool   `json:"trial_expired"`
	SubscriptionStatus string `json:"subscription_status"`
	RedirectURL        string `json:"redirect_url"`
}

func (e *AccessDeniedError) Error() string {
	if e.SubscriptionStatus != "" {
		return fmt.Sprintf("access denied: %s (status %s)", e.reason(), e.SubscriptionStatus)
	}
	return "access denied: " + e.reason()
}

func (e *AccessDeniedError) reason() string {
	if e.Reason == "" {
		return "Subscription required"
	}
	return e.Reason
}

// Message returns the user-facing explanation for the denial.
func (e *AccessDeniedError) Message() string {
	switch {
	case e.TrialExpired || e.SubscriptionStatus == "trial_expired":
		return "Your free trial has expired. Please choose a plan to continue using AI suggestions."
	case e.SubscriptionStatus == "past_due":
		return "Your payment is overdue. Please update your payment method to continue using AI suggestions."
	case e.SubscriptionStatus == "canceled" || e.SubscriptionStatus == "incomplete":
		return "Your subscription is inactive. Please update your payment method or choose a new plan."
	default:
		return "An active subscription is required to use AI suggestions."
	}
}
