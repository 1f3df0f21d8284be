// Package domain defines the relay entities, provider port and error taxonomy.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConfiguration       = errors.New("configuration error")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamRejected    = errors.New("upstream rejected")
	ErrInternal            = errors.New("internal error")
)

// Context is an alias kept so ports read the same across packages.
type Context = context.Context

// Role is one of the two provider-facing conversation roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single normalized message of a conversation.
// Invariants: Content non-empty; Role in {user, assistant}.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// MaxHistoryTurns bounds how many prior turns are forwarded upstream.
const MaxHistoryTurns = 8

// GenerationParams are the sampling parameters sent with every attempt.
type GenerationParams struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// ProviderRequest is everything a provider needs for one attempt. It is not
// mutated after the handler builds it; providers translate it to their wire shape.
type ProviderRequest struct {
	SystemPrompt string
	History      []ConversationTurn
	Message      string
	Params       GenerationParams
}

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// FailureReason refines an OutcomeFailure.
type FailureReason int

const (
	FailureNone FailureReason = iota
	// FailureTransport means the HTTP exchange never completed.
	FailureTransport
	// FailureModelUnavailable is a 404: the model name is wrong or not enabled.
	FailureModelUnavailable
	// FailureRejected is any other non-2xx status.
	FailureRejected
	// FailureNoModel is returned by the coordinator once every candidate was unavailable.
	FailureNoModel
)

func (r FailureReason) String() string {
	switch r {
	case FailureTransport:
		return "transport"
	case FailureModelUnavailable:
		return "model_unavailable"
	case FailureRejected:
		return "rejected"
	case FailureNoModel:
		return "no_model"
	default:
		return "none"
	}
}

// Outcome is the result of exactly one provider attempt (or of a whole
// fallback chain). Only the fields of the active Kind are meaningful.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Model  string
	Reason FailureReason
	// Status is the upstream HTTP status; zero for transport failures.
	Status int
	Detail string
}

// Success builds a success outcome.
func Success(model, text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Model: model, Text: text}
}

// RateLimited builds a rate-limited outcome.
func RateLimited(model string) Outcome {
	return Outcome{Kind: OutcomeRateLimited, Model: model, Status: 429}
}

// Failure builds a failure outcome.
func Failure(model string, reason FailureReason, status int, detail string) Outcome {
	return Outcome{Kind: OutcomeFailure, Model: model, Reason: reason, Status: status, Detail: detail}
}

// IsSuccess reports whether o holds a reply.
func (o Outcome) IsSuccess() bool { return o.Kind == OutcomeSuccess }

// IsRateLimited reports whether the upstream answered 429.
func (o Outcome) IsRateLimited() bool { return o.Kind == OutcomeRateLimited }

// Retryable reports whether the coordinator may try the next candidate model.
func (o Outcome) Retryable() bool {
	return o.Kind == OutcomeFailure && o.Reason == FailureModelUnavailable
}

// Provider performs one request/response cycle against one model (port).
type Provider interface {
	// Name is a short identifier used in logs and metrics.
	Name() string
	// DisplayName is the human name used in client-facing error messages.
	DisplayName() string
	// Configured reports whether the provider has its credential.
	Configured() bool
	Generate(ctx Context, model string, req ProviderRequest) Outcome
}

// PublicError is an error whose Message is safe to show to clients.
type PublicError struct {
	Kind    error
	Message string
}

// Public wraps kind with a client-facing message.
func Public(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

func (e *PublicError) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *PublicError) Unwrap() error { return e.Kind }

// UpstreamError carries a client-facing message and the provider's raw detail.
// It wraps ErrUpstreamUnavailable or ErrUpstreamRejected.
type UpstreamError struct {
	Kind    error
	Message string
	Detail  string
	Status  int
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Kind }

// Workout is a shaped workout suggestion.
type Workout struct {
	Title           string `json:"title"`
	Focus           string `json:"focus"`
	DurationMinutes int    `json:"durationMinutes"`
}

// WellnessSession is a shaped wellness suggestion.
type WellnessSession struct {
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Caps applied by the response shaper.
const (
	MaxWorkouts         = 12
	MaxWellnessSessions = 10
)
