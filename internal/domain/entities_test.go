package domain

import (
	"testing"
)

func TestRoleConstants(t *testing.T) {
	if RoleUser != "user" || RoleAssistant != "assistant" {
		t.Fatalf("unexpected role values %q %q", RoleUser, RoleAssistant)
	}
}

func TestOutcomeConstructors(t *testing.T) {
	tests := []struct {
		name        string
		outcome     Outcome
		success     bool
		rateLimited bool
		retryable   bool
		kind        string
	}{
		{"success", Success("m", "hi"), true, false, false, "success"},
		{"rate_limited", RateLimited("m"), false, true, false, "rate_limited"},
		{"model_unavailable", Failure("m", FailureModelUnavailable, 404, "nope"), false, false, true, "failure"},
		{"rejected", Failure("m", FailureRejected, 401, "bad key"), false, false, false, "failure"},
		{"transport", Failure("m", FailureTransport, 0, "dial"), false, false, false, "failure"},
		{"no_model", Failure("", FailureNoModel, 404, "last"), false, false, false, "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.outcome.IsSuccess() != tt.success {
				t.Errorf("IsSuccess = %v, want %v", tt.outcome.IsSuccess(), tt.success)
			}
			if tt.outcome.IsRateLimited() != tt.rateLimited {
				t.Errorf("IsRateLimited = %v, want %v", tt.outcome.IsRateLimited(), tt.rateLimited)
			}
			if tt.outcome.Retryable() != tt.retryable {
				t.Errorf("Retryable = %v, want %v", tt.outcome.Retryable(), tt.retryable)
			}
			if tt.outcome.Kind.String() != tt.kind {
				t.Errorf("Kind = %q, want %q", tt.outcome.Kind.String(), tt.kind)
			}
		})
	}
}

func TestRateLimitedCarriesStatus(t *testing.T) {
	o := RateLimited("gemini-2.0-flash")
	if o.Status != 429 || o.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected outcome %+v", o)
	}
}

func TestFailureReasonString(t *testing.T) {
	want := map[FailureReason]string{
		FailureNone:             "none",
		FailureTransport:        "transport",
		FailureModelUnavailable: "model_unavailable",
		FailureRejected:         "rejected",
		FailureNoModel:          "no_model",
	}
	for r, s := range want {
		if r.String() != s {
			t.Errorf("%d.String() = %q, want %q", r, r.String(), s)
		}
	}
}
