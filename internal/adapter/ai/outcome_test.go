package ai

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantHandle bool
		wantKind   domain.OutcomeKind
		wantReason domain.FailureReason
		wantDetail string
	}{
		{name: "ok", status: http.StatusOK, wantHandle: false},
		{name: "created", status: http.StatusCreated, wantHandle: false},
		{name: "rate_limited", status: http.StatusTooManyRequests, body: "slow down", wantHandle: true, wantKind: domain.OutcomeRateLimited},
		{name: "not_found", status: http.StatusNotFound, body: " model gone ", wantHandle: true, wantKind: domain.OutcomeFailure, wantReason: domain.FailureModelUnavailable, wantDetail: "model gone"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad key", wantHandle: true, wantKind: domain.OutcomeFailure, wantReason: domain.FailureRejected, wantDetail: "bad key"},
		{name: "server_error_empty_body", status: http.StatusBadGateway, wantHandle: true, wantKind: domain.OutcomeFailure, wantReason: domain.FailureRejected, wantDetail: "status 502"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, handled := ClassifyStatus("m1", tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantHandle, handled)
			if !handled {
				return
			}
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantReason, out.Reason)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, "m1", out.Model)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, out.Detail)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	out := TransportFailure("m1", errors.New("dial tcp: refused"))
	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, domain.FailureTransport, out.Reason)
	assert.Equal(t, 0, out.Status)
	assert.Equal(t, "dial tcp: refused", out.Detail)
	assert.False(t, out.Retryable())
}
