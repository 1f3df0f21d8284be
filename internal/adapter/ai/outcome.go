package ai

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// maxUpstreamBody caps how much of a provider response is read.
const maxUpstreamBody = 4 << 20

// ReadBody reads at most maxUpstreamBody bytes of an upstream response.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxUpstreamBody))
}

// ClassifyStatus maps a non-2xx upstream status to an outcome. The boolean is
// false for 2xx statuses, which the caller decodes itself.
func ClassifyStatus(model string, status int, body []byte) (domain.Outcome, bool) {
	switch {
	case status >= 200 && status < 300:
		return domain.Outcome{}, false
	case status == http.StatusTooManyRequests:
		return domain.RateLimited(model), true
	case status == http.StatusNotFound:
		return domain.Failure(model, domain.FailureModelUnavailable, status, detailText(status, body)), true
	default:
		return domain.Failure(model, domain.FailureRejected, status, detailText(status, body)), true
	}
}

// TransportFailure is the outcome of an exchange that never produced a response.
func TransportFailure(model string, err error) domain.Outcome {
	return domain.Failure(model, domain.FailureTransport, 0, err.Error())
}

func detailText(status int, body []byte) string {
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return fmt.Sprintf("status %d", status)
}
