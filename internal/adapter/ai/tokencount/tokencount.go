// Package tokencount estimates prompt sizes for LLM calls.
//
// It uses tiktoken-go with the cl100k_base encoding as an approximation for
// every upstream model. Counts are only used for metrics, so when the
// encoding cannot be loaded the counter falls back to ~4 chars per token.
package tokencount

import (
	"log/slog"
	"sync"
	"sync/atomic"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

const encodingName = "cl100k_base"

// Per-message framing used by OpenAI-compatible chat formats.
const (
	tokensPerMessage = 3
	replyPriming     = 3
)

// Loader resolves a tiktoken encoding by name.
type Loader func(name string) (*tiktoken.Tiktoken, error)

// Counter lazily loads one encoding and is safe for concurrent use.
type Counter struct {
	load Loader

	once    sync.Once
	enc     *tiktoken.Tiktoken
	err     error
	warming atomic.Bool
	ready   atomic.Bool
}

// NewCounter uses tiktoken.GetEncoding when load is nil.
func NewCounter(load Loader) *Counter {
	if load == nil {
		load = tiktoken.GetEncoding
	}
	return &Counter{load: load}
}

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.once.Do(func() {
		c.enc, c.err = c.load(encodingName)
		if c.err != nil {
			slog.Warn("token encoding unavailable; using length estimate",
				slog.String("encoding", encodingName),
				slog.Any("error", c.err))
		}
	})
	c.ready.Store(true)
	return c.enc, c.err
}

// Warm loads the encoding ahead of the first request. Counts taken while it
// is still loading use the length estimate instead of waiting.
func (c *Counter) Warm() {
	c.warming.Store(true)
	_, _ = c.encoding()
}

// CountTokens counts tokens in text, estimating on encoder failure.
func (c *Counter) CountTokens(text string) int {
	if c.warming.Load() && !c.ready.Load() {
		return estimate(text)
	}
	enc, err := c.encoding()
	if err != nil {
		return estimate(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// CountRequest counts the prompt tokens of a provider request including
// system prompt, history and the current message.
func (c *Counter) CountRequest(req domain.ProviderRequest) int {
	n := replyPriming
	if req.SystemPrompt != "" {
		n += tokensPerMessage + c.CountTokens("system") + c.CountTokens(req.SystemPrompt)
	}
	for _, t := range req.History {
		n += tokensPerMessage + c.CountTokens(string(t.Role)) + c.CountTokens(t.Content)
	}
	n += tokensPerMessage + c.CountTokens("user") + c.CountTokens(req.Message)
	return n
}

func estimate(text string) int {
	if text == "" {
		return 0
	}
	if n := len(text) / 4; n > 0 {
		return n
	}
	return 1
}
