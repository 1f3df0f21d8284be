package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// ChatResult is the reply for one chat turn.
type ChatResult struct {
	Reply string
	// RateLimited is set when Reply is the soft rate-limit sentence.
	RateLimited bool
}

// ChatService answers a single conversational message.
type ChatService struct {
	relay
	prompt config.Prompt
}

// NewChatService constructs a ChatService. tokens may be nil.
func NewChatService(c Coordinator, prompt config.Prompt, tokens *tokencount.Counter) ChatService {
	return ChatService{relay: relay{coord: c, tokens: tokens}, prompt: prompt}
}

// Reply validates message, normalizes rawHistory and runs the fallback chain.
// A rate-limited upstream is not an error: the result carries MsgRateLimited.
func (s ChatService) Reply(ctx domain.Context, message string, rawHistory any) (ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatResult{}, domain.Public(domain.ErrInvalidArgument, MsgMessageRequired)
	}
	req := domain.ProviderRequest{
		SystemPrompt: s.prompt.System,
		History:      NormalizeHistory(rawHistory),
		Message:      message,
		Params:       paramsOf(s.prompt),
	}
	out, err := s.invoke(ctx, config.PromptChat, req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("op=usecase.ChatService.Reply: %w", err)
	}
	if out.IsRateLimited() {
		return ChatResult{Reply: MsgRateLimited, RateLimited: true}, nil
	}
	reply := strings.TrimSpace(out.Text)
	if reply == "" {
		reply = MsgEmptyReply
	}
	return ChatResult{Reply: reply}, nil
}

func paramsOf(p config.Prompt) domain.GenerationParams {
	return domain.GenerationParams{
		Temperature:     p.Temperature,
		TopP:            p.TopP,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}
