// Package usecase contains the relay's request/response normalization logic.
package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// NormalizeHistory converts a client-supplied history (as decoded from JSON)
// into at most domain.MaxHistoryTurns turns, most recent last. Entries that are
// not objects or whose content is missing or falsy are dropped before the
// window is applied. Anything that is not a list yields an empty history.
func NormalizeHistory(raw any) []domain.ConversationTurn {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return []domain.ConversationTurn{}
	}
	kept := make([]domain.ConversationTurn, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		content, ok := contentText(m["content"])
		if !ok {
			continue
		}
		kept = append(kept, domain.ConversationTurn{Role: toRole(m["role"]), Content: content})
	}
	if len(kept) > domain.MaxHistoryTurns {
		kept = kept[len(kept)-domain.MaxHistoryTurns:]
	}
	return kept
}

// toRole collapses any role value onto the two provider-facing roles.
func toRole(v any) domain.Role {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant", "model":
		return domain.RoleAssistant
	default:
		return domain.RoleUser
	}
}

// contentText coerces a JSON value to text; false means the value is falsy
// (null, "", 0, false) and the entry must be dropped.
func contentText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		f, err := t.Float64()
		if err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	default:
		b, err := json.Marshal(t)
		if err != nil || len(b) == 0 {
			return "", false
		}
		return string(b), true
	}
}
