package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// ShapeWorkouts reads payload["workouts"] and keeps only fully populated
// items with a positive duration, capped at domain.MaxWorkouts.
func ShapeWorkouts(payload map[string]any) []domain.Workout {
	return shapeList(payload, "workouts", domain.MaxWorkouts, func(m map[string]any) (domain.Workout, bool) {
		w := domain.Workout{
			Title:           asString(m["title"]),
			Focus:           asString(m["focus"]),
			DurationMinutes: asMinutes(m["durationMinutes"]),
		}
		return w, w.Title != "" && w.Focus != "" && w.DurationMinutes > 0
	})
}

// ShapeWellness reads payload["sessions"] and keeps only items with every
// field present, capped at domain.MaxWellnessSessions.
func ShapeWellness(payload map[string]any) []domain.WellnessSession {
	return shapeList(payload, "sessions", domain.MaxWellnessSessions, func(m map[string]any) (domain.WellnessSession, bool) {
		s := domain.WellnessSession{
			Title:       asString(m["title"]),
			Duration:    durationText(m["duration"]),
			Description: asString(m["description"]),
			Category:    asString(m["category"]),
		}
		return s, s.Title != "" && s.Duration != "" && s.Description != "" && s.Category != ""
	})
}

// shapeList never fails: a missing or non-list field yields an empty slice.
func shapeList[T any](payload map[string]any, field string, limit int, shape func(map[string]any) (T, bool)) []T {
	out := make([]T, 0)
	raw, ok := payload[field].([]any)
	if !ok {
		return out
	}
	dropped := 0
	for _, it := range raw {
		if len(out) >= limit {
			break
		}
		m, ok := it.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		v, keep := shape(m)
		if !keep {
			dropped++
			continue
		}
		out = append(out, v)
	}
	observability.ShapedItemsTotal.WithLabelValues(field, "kept").Add(float64(len(out)))
	observability.ShapedItemsTotal.WithLabelValues(field, "dropped").Add(float64(dropped))
	return out
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// asNumber returns 0 for anything that is not numeric.
func asNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		f, _ = t.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func asInt(v any) int {
	f := math.Round(asNumber(v))
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

// asMinutes filters on the raw value, so any strictly positive duration
// survives; fractions below one minute round up to 1.
func asMinutes(v any) int {
	n := asNumber(v)
	switch {
	case n <= 0 || n > math.MaxInt32:
		return 0
	case n < 1:
		return 1
	default:
		return int(math.Round(n))
	}
}

// durationText accepts "10 min" style strings and bare positive numbers,
// which are read as minutes.
func durationText(v any) string {
	switch v.(type) {
	case float64, json.Number:
		n := asNumber(v)
		if n <= 0 {
			return ""
		}
		return strconv.FormatFloat(n, 'f', -1, 64) + " min"
	default:
		return asString(v)
	}
}
