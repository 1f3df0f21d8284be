package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// Defaults for optional generation parameters.
const (
	DefaultWorkoutGoal    = "General fitness"
	DefaultEquipment      = "Bodyweight only"
	DefaultTimePerSession = "30 minutes"
	DefaultFitnessLevel   = "Beginner"
	DefaultWellnessGoal   = "Reduce stress and improve sleep"
)

// WorkoutParams are the optional inputs of a workout plan request.
type WorkoutParams struct {
	Goal           string
	Equipment      string
	TimePerSession string
	FitnessLevel   string
}

// WithDefaults fills every blank field with its named default.
func (p WorkoutParams) WithDefaults() WorkoutParams {
	return WorkoutParams{
		Goal:           orDefault(p.Goal, DefaultWorkoutGoal),
		Equipment:      orDefault(p.Equipment, DefaultEquipment),
		TimePerSession: orDefault(p.TimePerSession, DefaultTimePerSession),
		FitnessLevel:   orDefault(p.FitnessLevel, DefaultFitnessLevel),
	}
}

// WellnessParams are the optional inputs of a wellness plan request.
type WellnessParams struct {
	Goal string
}

// WithDefaults fills every blank field with its named default.
func (p WellnessParams) WithDefaults() WellnessParams {
	return WellnessParams{Goal: orDefault(p.Goal, DefaultWellnessGoal)}
}

// WorkoutsResult always holds a non-nil list; Note is set when the upstream was rate limited.
type WorkoutsResult struct {
	Workouts []domain.Workout
	Note     string
}

// WellnessResult always holds a non-nil list; Note is set when the upstream was rate limited.
type WellnessResult struct {
	Sessions []domain.WellnessSession
	Note     string
}

// GenerateService produces structured workout and wellness suggestions.
type GenerateService struct {
	relay
	workouts config.Prompt
	wellness config.Prompt
}

// NewGenerateService constructs a GenerateService. tokens may be nil.
func NewGenerateService(c Coordinator, prompts config.Prompts, tokens *tokencount.Counter) GenerateService {
	w, _ := prompts.Get(config.PromptWorkouts)
	s, _ := prompts.Get(config.PromptWellness)
	return GenerateService{relay: relay{coord: c, tokens: tokens}, workouts: w, wellness: s}
}

// Workouts asks for a workout plan. Unparseable model output yields an empty list, not an error.
func (s GenerateService) Workouts(ctx domain.Context, p WorkoutParams) (WorkoutsResult, error) {
	p = p.WithDefaults()
	msg := fmt.Sprintf("Goal: %s\nEquipment: %s\nTime per session: %s\nFitness level: %s",
		p.Goal, p.Equipment, p.TimePerSession, p.FitnessLevel)
	payload, note, err := s.generate(ctx, config.PromptWorkouts, s.workouts, msg)
	if err != nil {
		return WorkoutsResult{Workouts: []domain.Workout{}}, fmt.Errorf("op=usecase.GenerateService.Workouts: %w", err)
	}
	return WorkoutsResult{Workouts: ShapeWorkouts(payload), Note: note}, nil
}

// Wellness asks for wellness sessions. Unparseable model output yields an empty list, not an error.
func (s GenerateService) Wellness(ctx domain.Context, p WellnessParams) (WellnessResult, error) {
	p = p.WithDefaults()
	msg := fmt.Sprintf("Goal: %s", p.Goal)
	payload, note, err := s.generate(ctx, config.PromptWellness, s.wellness, msg)
	if err != nil {
		return WellnessResult{Sessions: []domain.WellnessSession{}}, fmt.Errorf("op=usecase.GenerateService.Wellness: %w", err)
	}
	return WellnessResult{Sessions: ShapeWellness(payload), Note: note}, nil
}

// generate returns the extracted payload (nil when nothing parsed) or the
// rate-limit note.
func (s GenerateService) generate(ctx domain.Context, endpoint string, prompt config.Prompt, msg string) (map[string]any, string, error) {
	req := domain.ProviderRequest{
		SystemPrompt: prompt.System,
		History:      []domain.ConversationTurn{},
		Message:      msg,
		Params:       paramsOf(prompt),
	}
	out, err := s.invoke(ctx, endpoint, req)
	if err != nil {
		return nil, "", err
	}
	if out.IsRateLimited() {
		return nil, MsgRateLimited, nil
	}
	payload, strategy := ai.ExtractJSONWithStrategy(out.Text)
	if payload == nil {
		observability.LoggerFromContext(ctx).Warn("model output had no JSON object",
			slog.String("endpoint", endpoint),
			slog.String("model", out.Model),
			slog.Int("text_len", len(out.Text)))
	} else {
		observability.LoggerFromContext(ctx).Debug("model output extracted",
			slog.String("endpoint", endpoint),
			slog.String("strategy", strategy))
	}
	return payload, "", nil
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
