package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

func TestWorkoutParams_WithDefaults(t *testing.T) {
	t.Parallel()

	got := WorkoutParams{Goal: "  ", FitnessLevel: "Advanced"}.WithDefaults()
	assert.Equal(t, WorkoutParams{
		Goal:           DefaultWorkoutGoal,
		Equipment:      DefaultEquipment,
		TimePerSession: DefaultTimePerSession,
		FitnessLevel:   "Advanced",
	}, got)
	assert.Equal(t, DefaultWellnessGoal, WellnessParams{}.WithDefaults().Goal)
}

func TestGenerateService_Workouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantLen  int
		wantNote string
	}{
		{name: "direct_json", text: `{"workouts":[{"title":"A","focus":"B","durationMinutes":20}]}`, wantLen: 1},
		{name: "fenced_json", text: "Sure!\n```json\n{\"workouts\":[{\"title\":\"A\",\"focus\":\"B\",\"durationMinutes\":20},{\"title\":\"\",\"focus\":\"B\",\"durationMinutes\":20}]}\n```", wantLen: 1},
		{name: "malformed", text: "I cannot produce JSON today", wantLen: 0},
		{name: "empty", text: "", wantLen: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			coord := newMockCoordinator(true)
			coord.On("Run", mock.Anything, mock.MatchedBy(func(req domain.ProviderRequest) bool {
				return strings.Contains(req.Message, "Fitness level: Beginner") &&
					strings.Contains(req.Message, "Equipment: Dumbbells") &&
					len(req.History) == 0
			})).Return(domain.Success("m", tt.text))

			svc := NewGenerateService(coord, config.DefaultPrompts(), nil)
			got, err := svc.Workouts(context.Background(), WorkoutParams{Equipment: "Dumbbells"})
			require.NoError(t, err)
			require.NotNil(t, got.Workouts)
			assert.Len(t, got.Workouts, tt.wantLen)
			assert.Empty(t, got.Note)
			coord.AssertExpectations(t)
		})
	}
}

func TestGenerateService_Workouts_RateLimited(t *testing.T) {
	t.Parallel()

	coord := newMockCoordinator(true)
	coord.On("Run", mock.Anything, mock.Anything).Return(domain.RateLimited("m"))

	got, err := NewGenerateService(coord, config.DefaultPrompts(), nil).Workouts(context.Background(), WorkoutParams{})
	require.NoError(t, err)
	assert.Empty(t, got.Workouts)
	assert.NotNil(t, got.Workouts)
	assert.Equal(t, MsgRateLimited, got.Note)
}

func TestGenerateService_Workouts_UpstreamFailure(t *testing.T) {
	t.Parallel()

	coord := newMockCoordinator(true)
	coord.On("Run", mock.Anything, mock.Anything).Return(domain.Failure("m", domain.FailureRejected, 500, "boom"))

	got, err := NewGenerateService(coord, config.DefaultPrompts(), nil).Workouts(context.Background(), WorkoutParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRejected)
	assert.NotNil(t, got.Workouts)
}

func TestGenerateService_Wellness(t *testing.T) {
	t.Parallel()

	coord := newMockCoordinator(true)
	coord.On("Run", mock.Anything, mock.MatchedBy(func(req domain.ProviderRequest) bool {
		return req.Message == "Goal: Reduce stress and improve sleep" &&
			strings.Contains(req.SystemPrompt, "sessions")
	})).Return(domain.Success("m", `Here: {"sessions":[{"title":"Breath","duration":5,"description":"Slow.","category":"Breathing"}]} done`))

	got, err := NewGenerateService(coord, config.DefaultPrompts(), nil).Wellness(context.Background(), WellnessParams{})
	require.NoError(t, err)
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, "5 min", got.Sessions[0].Duration)
}

func TestGenerateService_NotConfigured(t *testing.T) {
	t.Parallel()

	coord := newMockCoordinator(false)
	_, err := NewGenerateService(coord, config.DefaultPrompts(), nil).Wellness(context.Background(), WellnessParams{Goal: "Sleep"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
