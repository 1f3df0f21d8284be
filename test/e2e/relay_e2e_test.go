//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_Health(t *testing.T) {
	resp, err := newClient().Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_Chat(t *testing.T) {
	status, body := postJSON(t, "/chat", map[string]any{
		"message": "Give me one tip for better sleep.",
		"history": []map[string]string{
			{"role": "user", "content": "Hi"},
			{"role": "assistant", "content": "Hello! How can I help?"},
		},
	})
	require.Equal(t, http.StatusOK, status, body)
	reply, _ := body["reply"].(string)
	assert.NotEmpty(t, reply)
}

func TestE2E_Chat_MissingMessage(t *testing.T) {
	status, body := postJSON(t, "/chat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "message is required", body["error"])
}

func TestE2E_GenerateWorkouts(t *testing.T) {
	status, body := postJSON(t, "/generate-workouts", map[string]any{
		"goal":           "Build strength",
		"equipment":      "Dumbbells",
		"timePerSession": "30 minutes",
		"fitnessLevel":   "Intermediate",
	})
	require.Equal(t, http.StatusOK, status, body)
	workouts, ok := body["workouts"].([]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(workouts), 12)
	for _, it := range workouts {
		w := it.(map[string]any)
		assert.NotEmpty(t, w["title"])
		assert.NotEmpty(t, w["focus"])
		assert.Greater(t, w["durationMinutes"].(float64), 0.0)
	}
}

func TestE2E_GenerateWellness(t *testing.T) {
	status, body := postJSON(t, "/generate-wellness", map[string]any{"goal": "Reduce stress"})
	require.Equal(t, http.StatusOK, status, body)
	sessions, ok := body["sessions"].([]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(sessions), 10)
}
