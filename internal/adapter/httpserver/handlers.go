package httpserver

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
	"github.com/fairyhunter13/fitgenie-relay/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Chat     usecase.ChatService
	Generate usecase.GenerateService
	// Checks run by /readyz, keyed by name. A nil map reports ready.
	Checks map[string]func(ctx context.Context) error
}

// NewServer constructs a Server with its handlers' dependencies.
func NewServer(cfg config.Config, chat usecase.ChatService, gen usecase.GenerateService, checks map[string]func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Chat: chat, Generate: gen, Checks: checks}
}

func (s *Server) maxBody() int64 {
	if s.Cfg.MaxBodyBytes > 0 {
		return s.Cfg.MaxBodyBytes
	}
	return 1 << 20
}

type chatRequest struct {
	Message FlexString  `json:"message" validate:"max=8000"`
	History interface{} `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler answers POST /chat.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeJSON(w, r, s.maxBody(), &req) {
			return
		}
		res, err := s.Chat.Reply(r.Context(), req.Message.String(), req.History)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: res.Reply})
	}
}

type workoutsRequest struct {
	Goal           FlexString `json:"goal" validate:"max=500"`
	Equipment      FlexString `json:"equipment" validate:"max=500"`
	TimePerSession FlexString `json:"timePerSession" validate:"max=100"`
	FitnessLevel   FlexString `json:"fitnessLevel" validate:"max=100"`
}

type workoutsResponse struct {
	Workouts []domain.Workout `json:"workouts"`
	Note     string           `json:"note,omitempty"`
}

// WorkoutsHandler answers POST /generate-workouts.
func (s *Server) WorkoutsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req workoutsRequest
		if !decodeJSON(w, r, s.maxBody(), &req) {
			return
		}
		res, err := s.Generate.Workouts(r.Context(), usecase.WorkoutParams{
			Goal:           req.Goal.String(),
			Equipment:      req.Equipment.String(),
			TimePerSession: req.TimePerSession.String(),
			FitnessLevel:   req.FitnessLevel.String(),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, workoutsResponse{Workouts: res.Workouts, Note: res.Note})
	}
}

type wellnessRequest struct {
	Goal FlexString `json:"goal" validate:"max=500"`
}

type wellnessResponse struct {
	Sessions []domain.WellnessSession `json:"sessions"`
	Note     string                   `json:"note,omitempty"`
}

// WellnessHandler answers POST /generate-wellness.
func (s *Server) WellnessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wellnessRequest
		if !decodeJSON(w, r, s.maxBody(), &req) {
			return
		}
		res, err := s.Generate.Wellness(r.Context(), usecase.WellnessParams{Goal: req.Goal.String()})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, wellnessResponse{Sessions: res.Sessions, Note: res.Note})
	}
}

// HealthHandler is the liveness probe; it never touches dependencies.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

type readinessCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

// ReadyzHandler runs every configured check and reports 503 if any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		names := sortedKeys(s.Checks)
		checks := make([]readinessCheck, 0, len(names))
		ok := true
		for _, name := range names {
			c := readinessCheck{Name: name, OK: true}
			if err := s.Checks[name](ctx); err != nil {
				c.OK = false
				c.Details = err.Error()
				ok = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"ok": ok, "checks": checks})
	}
}

func sortedKeys(m map[string]func(context.Context) error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
