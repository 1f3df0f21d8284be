package usecase

import (
	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

type mockCoordinator struct {
	mock.Mock
	provider domain.Provider
}

func (m *mockCoordinator) Run(ctx domain.Context, req domain.ProviderRequest) domain.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Outcome)
}

func (m *mockCoordinator) Provider() domain.Provider { return m.provider }

type fakeProvider struct {
	configured bool
}

func (p fakeProvider) Name() string        { return "fake" }
func (p fakeProvider) DisplayName() string { return "Gemini" }
func (p fakeProvider) Configured() bool    { return p.configured }
func (p fakeProvider) Generate(domain.Context, string, domain.ProviderRequest) domain.Outcome {
	return domain.Outcome{}
}

func newMockCoordinator(configured bool) *mockCoordinator {
	return &mockCoordinator{provider: fakeProvider{configured: configured}}
}
