package mqtt

import (
	"sync"

	"github.com/voltplan/voltplan/core/model"
	coremqtt "github.com/voltplan/voltplan/core/mqtt"
)

// Publisher mirrors the core publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published actions for tests.
type MockPublisher struct {
	mu      sync.Mutex
	Actions []model.Action
	Err     error
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishAction records the action or returns the configured error.
func (m *MockPublisher) PublishAction(a model.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Actions = append(m.Actions, a)
	return nil
}

// Published returns a copy of the recorded actions.
func (m *MockPublisher) Published() []model.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.Action, len(m.Actions))
	copy(cp, m.Actions)
	return cp
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
