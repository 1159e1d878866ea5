package coach_test

import (
	"context"

	"glovy/backend/internal/broadcast"
	"glovy/backend/internal/coach"
	"glovy/backend/internal/models"
	"glovy/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify/mock implementation of the storage.Storage
// interface consumed by the processor.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetMatch(id string) (*models.Match, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockStorage) GetProfile(id string) (*models.Profile, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) GetRecentMessages(matchID string, limit int, opts storage.RecentMessagesOpts) ([]models.Message, error) {
	args := m.Called(matchID, limit, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) InsertCoachMessage(params storage.InsertCoachMessageParams) (*models.Message, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) MarkRepliedOnce(messageID string) (bool, error) {
	args := m.Called(messageID)
	return args.Bool(0), args.Error(1)
}

// MockBroadcaster records typing broadcasts for assertion.
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) GetOrCreateChannel(ctx context.Context, matchID string) (*broadcast.Channel, error) {
	args := m.Called(matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broadcast.Channel), args.Error(1)
}

func (m *MockBroadcaster) Send(ctx context.Context, ch *broadcast.Channel, event string, payload broadcast.TypingPayload) error {
	args := m.Called(ch, event, payload)
	return args.Error(0)
}

// MockClassifier stubs the trigger classification.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, cc coach.Context) (models.Trigger, error) {
	args := m.Called(cc)
	return args.Get(0).(models.Trigger), args.Error(1)
}

// MockGenerator stubs the reply generation.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateMessage(ctx context.Context, cc coach.Context, trigger models.Trigger) (string, error) {
	args := m.Called(cc, trigger)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) GenerateWhisper(ctx context.Context, cc coach.Context) (string, error) {
	args := m.Called(cc)
	return args.String(0), args.Error(1)
}

// MockNotifier records escalation alerts.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyEscalation(matchID string, trigger models.Trigger, tier string) {
	m.Called(matchID, trigger, tier)
}
