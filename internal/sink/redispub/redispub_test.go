package redispub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/vocabulary"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(channel, message)
	return redis.NewIntResult(1, args.Error(0))
}

func (m *mockClient) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_Send(t *testing.T) {
	session := uuid.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &mockClient{}
	client.On("Publish", "glove:predictions", mock.Anything).Return(nil).Once()

	p, err := newPublisher(client, "glove:predictions", session,
		WithPhrases(vocabulary.Default().Lookup),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	require.NoError(t, p.Send(context.Background(), reading.New(1, 2, 3), 1))
	client.AssertExpectations(t)

	var msg Message
	raw := client.Calls[0].Arguments.Get(1).([]byte)
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, Message{
		Session:    session,
		Values:     []float64{1, 2, 3},
		Prediction: 1,
		Phrase:     "how are you",
		SentAt:     now,
	}, msg)
}

func TestPublisher_SendUnknownGestureHasNoPhrase(t *testing.T) {
	client := &mockClient{}
	client.On("Publish", "ch", mock.Anything).Return(nil)
	p, err := newPublisher(client, "ch", uuid.New(), WithPhrases(vocabulary.Default().Lookup))
	require.NoError(t, err)
	require.NoError(t, p.Send(context.Background(), reading.New(1), 99))

	var msg Message
	require.NoError(t, json.Unmarshal(client.Calls[0].Arguments.Get(1).([]byte), &msg))
	require.Empty(t, msg.Phrase)
}

func TestPublisher_SendError(t *testing.T) {
	client := &mockClient{}
	client.On("Publish", "ch", mock.Anything).Return(errors.New("connection refused"))
	client.On("Close").Return(nil)
	p, err := newPublisher(client, "ch", uuid.New())
	require.NoError(t, err)
	require.Error(t, p.Send(context.Background(), reading.New(1), 0))
	require.NoError(t, p.Close())
}

func TestNewPublisher(t *testing.T) {
	_, err := newPublisher(&mockClient{}, "", uuid.New())
	require.Error(t, err)
}
