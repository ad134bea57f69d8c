package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/config"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/outbox"
)

func TestNewPublisherRequiresBrokers(t *testing.T) {
	_, err := NewPublisher(config.KafkaConfig{Brokers: []string{" "}}, nil)
	require.Error(t, err)

	p, err := NewPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultWriteTimeout, p.writeTimeout)
}

func TestWriterIsCachedPerTopic(t *testing.T) {
	p, err := NewPublisher(config.KafkaConfig{Brokers: []string{"a:9092", "b:9092"}, WriteTimeout: time.Second}, nil)
	require.NoError(t, err)

	bets := p.writer("bets.events")
	assert.Same(t, bets, p.writer("bets.events"))
	assert.NotSame(t, bets, p.writer("games.events"))
	assert.Equal(t, "bets.events", bets.Topic)
	assert.Equal(t, time.Second, bets.WriteTimeout)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestPublishRejectsEmptyTopic(t *testing.T) {
	p, err := NewPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	require.Error(t, p.Publish(context.Background(), " ", outbox.Message{}))
}

func TestToKafkaMessage(t *testing.T) {
	msg := toKafkaMessage(outbox.Message{
		Key:        "game-1",
		Data:       []byte(`{"x":1}`),
		Attributes: map[string]string{"event_type": "game_drawn", "aggregate_type": "game"},
	})
	assert.Equal(t, []byte("game-1"), msg.Key)
	assert.Equal(t, []byte(`{"x":1}`), msg.Value)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "aggregate_type", msg.Headers[0].Key)
	assert.Equal(t, "event_type", msg.Headers[1].Key)
	assert.Equal(t, []byte("game_drawn"), msg.Headers[1].Value)
}
