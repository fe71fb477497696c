package pubsub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/pubsub"
)

func TestSubject_ReplaysLatestToNewSubscribers(t *testing.T) {
	s := pubsub.NewSubject(false)
	s.Publish(true)

	ch, cancel := s.Subscribe()
	defer cancel()

	require.True(t, <-ch)
	v, ok := s.Value()
	assert.True(t, ok)
	assert.True(t, v)
}

func TestSubject_SlowSubscriberSeesLatestOnly(t *testing.T) {
	s := pubsub.NewSubject(0)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		s.Publish(i)
	}
	assert.Equal(t, 5, <-ch)
}

func TestBroadcaster_DeliversOnlyAfterSubscribe(t *testing.T) {
	b := pubsub.NewBroadcaster[string](4)
	b.Publish("before")

	ch, cancel := b.Subscribe()
	b.Publish("after")

	assert.Equal(t, "after", <-ch)
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcaster_DropsOldestWhenFull(t *testing.T) {
	b := pubsub.NewBroadcaster[int](2)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	assert.Equal(t, 2, <-ch)
	assert.Equal(t, 3, <-ch)
}

func TestSubject_CloseClosesSubscribers(t *testing.T) {
	s := pubsub.NewSubject("x")
	ch, cancel := s.Subscribe()
	<-ch
	s.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
