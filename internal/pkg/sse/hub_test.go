package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	h := NewHub(4)

	a, cleanA := h.Subscribe(TopicTeam)
	defer cleanA()
	b, cleanB := h.Subscribe(TopicTeam)
	defer cleanB()
	other, cleanOther := h.Subscribe("other")
	defer cleanOther()

	h.Publish(TopicTeam, Event{Event: "presence", Data: "x"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, TopicTeam, ev.Topic)
			assert.Equal(t, "presence", ev.Event)
			assert.Equal(t, "x", ev.Data)
		default:
			t.Fatal("expected an event")
		}
	}

	select {
	case <-other:
		t.Fatal("other topic must not receive team events")
	default:
	}
}

func TestHub_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	h := NewHub(1)
	ch, cleanup := h.Subscribe(TopicTeam)
	defer cleanup()

	h.Publish(TopicTeam, Event{Event: "first"})
	h.Publish(TopicTeam, Event{Event: "second"})

	ev := <-ch
	assert.Equal(t, "first", ev.Event)
	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	h := NewHub(0)
	ch, cleanup := h.Subscribe(TopicTeam)
	require.Equal(t, 1, h.SubscriberCount(TopicTeam))

	cleanup()
	cleanup()

	assert.Equal(t, 0, h.SubscriberCount(TopicTeam))
	_, open := <-ch
	assert.False(t, open)

	// publishing to a topic with no subscribers is a no-op
	h.Publish(TopicTeam, Event{Event: "presence"})
}
