package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(TopicComplaintUpdated, func(e Event) { got = append(got, "complaints:"+e.EntityID) })
	bus.Subscribe(" Complaint.Updated ", func(e Event) { got = append(got, "urgent:"+e.EntityID) })
	bus.Subscribe(TopicActionItemUpdated, func(e Event) { got = append(got, "actions:"+e.EntityID) })

	bus.Publish(Event{Topic: TopicComplaintUpdated, EntityID: "c1"})

	require.Equal(t, []string{"complaints:c1", "urgent:c1"}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(TopicActionItemUpdated, func(Event) { calls++ })
	require.Equal(t, 1, bus.Subscribers(TopicActionItemUpdated))

	bus.Publish(Event{Topic: TopicActionItemUpdated})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Topic: TopicActionItemUpdated})

	require.Equal(t, 1, calls)
	require.Zero(t, bus.Subscribers(TopicActionItemUpdated))
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(TopicComplaintUpdated, func(Event) { panic("boom") })
	bus.Subscribe(TopicComplaintUpdated, func(Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(Event{Topic: TopicComplaintUpdated, EntityID: "c1"})
	})
	require.True(t, delivered)
}

func TestSubscribeIgnoresEmptyInput(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("", func(Event) {})
	bus.Subscribe(TopicComplaintUpdated, nil)
	require.Zero(t, bus.Subscribers(TopicComplaintUpdated))
	bus.Publish(Event{})
}
