package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/pkg/constants"
)

func TestEventBusPublish(t *testing.T) {
	bus := NewEventBus()

	var received []events.RecordEvent
	bus.Subscribe(events.WorkOrderAssigned, func(ctx context.Context, e events.RecordEvent) error {
		received = append(received, e)
		return nil
	})

	err := bus.Publish(context.Background(), events.RecordEvent{
		EventType:   events.WorkOrderAssigned,
		RecordID:    "wo-1",
		RecipientID: "tech-1",
	})
	assert.NoError(t, err)
	assert.Len(t, received, 1)
	assert.Equal(t, "wo-1", received[0].RecordID)

	// Unsubscribed event types are a no-op
	err = bus.Publish(context.Background(), events.RecordEvent{EventType: events.PartLowStock})
	assert.NoError(t, err)
	assert.Len(t, received, 1)
}

func TestEventBusHandlerErrorAbortsDelivery(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(events.WorkOrderCompleted, func(ctx context.Context, e events.RecordEvent) error {
		calls++
		return fmt.Errorf("boom")
	})
	bus.Subscribe(events.WorkOrderCompleted, func(ctx context.Context, e events.RecordEvent) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), events.RecordEvent{EventType: events.WorkOrderCompleted})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEventBusClear(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(events.WorkOrderCreated, func(ctx context.Context, e events.RecordEvent) error {
		calls++
		return nil
	})
	bus.Clear()

	assert.NoError(t, bus.Publish(context.Background(), events.RecordEvent{EventType: events.WorkOrderCreated}))
	assert.Equal(t, 0, calls)
}

func TestNotificationText(t *testing.T) {
	// Scheduler-created work orders are tagged separately from manual ones
	title, notifType := notificationText(events.RecordEvent{
		EventType:  events.WorkOrderCreated,
		RecordName: "WO-00007 PM: Monthly inspection",
		ActorID:    constants.SystemUserID,
	})
	assert.Equal(t, "New work order: WO-00007 PM: Monthly inspection", title)
	assert.Equal(t, constants.NotificationTypePMCreated, notifType)

	_, notifType = notificationText(events.RecordEvent{
		EventType: events.WorkOrderCreated,
		ActorID:   "mgr-1",
	})
	assert.Equal(t, constants.NotificationTypeAssignment, notifType)

	title, notifType = notificationText(events.RecordEvent{
		EventType:  events.PartLowStock,
		RecordName: "V-Belt 220mm",
	})
	assert.Equal(t, "Low stock: V-Belt 220mm", title)
	assert.Equal(t, constants.NotificationTypeLowStock, notifType)
}
