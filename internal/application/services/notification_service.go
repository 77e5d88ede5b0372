package services

import (
	"context"
	"fmt"
	"log"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

// NotificationService turns record events into in-app notification rows.
// It subscribes to the EventBus at startup; the outbox worker drives it.
type NotificationService struct {
	notifications *persistence.NotificationRepository
	users         *persistence.UserRepository
}

func NewNotificationService(notifications *persistence.NotificationRepository, users *persistence.UserRepository) *NotificationService {
	return &NotificationService{notifications: notifications, users: users}
}

// RegisterHandlers subscribes the notification handlers to the bus
func (s *NotificationService) RegisterHandlers(bus *EventBus) {
	bus.Subscribe(events.WorkOrderCreated, s.handleEvent)
	bus.Subscribe(events.WorkOrderAssigned, s.handleEvent)
	bus.Subscribe(events.WorkOrderCompleted, s.handleEvent)
	bus.Subscribe(events.WorkOrderEscalated, s.handleEvent)
	bus.Subscribe(events.PartLowStock, s.handleEvent)
	bus.Subscribe(events.AssetStatusChanged, s.handleEvent)
}

// notificationText maps an event to a title and stored notification type.
// Work orders created by the scheduler are tagged pm_created so the UI can
// group them.
func notificationText(e events.RecordEvent) (title, notifType string) {
	switch e.EventType {
	case events.WorkOrderCreated:
		notifType = constants.NotificationTypeAssignment
		if e.ActorID == constants.SystemUserID {
			notifType = constants.NotificationTypePMCreated
		}
		return fmt.Sprintf("New work order: %s", e.RecordName), notifType
	case events.WorkOrderAssigned:
		return fmt.Sprintf("Assigned to you: %s", e.RecordName), constants.NotificationTypeAssignment
	case events.WorkOrderCompleted:
		return fmt.Sprintf("Completed: %s", e.RecordName), constants.NotificationTypeCompletion
	case events.WorkOrderEscalated:
		return fmt.Sprintf("Escalated: %s", e.RecordName), constants.NotificationTypeEscalation
	case events.PartLowStock:
		return fmt.Sprintf("Low stock: %s", e.RecordName), constants.NotificationTypeLowStock
	case events.AssetStatusChanged:
		return fmt.Sprintf("Asset status changed: %s", e.RecordName), constants.NotificationTypeEscalation
	}
	return e.RecordName, "info"
}

// handleEvent fans an event out to its recipients. A direct recipient gets
// one row; a notify_role gets one row per active user with that role. The
// actor never gets notified about their own action.
func (s *NotificationService) handleEvent(ctx context.Context, e events.RecordEvent) error {
	title, notifType := notificationText(e)

	recipients := []string{}
	if e.RecipientID != "" {
		recipients = append(recipients, e.RecipientID)
	}
	if e.NotifyRole != "" {
		users, err := s.users.FindByRole(ctx, e.NotifyRole)
		if err != nil {
			return fmt.Errorf("failed to resolve role %s: %w", e.NotifyRole, err)
		}
		for _, u := range users {
			recipients = append(recipients, u.ID)
		}
	}

	seen := map[string]bool{}
	created := 0
	for _, recipientID := range recipients {
		if recipientID == "" || recipientID == e.ActorID || seen[recipientID] {
			continue
		}
		seen[recipientID] = true

		n := &models.Notification{
			ID:          utils.GenerateID(),
			RecipientID: recipientID,
			Title:       title,
			Body:        e.Detail,
			Link:        e.Link,
			Type:        notifType,
		}
		if err := s.notifications.Insert(ctx, n); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		created++
	}

	if created > 0 {
		log.Printf("🔔 %s: notified %d recipients", e.EventType, created)
	}
	return nil
}

// ListNotifications returns recent notifications for a user
func (s *NotificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	return s.notifications.ListForRecipient(ctx, userID, unreadOnly, limit)
}

// MarkRead flags a notification read for its recipient
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.notifications.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Notification", id)
	}
	return nil
}
