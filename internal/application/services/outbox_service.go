package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/metrics"
)

// OutboxService handles transactional event storage and async publishing.
// Business services enqueue events inside their own transaction; the worker
// polls pending rows and publishes them to the EventBus.
type OutboxService struct {
	db       *database.Connection
	repo     *persistence.OutboxRepository
	eventBus *EventBus

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewOutboxService creates a new OutboxService
func NewOutboxService(db *database.Connection, eventBus *EventBus) *OutboxService {
	return &OutboxService{
		db:       db,
		repo:     persistence.NewOutboxRepository(db.DB()),
		eventBus: eventBus,
		stopCh:   make(chan struct{}),
	}
}

// EnqueueTx stores an event in the outbox within the given transaction so
// it commits atomically with the business write.
func (s *OutboxService) EnqueueTx(ctx context.Context, tx *sql.Tx, event events.RecordEvent) error {
	_, err := s.repo.Enqueue(ctx, tx, string(event.EventType), event)
	return err
}

// StartWorker starts the background worker that dispatches pending events
func (s *OutboxService) StartWorker(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("📤 Outbox worker started with %v interval", interval)

		for {
			select {
			case <-s.stopCh:
				log.Printf("📤 Outbox worker stopping...")
				return
			case <-ticker.C:
				if err := s.ProcessOutbox(context.Background()); err != nil {
					log.Printf("⚠️ Outbox worker error: %v", err)
				}
			}
		}
	}()
}

// StopWorker stops the background worker gracefully
func (s *OutboxService) StopWorker() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	log.Printf("📤 Outbox worker stopped")
}

// ProcessOutbox delivers one batch of pending events. Exported so tests
// and the manual health check can drive it directly.
func (s *OutboxService) ProcessOutbox(ctx context.Context) error {
	pending, err := s.repo.FetchPending(ctx, constants.OutboxBatchSize)
	if err != nil {
		return err
	}

	for _, row := range pending {
		var event events.RecordEvent
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			log.Printf("⚠️ [Outbox] Dropping undecodable event %s: %v", row.ID, err)
			_ = s.repo.MarkFailed(ctx, row.ID, 0)
			continue
		}

		publishErr := s.eventBus.Publish(ctx, event)
		metrics.RecordOutboxEvent(row.EventType, publishErr)

		if publishErr != nil {
			log.Printf("⚠️ [Outbox] Failed to publish event %s (attempt %d): %v", row.ID, row.Attempts+1, publishErr)
			if err := s.repo.MarkFailed(ctx, row.ID, constants.OutboxMaxAttempts); err != nil {
				return err
			}
			continue
		}

		if err := s.repo.MarkProcessed(ctx, row.ID); err != nil {
			return err
		}
	}
	return nil
}
