package services

import (
	"context"
	"log/slog"
	"time"

	"portfolio/internal/models"
	"portfolio/internal/repositories"

	"github.com/shopspring/decimal"
)

// Routing keys for item lifecycle events.
const (
	EventItemCreated = "item.created"
	EventItemUpdated = "item.updated"
	EventItemDeleted = "item.deleted"
)

// EventPublisher delivers lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ItemEvent is the payload published for every item change.
type ItemEvent struct {
	Type       string       `json:"type"`
	ItemID     string       `json:"itemId"`
	ActorID    string       `json:"actorId"`
	Item       *models.Item `json:"item,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// ItemService handles business logic related to items.
type ItemService struct {
	repo      repositories.ItemRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewItemService creates a new ItemService. publisher may be nil, in which
// case no events are sent.
func NewItemService(repo repositories.ItemRepository, publisher EventPublisher, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateItemInput is the data needed to create an item.
type CreateItemInput struct {
	Name  string
	Price decimal.Decimal
}

// ListItems returns all items, newest first.
func (s *ItemService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.repo.List(ctx)
}

// GetItem retrieves a single item by its ID.
func (s *ItemService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateItem stores a new item owned by ownerID.
func (s *ItemService) CreateItem(ctx context.Context, ownerID string, in CreateItemInput) (*models.Item, error) {
	item := &models.Item{
		Name:    in.Name,
		Price:   in.Price,
		OwnerID: ownerID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, EventItemCreated, ownerID, item.ID, item)
	return item, nil
}

// UpdateItem applies patch to the item with the given ID. Any authenticated
// caller may update any item.
func (s *ItemService) UpdateItem(ctx context.Context, actorID, id string, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventItemUpdated, actorID, item.ID, item)
	return item, nil
}

// DeleteItem removes the item with the given ID; unknown IDs are ignored.
func (s *ItemService) DeleteItem(ctx context.Context, actorID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, EventItemDeleted, actorID, id, nil)
	return nil
}

// publish is best effort: a failed delivery is logged and never fails the
// request that caused it.
func (s *ItemService) publish(ctx context.Context, kind, actorID, itemID string, item *models.Item) {
	if s.publisher == nil {
		return
	}
	event := ItemEvent{
		Type:       kind,
		ItemID:     itemID,
		ActorID:    actorID,
		Item:       item,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, kind, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish item event",
			"event", kind,
			"item_id", itemID,
			"error", err,
		)
	}
}
