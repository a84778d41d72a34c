package repositories

import (
	"context"

	"portfolio/internal/models"
)

// ItemRepository defines the interface for item data access.
type ItemRepository interface {
	List(ctx context.Context) ([]models.Item, error)
	GetByID(ctx context.Context, id string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error)
	Delete(ctx context.Context, id string) error
}
