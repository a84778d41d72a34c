package repositories

import (
	"context"
	"errors"

	"portfolio/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{
		db: db,
	}
}

// List returns every item, newest first.
func (r *GORMItemRepository) List(ctx context.Context) ([]models.Item, error) {
	items := make([]models.Item, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, translate(err, "list items")
	}
	return items, nil
}

// GetByID retrieves a single item by its ID from the database.
func (r *GORMItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get item by id")
	}
	return &item, nil
}

// Create creates a new item in the database. On return item holds the row
// as stored, so column rounding is visible to the caller.
func (r *GORMItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit("Owner").Create(item).Error; err != nil {
		return translate(err, "create item", "id")
	}

	stored, err := r.reload(db, item.ID)
	if err != nil {
		return err
	}
	*item = *stored
	return nil
}

// Update applies patch to the item with the given ID and returns the stored
// result. An unknown ID yields a RecordNotFound StoreError.
func (r *GORMItemRepository) Update(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error) {
	db := r.db.WithContext(ctx)

	var item models.Item
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("record to update not found")
		}
		return nil, translate(err, "load item for update")
	}
	if patch.Empty() {
		return &item, nil
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	// Select forces the patched columns to be written even when zero.
	if err := db.Model(&item).Select("Name", "Price").Updates(&item).Error; err != nil {
		return nil, translate(err, "update item")
	}
	return r.reload(db, id)
}

func (r *GORMItemRepository) reload(db *gorm.DB, id string) (*models.Item, error) {
	var stored models.Item
	if err := db.First(&stored, "id = ?", id).Error; err != nil {
		return nil, translate(err, "reload item")
	}
	return &stored, nil
}

// Delete removes the item with the given ID. Deleting an unknown ID is not
// an error.
func (r *GORMItemRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error; err != nil {
		return translate(err, "delete item")
	}
	return nil
}
