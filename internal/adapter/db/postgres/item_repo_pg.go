package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "user-item-service/internal/domain/item"
	pkgerrors "user-item-service/pkg/errors"
)

// ItemSchema represents the database schema for the items table. Each item
// references exactly one owning user through OwnerID.
type ItemSchema struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"not null"`
	Description *string
	OwnerID     int64      `gorm:"not null;index"`
	Owner       UserSchema `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the ItemSchema model.
func (ItemSchema) TableName() string {
	return "items"
}

// ItemRepoPG implements item data access using GORM.
type ItemRepoPG struct {
	crudBase[ItemSchema]
}

// NewItemRepoPG creates a new instance of ItemRepoPG.
func NewItemRepoPG(db *gorm.DB, log *zap.Logger) *ItemRepoPG {
	return &ItemRepoPG{crudBase[ItemSchema]{db: db, log: log}}
}

// Create inserts a new item into the database. The owner must reference an
// existing user.
func (r *ItemRepoPG) Create(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	if it == nil {
		return nil, errors.New("item cannot be nil")
	}

	model := itemFromDomain(it)
	if err := r.create(ctx, model); err != nil {
		return nil, pkgerrors.NewInternalError("failed to create item", err)
	}

	r.log.Info("item created in db", zap.Int64("id", model.ID), zap.Int64("owner_id", model.OwnerID))
	return itemToDomain(model), nil
}

// GetByID retrieves an item by ID. Returns (nil, nil) when absent.
func (r *ItemRepoPG) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	model, err := r.get(ctx, id)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to get item", err)
	}
	if model == nil {
		return nil, nil
	}
	return itemToDomain(model), nil
}

// Update applies a partial update to an existing item.
func (r *ItemRepoPG) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.Item, error) {
	fields := make(map[string]any)
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = nullableString(*patch.Description)
	}

	model, err := r.updateFields(ctx, id, fields)
	if err != nil {
		var notFound *pkgerrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, pkgerrors.NewNotFoundError("item", fmt.Sprintf("item not found: id=%d", id))
		}
		return nil, pkgerrors.NewInternalError("failed to update item", err)
	}

	r.log.Info("item updated in db", zap.Int64("id", id))
	return itemToDomain(model), nil
}

// Delete removes an item from the database by ID.
func (r *ItemRepoPG) Delete(ctx context.Context, id int64) error {
	if err := r.remove(ctx, id); err != nil {
		var notFound *pkgerrors.NotFoundError
		if errors.As(err, &notFound) {
			return pkgerrors.NewNotFoundError("item", fmt.Sprintf("item not found: id=%d", id))
		}
		return pkgerrors.NewInternalError("failed to delete item", err)
	}

	r.log.Info("item deleted in db", zap.Int64("id", id))
	return nil
}

// List retrieves items ordered by primary key with offset/limit pagination.
func (r *ItemRepoPG) List(ctx context.Context, skip, limit int) ([]domain.Item, error) {
	models, err := r.getMulti(ctx, skip, limit)
	if err != nil {
		var invalid *pkgerrors.ValidationError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, pkgerrors.NewInternalError("failed to list items", err)
	}

	items := make([]domain.Item, len(models))
	for i := range models {
		items[i] = *itemToDomain(&models[i])
	}
	return items, nil
}

// ListByOwner retrieves the items owned by the given user. The relationship
// is queried explicitly rather than through a back-reference collection.
func (r *ItemRepoPG) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Item, error) {
	var models []ItemSchema
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list items by owner", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list items by owner", err)
	}

	items := make([]domain.Item, len(models))
	for i := range models {
		items[i] = *itemToDomain(&models[i])
	}
	return items, nil
}

// CountByOwner reports how many items reference the given user.
func (r *ItemRepoPG) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ItemSchema{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		r.log.Error("failed to count items by owner", zap.Int64("owner_id", ownerID), zap.Error(err))
		return 0, pkgerrors.NewInternalError("failed to count items by owner", err)
	}
	return count, nil
}

func itemFromDomain(it *domain.Item) *ItemSchema {
	return &ItemSchema{
		ID:          it.ID,
		Title:       it.Title,
		Description: nullableString(it.Description),
		OwnerID:     it.OwnerID,
	}
}

func itemToDomain(m *ItemSchema) *domain.Item {
	it := &domain.Item{
		ID:        m.ID,
		Title:     m.Title,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Description != nil {
		it.Description = *m.Description
	}
	return it
}
