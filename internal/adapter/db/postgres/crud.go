package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "user-item-service/pkg/errors"
)

// crudBase provides generic create/read/update/delete/list operations over a
// GORM schema type. Entity repositories embed it and add their own queries.
type crudBase[S any] struct {
	db  *gorm.DB
	log *zap.Logger
}

// get fetches a single record by primary key. An absent record is reported
// as (nil, nil), not as an error.
func (c *crudBase[S]) get(ctx context.Context, id int64) (*S, error) {
	var model S
	if err := c.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		c.log.Error("failed to get record from db", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &model, nil
}

// getMulti returns up to limit records after skipping skip, ordered by
// primary key so that paging is stable. A limit of zero selects no rows;
// negative values are invalid input. Callers supply their own default.
func (c *crudBase[S]) getMulti(ctx context.Context, skip, limit int) ([]S, error) {
	if skip < 0 || limit < 0 {
		return nil, pkgerrors.NewValidationError("pagination", "skip and limit must not be negative")
	}

	var models []S
	if err := c.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&models).Error; err != nil {
		c.log.Error("failed to list records from db", zap.Int("skip", skip), zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return models, nil
}

// create inserts a new record, letting the store assign identifier and
// timestamps. Associations are never saved implicitly.
func (c *crudBase[S]) create(ctx context.Context, model *S) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		c.log.Error("failed to create record in db", zap.Error(err))
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// updateFields applies a partial update to the record with the given id and
// returns the refreshed record. An empty field set still touches updated_at,
// matching the contract that a no-op update refreshes the timestamp.
func (c *crudBase[S]) updateFields(ctx context.Context, id int64, fields map[string]any) (*S, error) {
	if len(fields) == 0 {
		fields = map[string]any{"updated_at": time.Now()}
	}

	res := c.db.WithContext(ctx).Model(new(S)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		c.log.Error("failed to update record in db", zap.Int64("id", id), zap.Error(res.Error))
		return nil, fmt.Errorf("failed to update record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.NewNotFoundError("record", "")
	}

	return c.get(ctx, id)
}

// remove deletes the record with the given id. Deleting an absent record is
// a NotFoundError, for symmetry with endpoint behavior.
func (c *crudBase[S]) remove(ctx context.Context, id int64) error {
	res := c.db.WithContext(ctx).Delete(new(S), id)
	if res.Error != nil {
		c.log.Error("failed to delete record in db", zap.Int64("id", id), zap.Error(res.Error))
		return fmt.Errorf("failed to delete record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("record", "")
	}
	return nil
}

// isDuplicateKey reports whether err is a uniqueness-constraint violation.
// GORM translates these for drivers that support it; the string checks cover
// drivers that do not.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}
