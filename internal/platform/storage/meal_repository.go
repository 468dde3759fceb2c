package storage

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mealvision-server/internal/domain/meals"
	"mealvision-server/internal/domain/nutrition"
	platformerrors "mealvision-server/internal/platform/errors"

	"github.com/bytedance/sonic"
)

type mealRepository struct {
	db *gorm.DB
}

// NewMealRepository creates the SQLite-backed record repository.
func NewMealRepository(db *gorm.DB) meals.Repository {
	return &mealRepository{db: db}
}

func (r *mealRepository) Save(ctx context.Context, record *meals.Record) error {
	model, err := r.toModel(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "meals.save", "failed to save record", err)
	}
	return nil
}

func (r *mealRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*meals.Record, error) {
	if limit <= 0 || limit > meals.DefaultHistoryLimit {
		limit = meals.DefaultHistoryLimit
	}

	var models []MealRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "meals.list", "failed to list records", err)
	}

	records := make([]*meals.Record, 0, len(models))
	for i := range models {
		record, err := r.fromModel(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *mealRepository) FindByID(ctx context.Context, ownerID, id string) (*meals.Record, error) {
	var model MealRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "meals.find", "failed to find record", err)
	}
	return r.fromModel(&model)
}

func (r *mealRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&MealRecord{})
	if result.Error != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "meals.delete", "failed to delete record", result.Error)
	}
	return nil
}

func (r *mealRepository) toModel(record *meals.Record) (*MealRecord, error) {
	analysis, err := sonic.Marshal(record.Analysis)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "meals.save", "encode analysis", err)
	}
	return &MealRecord{
		ID:          record.ID,
		OwnerID:     record.OwnerID,
		FileName:    record.FileName,
		ArtifactURL: record.ArtifactURL,
		ArtifactKey: record.ArtifactKey,
		Analysis:    datatypes.JSON(analysis),
		CreatedAt:   record.CreatedAt,
	}, nil
}

func (r *mealRepository) fromModel(model *MealRecord) (*meals.Record, error) {
	var analysis nutrition.AnalysisResult
	if err := sonic.Unmarshal(model.Analysis, &analysis); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "meals.load", "decode analysis", err)
	}
	return &meals.Record{
		ID:          model.ID,
		OwnerID:     model.OwnerID,
		FileName:    model.FileName,
		ArtifactURL: model.ArtifactURL,
		ArtifactKey: model.ArtifactKey,
		Analysis:    &analysis,
		CreatedAt:   model.CreatedAt,
	}, nil
}
