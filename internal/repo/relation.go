package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videohub/internal/models"
)

func (r *GormRepo) FindRelation(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (*models.Relation, error) {
	var rel models.Relation
	if err := r.DB.WithContext(ctx).
		Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		First(&rel).Error; err != nil {
		return nil, translate(err)
	}
	return &rel, nil
}

// InsertRelation returns ErrConflict when the key is already present.
func (r *GormRepo) InsertRelation(ctx context.Context, rel *models.Relation) error {
	return translate(r.DB.WithContext(ctx).Create(rel).Error)
}

func (r *GormRepo) DeleteRelation(ctx context.Context, actorID, targetID uuid.UUID, kind models.Kind) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Delete(&models.Relation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) CountRelations(ctx context.Context, targetID uuid.UUID, kind models.Kind) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Relation{}).
		Where("target_id = ? AND kind = ?", targetID, kind).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
