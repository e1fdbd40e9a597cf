package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/videohub/internal/models"
)

func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindAccountByLogin matches on whichever of username and email is non-empty.
func (r *GormRepo) FindAccountByLogin(ctx context.Context, username, email string) (*models.Account, error) {
	q := r.DB.WithContext(ctx).Model(&models.Account{})
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return nil, ErrNotFound
	}

	var a models.Account
	if err := q.First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormRepo) AccountExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetRefreshToken overwrites the session slot, superseding any earlier token.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, digest string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("refresh_token_hash", digest)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRefreshToken swaps the slot only if it still holds oldDigest.
// false means another caller rotated or revoked it first.
func (r *GormRepo) ReplaceRefreshToken(ctx context.Context, id uuid.UUID, oldDigest, newDigest string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND refresh_token_hash = ?", id, oldDigest).
		Update("refresh_token_hash", newDigest)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) UnsetRefreshToken(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("refresh_token_hash", nil).Error
}

// UpdatePassword stores the new hash and empties the session slot in one statement.
func (r *GormRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":      passwordHash,
			"refresh_token_hash": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
