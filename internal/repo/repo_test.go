package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/videohub/internal/config"
	"github.com/Skotchmaster/videohub/internal/db"
	"github.com/Skotchmaster/videohub/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return New(gdb)
}

func seedAccount(t *testing.T, r *GormRepo, username string) *models.Account {
	t.Helper()
	a := &models.Account{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		PasswordHash: "hash",
	}
	require.NoError(t, r.CreateAccount(context.Background(), a))
	require.NotEqual(t, uuid.Nil, a.ID)
	return a
}

func TestAccount_CreateAndLookup(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := seedAccount(t, r, "ana")

	got, err := r.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Nil(t, got.RefreshTokenHash)

	byName, err := r.FindAccountByLogin(ctx, "ana", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)

	byEmail, err := r.FindAccountByLogin(ctx, "", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	byEither, err := r.FindAccountByLogin(ctx, "nobody", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEither.ID)

	_, err = r.FindAccountByLogin(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindAccountByLogin(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.GetAccountByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := r.AccountExists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.AccountExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccount_DuplicateIsConflict(t *testing.T) {
	r := newTestRepo(t)
	seedAccount(t, r, "ana")

	err := r.CreateAccount(context.Background(), &models.Account{
		Username:     "ana",
		Email:        "other@example.com",
		FullName:     "Other",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAccount_RefreshSlot(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := seedAccount(t, r, "ana")

	require.NoError(t, r.SetRefreshToken(ctx, a.ID, "d1"))
	assert.ErrorIs(t, r.SetRefreshToken(ctx, uuid.New(), "d1"), ErrNotFound)

	swapped, err := r.ReplaceRefreshToken(ctx, a.ID, "stale", "d2")
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = r.ReplaceRefreshToken(ctx, a.ID, "d1", "d2")
	require.NoError(t, err)
	assert.True(t, swapped)

	got, err := r.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, "d2", *got.RefreshTokenHash)

	require.NoError(t, r.UnsetRefreshToken(ctx, a.ID))
	require.NoError(t, r.UnsetRefreshToken(ctx, a.ID))

	got, err = r.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshTokenHash)

	swapped, err = r.ReplaceRefreshToken(ctx, a.ID, "d2", "d3")
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestAccount_UpdatePasswordClearsSlot(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := seedAccount(t, r, "ana")
	require.NoError(t, r.SetRefreshToken(ctx, a.ID, "d1"))

	require.NoError(t, r.UpdatePassword(ctx, a.ID, "new-hash"))

	got, err := r.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Nil(t, got.RefreshTokenHash)

	assert.ErrorIs(t, r.UpdatePassword(ctx, uuid.New(), "x"), ErrNotFound)
}

func TestRelation_Lifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	actor, target := uuid.New(), uuid.New()

	_, err := r.FindRelation(ctx, actor, target, models.KindVideoLike)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.InsertRelation(ctx, &models.Relation{ActorID: actor, TargetID: target, Kind: models.KindVideoLike}))

	err = r.InsertRelation(ctx, &models.Relation{ActorID: actor, TargetID: target, Kind: models.KindVideoLike})
	assert.ErrorIs(t, err, ErrConflict)

	// same pair, different kind is a separate key
	require.NoError(t, r.InsertRelation(ctx, &models.Relation{ActorID: actor, TargetID: target, Kind: models.KindCommentLike}))

	rel, err := r.FindRelation(ctx, actor, target, models.KindVideoLike)
	require.NoError(t, err)
	assert.Equal(t, actor, rel.ActorID)
	assert.Equal(t, target, rel.TargetID)

	n, err := r.CountRelations(ctx, target, models.KindVideoLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := r.DeleteRelation(ctx, actor, target, models.KindVideoLike)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.DeleteRelation(ctx, actor, target, models.KindVideoLike)
	require.NoError(t, err)
	assert.False(t, removed)

	n, err = r.CountRelations(ctx, target, models.KindVideoLike)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: relations.actor_id (2067)")))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.ErrorIs(t, translate(errors.New("UNIQUE constraint failed: accounts.username")), ErrConflict)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
}
