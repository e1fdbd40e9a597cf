package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/videohub/internal/config"
	"github.com/Skotchmaster/videohub/internal/db"
	"github.com/Skotchmaster/videohub/internal/hash"
	"github.com/Skotchmaster/videohub/internal/models"
	"github.com/Skotchmaster/videohub/internal/repo"
	"github.com/Skotchmaster/videohub/internal/tokens"
)

func init() {
	hash.Cost = bcrypt.MinCost
}

type relKey struct {
	actor, target uuid.UUID
	kind          models.Kind
}

// memStore is an in-memory store. When findGate is set, FindRelation blocks
// until every expected caller has finished its lookup, which forces racing
// togglers to observe the same state.
type memStore struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]*models.Account
	relations map[relKey]*models.Relation
	findGate  *sync.WaitGroup
	err       error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  map[uuid.UUID]*models.Account{},
		relations: map[relKey]*models.Relation{},
	}
}

func (m *memStore) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, x := range m.accounts {
		if x.Username == a.Username || x.Email == a.Email {
			return repo.ErrConflict
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) GetAccountByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) FindAccountByLogin(_ context.Context, username, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if (username != "" && a.Username == username) || (email != "" && a.Email == email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) AccountExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[id]
	return ok, m.err
}

func (m *memStore) SetRefreshToken(_ context.Context, id uuid.UUID, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.RefreshTokenHash = &digest
	return nil
}

func (m *memStore) ReplaceRefreshToken(_ context.Context, id uuid.UUID, oldDigest, newDigest string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.RefreshTokenHash == nil || *a.RefreshTokenHash != oldDigest {
		return false, nil
	}
	a.RefreshTokenHash = &newDigest
	return true, nil
}

func (m *memStore) UnsetRefreshToken(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.RefreshTokenHash = nil
	}
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.RefreshTokenHash = nil
	return nil
}

func (m *memStore) FindRelation(_ context.Context, actorID, targetID uuid.UUID, kind models.Kind) (*models.Relation, error) {
	m.mu.Lock()
	rel, ok := m.relations[relKey{actorID, targetID, kind}]
	err := m.err
	m.mu.Unlock()

	if m.findGate != nil {
		m.findGate.Done()
		m.findGate.Wait()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *rel
	return &cp, nil
}

func (m *memStore) InsertRelation(_ context.Context, rel *models.Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := relKey{rel.ActorID, rel.TargetID, rel.Kind}
	if _, ok := m.relations[k]; ok {
		return repo.ErrConflict
	}
	cp := *rel
	m.relations[k] = &cp
	return nil
}

func (m *memStore) DeleteRelation(_ context.Context, actorID, targetID uuid.UUID, kind models.Kind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := relKey{actorID, targetID, kind}
	if _, ok := m.relations[k]; !ok {
		return false, nil
	}
	delete(m.relations, k)
	return true, nil
}

func (m *memStore) CountRelations(_ context.Context, targetID uuid.UUID, kind models.Kind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.relations {
		if k.target == targetID && k.kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *memStore) relationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.relations)
}

func (m *memStore) storedDigest(id uuid.UUID) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	if a == nil || a.RefreshTokenHash == nil {
		return nil
	}
	d := *a.RefreshTokenHash
	return &d
}

func newTestIssuer(t *testing.T) *tokens.Issuer {
	t.Helper()
	iss, err := tokens.NewIssuer(tokens.Config{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return iss
}

func newSQLiteRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return repo.New(gdb)
}
