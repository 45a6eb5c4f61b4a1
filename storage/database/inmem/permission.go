package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
)

type permissionRepository struct {
	db *DB
}

var _ permission.Repository = (*permissionRepository)(nil) // interface compliance check

func NewPermissionRepository(db *DB) *permissionRepository {
	return &permissionRepository{db: db}
}

func (repo *permissionRepository) UpsertEntry(ctx context.Context, ent permission.Entry) (permission.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.permissions {
		if existing.SubjectRole == ent.SubjectRole && existing.SubjectID == ent.SubjectID {
			// replace flags wholesale; original id and created_at survive
			existing.Flags = ent.Flags
			existing.UpdatedAt = ent.UpdatedAt
			repo.db.permissions[existing.ID] = existing
			return existing, nil
		}
	}
	ent.ID = uuid.New().String()
	repo.db.permissions[ent.ID] = ent
	return ent, nil
}

func (repo *permissionRepository) GetEntryByID(ctx context.Context, id string) (permission.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ent, ok := repo.db.permissions[id]; ok {
		return ent, nil
	}
	return permission.Entry{}, permission.ErrNotFound
}

func (repo *permissionRepository) GetEntryForSubject(ctx context.Context, role user.Role, subjectID string) (permission.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, ent := range repo.db.permissions {
		if ent.SubjectRole == role && ent.SubjectID == subjectID {
			return ent, nil
		}
	}
	return permission.Entry{}, permission.ErrNotFound
}

func (repo *permissionRepository) QueryEntries(ctx context.Context) ([]permission.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]permission.Entry, 0, len(repo.db.permissions))
	for _, ent := range repo.db.permissions {
		entries = append(entries, ent)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (repo *permissionRepository) UpdateEntry(ctx context.Context, ent permission.Entry) (permission.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.permissions[ent.ID]; !ok {
		return permission.Entry{}, permission.ErrNotFound
	}
	repo.db.permissions[ent.ID] = ent
	return ent, nil
}
