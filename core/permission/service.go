package permission

import (
	"context"
	"errors"
	"time"

	"github.com/inksight/backend/core/user"
)

var ErrNotFound = errors.New("permissions entry not found")

type (
	Repository interface {
		// UpsertEntry creates the ledger row for (SubjectRole, SubjectID)
		// or replaces its flags wholesale if it already exists.
		UpsertEntry(ctx context.Context, ent Entry) (Entry, error)
		GetEntryByID(ctx context.Context, id string) (Entry, error)
		GetEntryForSubject(ctx context.Context, role user.Role, subjectID string) (Entry, error)
		QueryEntries(ctx context.Context) ([]Entry, error)
		UpdateEntry(ctx context.Context, ent Entry) (Entry, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

func NewService(repo Repository, usrRepo user.Repository) *Service {
	return &Service{repo: repo, usrRepo: usrRepo}
}

// AssignDefault writes the role template for the identity. Re-applying
// replaces the row wholesale, so template changes propagate on re-assign.
func (svc *Service) AssignDefault(ctx context.Context, usr user.User) (Entry, error) {
	now := time.Now().UTC()
	ent := Entry{
		SubjectRole: usr.Role,
		SubjectID:   usr.ID,
		Flags:       DefaultFlags(usr.Role),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.UpsertEntry(ctx, ent)
}

// AssignAll backfills default permissions for every existing identity.
// A one-time maintenance operation, not part of steady-state handling.
func (svc *Service) AssignAll(ctx context.Context) (int, error) {
	users, err := svc.usrRepo.QueryUsers(ctx, nil, nil)
	if err != nil {
		return 0, err
	}
	var count int
	for _, usr := range users {
		if _, err := svc.AssignDefault(ctx, usr); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntryByID(ctx, id)
}

func (svc *Service) GetForSubject(ctx context.Context, role user.Role, subjectID string) (Entry, error) {
	return svc.repo.GetEntryForSubject(ctx, role, subjectID)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx)
}

// Update overwrites the flags of an existing entry.
func (svc *Service) Update(ctx context.Context, id string, flags Flags) (Entry, error) {
	ent, err := svc.repo.GetEntryByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	ent.Flags = flags
	ent.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEntry(ctx, ent)
}
