package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/user"
)

type accommodationRepository struct {
	db *DB
}

var _ accommodation.Repository = (*accommodationRepository)(nil) // interface compliance check

func NewAccommodationRepository(db *DB) *accommodationRepository {
	return &accommodationRepository{db: db}
}

func (repo *accommodationRepository) CreateRequest(ctx context.Context, req accommodation.NoteTakingRequest) (accommodation.NoteTakingRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.requests {
		if existing.StudentCourseID == req.StudentCourseID {
			return accommodation.NoteTakingRequest{}, accommodation.ErrRequestExists
		}
	}
	req.ID = uuid.New().String()
	repo.db.requests[req.ID] = req
	return req, nil
}

func (repo *accommodationRepository) GetRequestByID(ctx context.Context, id string) (accommodation.NoteTakingRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.requests[id]; ok {
		return req, nil
	}
	return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
}

func (repo *accommodationRepository) GetRequestByEnrollment(ctx context.Context, studentCourseID string) (accommodation.NoteTakingRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, req := range repo.db.requests {
		if req.StudentCourseID == studentCourseID {
			return req, nil
		}
	}
	return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
}

func (repo *accommodationRepository) QueryRequests(ctx context.Context, filter *accommodation.QueryFilter) ([]accommodation.NoteTakingRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reqs []accommodation.NoteTakingRequest
	for _, req := range repo.db.requests {
		if filter != nil {
			if filter.SDSCoordinatorID != "" && req.SDSCoordinatorID != filter.SDSCoordinatorID {
				continue
			}
			if filter.Approved != nil && req.Approved != *filter.Approved {
				continue
			}
		}
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *accommodationRepository) UpdateRequest(ctx context.Context, req accommodation.NoteTakingRequest) (accommodation.NoteTakingRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.requests[req.ID]; !ok {
		return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
	}
	repo.db.requests[req.ID] = req
	return req, nil
}

func (repo *accommodationRepository) QueryApprovedStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var users []user.User
	for _, req := range repo.db.requests {
		if !req.Approved {
			continue
		}
		sc, ok := repo.db.studentCourses[req.StudentCourseID]
		if !ok || sc.CourseID != courseID {
			continue
		}
		if usr, ok := repo.db.users[sc.StudentID]; ok {
			users = append(users, usr)
		}
	}
	return sortUsers(users), nil
}
