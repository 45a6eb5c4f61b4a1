package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/lecture"
)

type lectureRepository struct {
	db *DB
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *DB) *lectureRepository {
	return &lectureRepository{db: db}
}

func (repo *lectureRepository) CreateSession(ctx context.Context, ses lecture.LectureSession) (lecture.LectureSession, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ses.ID = uuid.New().String()
	repo.db.sessions[ses.ID] = ses
	return ses, nil
}

func (repo *lectureRepository) GetSessionByID(ctx context.Context, id string) (lecture.LectureSession, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ses, ok := repo.db.sessions[id]; ok {
		return ses, nil
	}
	return lecture.LectureSession{}, lecture.ErrNotFound
}

func (repo *lectureRepository) QuerySessions(ctx context.Context, filter *lecture.QueryFilter, ordering []core.DBOrdering) ([]lecture.LectureSession, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sessions []lecture.LectureSession
	for _, ses := range repo.db.sessions {
		if filter != nil {
			if filter.CourseID != "" && ses.CourseID != filter.CourseID {
				continue
			}
			if filter.Status != "" && ses.Status != filter.Status {
				continue
			}
		}
		sessions = append(sessions, ses)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.After(sessions[j].Date) })
	return sessions, nil
}

func (repo *lectureRepository) UpdateSession(ctx context.Context, ses lecture.LectureSession) (lecture.LectureSession, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sessions[ses.ID]; !ok {
		return lecture.LectureSession{}, lecture.ErrNotFound
	}
	repo.db.sessions[ses.ID] = ses
	return ses, nil
}

func (repo *lectureRepository) GetCurrentSessionForCourse(ctx context.Context, courseID string) (lecture.LectureSession, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var (
		current lecture.LectureSession
		found   bool
	)
	for _, ses := range repo.db.sessions {
		if ses.CourseID != courseID || ses.Status != lecture.StatusRecording {
			continue
		}
		if !found || ses.Date.After(current.Date) {
			current = ses
			found = true
		}
	}
	if !found {
		return lecture.LectureSession{}, lecture.ErrNotFound
	}
	return current, nil
}

func (repo *lectureRepository) CreateRecording(ctx context.Context, rec lecture.RecordingSession) (lecture.RecordingSession, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	repo.db.recordings[rec.ID] = rec
	return rec, nil
}

func (repo *lectureRepository) QueryRecordingsForSession(ctx context.Context, sessionID string) ([]lecture.RecordingSession, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []lecture.RecordingSession
	for _, rec := range repo.db.recordings {
		if rec.LectureSessionID == sessionID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	return recs, nil
}

func (repo *lectureRepository) CreateSlides(ctx context.Context, sl lecture.LectureSlides) (lecture.LectureSlides, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sl.ID = uuid.New().String()
	repo.db.slides[sl.ID] = sl
	return sl, nil
}

func (repo *lectureRepository) GetSlidesByID(ctx context.Context, id string) (lecture.LectureSlides, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sl, ok := repo.db.slides[id]; ok {
		return sl, nil
	}
	return lecture.LectureSlides{}, lecture.ErrSlidesNotFound
}

func (repo *lectureRepository) UpdateSlides(ctx context.Context, sl lecture.LectureSlides) (lecture.LectureSlides, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.slides[sl.ID]; !ok {
		return lecture.LectureSlides{}, lecture.ErrSlidesNotFound
	}
	repo.db.slides[sl.ID] = sl
	return sl, nil
}
