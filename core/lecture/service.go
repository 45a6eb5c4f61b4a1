package lecture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/inksight/backend/core"
)

var (
	// errors
	ErrNotFound         = errors.New("lecture session not found")
	ErrSlidesNotFound   = errors.New("lecture slides not found")
	ErrNoCurrentSession = errors.New("no lecture session is currently recording for this course")

	defaultTitle = "Lecture"
)

type (
	Repository interface {
		CreateSession(ctx context.Context, ses LectureSession) (LectureSession, error)
		GetSessionByID(ctx context.Context, id string) (LectureSession, error)
		QuerySessions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]LectureSession, error)
		UpdateSession(ctx context.Context, ses LectureSession) (LectureSession, error)
		// GetCurrentSessionForCourse returns the most recent session (by
		// date, descending) with status "recording", or ErrNotFound.
		GetCurrentSessionForCourse(ctx context.Context, courseID string) (LectureSession, error)

		CreateRecording(ctx context.Context, rec RecordingSession) (RecordingSession, error)
		QueryRecordingsForSession(ctx context.Context, sessionID string) ([]RecordingSession, error)

		CreateSlides(ctx context.Context, sl LectureSlides) (LectureSlides, error)
		GetSlidesByID(ctx context.Context, id string) (LectureSlides, error)
		UpdateSlides(ctx context.Context, sl LectureSlides) (LectureSlides, error)
	}

	Service struct {
		repo  Repository
		files core.FileStorage
	}
)

func NewService(repo Repository, files core.FileStorage) *Service {
	return &Service{repo: repo, files: files}
}

// CreateSession starts a session. By convention a new session is
// "recording" until its status is updated.
func (svc *Service) CreateSession(ctx context.Context, ns NewSession) (LectureSession, error) {
	now := time.Now().UTC()
	ses := LectureSession{
		Title:     ns.Title,
		Date:      ns.Date,
		CourseID:  ns.CourseID,
		Status:    ns.Status,
		CallID:    ns.CallID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ses.Title == "" {
		ses.Title = defaultTitle
	}
	if ses.Status == "" {
		ses.Status = StatusRecording
	}
	return svc.repo.CreateSession(ctx, ses)
}

func (svc *Service) GetSessionByID(ctx context.Context, id string) (LectureSession, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) QuerySessions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]LectureSession, error) {
	return svc.repo.QuerySessions(ctx, filter, ordering)
}

// UpdateStatus overwrites the session status. Any value is accepted; the
// status column is free text.
func (svc *Service) UpdateStatus(ctx context.Context, id, status string) (LectureSession, error) {
	ses, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return LectureSession{}, err
	}
	ses.Status = core.CleanString(status)
	ses.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSession(ctx, ses)
}

// CurrentSessionForCourse is the "is a lecture live right now" query, used
// to route an in-progress recording's uploads.
func (svc *Service) CurrentSessionForCourse(ctx context.Context, courseID string) (LectureSession, error) {
	ses, err := svc.repo.GetCurrentSessionForCourse(ctx, courseID)
	if errors.Is(err, ErrNotFound) {
		return LectureSession{}, ErrNoCurrentSession
	}
	return ses, err
}

func (svc *Service) AddRecording(ctx context.Context, sessionID string, nr NewRecording) (RecordingSession, error) {
	if _, err := svc.repo.GetSessionByID(ctx, sessionID); err != nil {
		return RecordingSession{}, err
	}
	rec := RecordingSession{
		LectureSessionID: sessionID,
		RecordingType:    nr.RecordingType,
		FilePath:         nr.FilePath,
		CreatedAt:        time.Now().UTC(),
	}
	return svc.repo.CreateRecording(ctx, rec)
}

func (svc *Service) RecordingsForSession(ctx context.Context, sessionID string) ([]RecordingSession, error) {
	return svc.repo.QueryRecordingsForSession(ctx, sessionID)
}

// UploadSlides stores the file with the FileStorage collaborator and
// persists the resulting URL. The session association is left unset and may
// be added later via AssociateSlides.
func (svc *Service) UploadSlides(ctx context.Context, courseID, filename string, content io.Reader) (LectureSlides, error) {
	name := fmt.Sprintf("slides/%s/%s%s", courseID, uuid.New().String(), filepath.Ext(filename))
	url, err := svc.files.Save(ctx, name, content)
	if err != nil {
		return LectureSlides{}, err
	}
	sl := LectureSlides{
		FileSlides: url,
		CourseID:   courseID,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateSlides(ctx, sl)
}

// AssociateSlides sets the session a slide deck belongs to.
func (svc *Service) AssociateSlides(ctx context.Context, slidesID, sessionID string) (LectureSlides, error) {
	sl, err := svc.repo.GetSlidesByID(ctx, slidesID)
	if err != nil {
		return LectureSlides{}, err
	}
	if _, err := svc.repo.GetSessionByID(ctx, sessionID); err != nil {
		return LectureSlides{}, err
	}
	sl.LectureSessionID = sessionID
	return svc.repo.UpdateSlides(ctx, sl)
}
