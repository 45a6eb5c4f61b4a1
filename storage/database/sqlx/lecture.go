package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/lecture"
)

type lectureRepository struct {
	db *sqlx.DB
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(db *sqlx.DB) *lectureRepository {
	return &lectureRepository{db: db}
}

type sessionRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Date      time.Time `db:"date"`
	CourseID  string    `db:"course_id"`
	Status    string    `db:"status"`
	CallID    string    `db:"call_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r sessionRow) toDomain() lecture.LectureSession {
	return lecture.LectureSession{
		ID:        r.ID,
		Title:     r.Title,
		Date:      r.Date,
		CourseID:  r.CourseID,
		Status:    r.Status,
		CallID:    r.CallID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo lectureRepository) CreateSession(ctx context.Context, ses lecture.LectureSession) (lecture.LectureSession, error) {
	ses.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO lecture_session (id, title, date, course_id, status, call_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ses.ID, ses.Title, ses.Date.UTC(), ses.CourseID, ses.Status, ses.CallID,
		ses.CreatedAt.UTC(), ses.UpdatedAt.UTC(),
	)
	if err != nil {
		return lecture.LectureSession{}, errors.Wrap(err, "inserting lecture session")
	}
	return ses, nil
}

func (repo lectureRepository) GetSessionByID(ctx context.Context, id string) (lecture.LectureSession, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM lecture_session WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lecture.LectureSession{}, lecture.ErrNotFound
		}
		return lecture.LectureSession{}, errors.Wrap(err, "getting lecture session")
	}
	return row.toDomain(), nil
}

func (repo lectureRepository) QuerySessions(ctx context.Context, filter *lecture.QueryFilter, ordering []core.DBOrdering) ([]lecture.LectureSession, error) {
	query := `SELECT * FROM lecture_session`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.CourseID != "" {
			args = append(args, filter.CourseID)
			conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY " + orderClause(ordering, "date DESC")

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying lecture sessions")
	}
	sessions := make([]lecture.LectureSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toDomain())
	}
	return sessions, nil
}

func (repo lectureRepository) UpdateSession(ctx context.Context, ses lecture.LectureSession) (lecture.LectureSession, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE lecture_session SET title = $2, date = $3, status = $4, call_id = $5, updated_at = $6 WHERE id = $1`,
		ses.ID, ses.Title, ses.Date.UTC(), ses.Status, ses.CallID, ses.UpdatedAt.UTC(),
	)
	if err != nil {
		return lecture.LectureSession{}, errors.Wrap(err, "updating lecture session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lecture.LectureSession{}, lecture.ErrNotFound
	}
	return ses, nil
}

func (repo lectureRepository) GetCurrentSessionForCourse(ctx context.Context, courseID string) (lecture.LectureSession, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM lecture_session
		WHERE course_id = $1 AND status = $2
		ORDER BY date DESC LIMIT 1`,
		courseID, lecture.StatusRecording)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lecture.LectureSession{}, lecture.ErrNotFound
		}
		return lecture.LectureSession{}, errors.Wrap(err, "getting current lecture session")
	}
	return row.toDomain(), nil
}

type recordingRow struct {
	ID               string    `db:"id"`
	LectureSessionID string    `db:"lecture_session_id"`
	RecordingType    string    `db:"recording_type"`
	FilePath         string    `db:"file_path"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r recordingRow) toDomain() lecture.RecordingSession {
	return lecture.RecordingSession{
		ID:               r.ID,
		LectureSessionID: r.LectureSessionID,
		RecordingType:    r.RecordingType,
		FilePath:         r.FilePath,
		CreatedAt:        r.CreatedAt,
	}
}

func (repo lectureRepository) CreateRecording(ctx context.Context, rec lecture.RecordingSession) (lecture.RecordingSession, error) {
	rec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO recording_session (id, lecture_session_id, recording_type, file_path, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.LectureSessionID, rec.RecordingType, rec.FilePath, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return lecture.RecordingSession{}, errors.Wrap(err, "inserting recording session")
	}
	return rec, nil
}

func (repo lectureRepository) QueryRecordingsForSession(ctx context.Context, sessionID string) ([]lecture.RecordingSession, error) {
	var rows []recordingRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM recording_session WHERE lecture_session_id = $1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying recording sessions")
	}
	recs := make([]lecture.RecordingSession, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toDomain())
	}
	return recs, nil
}

type slidesRow struct {
	ID               string      `db:"id"`
	FileSlides       string      `db:"file_slides"`
	LectureSessionID null.String `db:"lecture_session_id"`
	CourseID         string      `db:"course_id"`
	CreatedAt        time.Time   `db:"created_at"`
}

func (r slidesRow) toDomain() lecture.LectureSlides {
	return lecture.LectureSlides{
		ID:               r.ID,
		FileSlides:       r.FileSlides,
		LectureSessionID: r.LectureSessionID.String,
		CourseID:         r.CourseID,
		CreatedAt:        r.CreatedAt,
	}
}

func (repo lectureRepository) CreateSlides(ctx context.Context, sl lecture.LectureSlides) (lecture.LectureSlides, error) {
	sl.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO lecture_slides (id, file_slides, lecture_session_id, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sl.ID, sl.FileSlides, null.NewString(sl.LectureSessionID, sl.LectureSessionID != ""),
		sl.CourseID, sl.CreatedAt.UTC(),
	)
	if err != nil {
		return lecture.LectureSlides{}, errors.Wrap(err, "inserting lecture slides")
	}
	return sl, nil
}

func (repo lectureRepository) GetSlidesByID(ctx context.Context, id string) (lecture.LectureSlides, error) {
	var row slidesRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM lecture_slides WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lecture.LectureSlides{}, lecture.ErrSlidesNotFound
		}
		return lecture.LectureSlides{}, errors.Wrap(err, "getting lecture slides")
	}
	return row.toDomain(), nil
}

func (repo lectureRepository) UpdateSlides(ctx context.Context, sl lecture.LectureSlides) (lecture.LectureSlides, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE lecture_slides SET file_slides = $2, lecture_session_id = $3 WHERE id = $1`,
		sl.ID, sl.FileSlides, null.NewString(sl.LectureSessionID, sl.LectureSessionID != ""),
	)
	if err != nil {
		return lecture.LectureSlides{}, errors.Wrap(err, "updating lecture slides")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lecture.LectureSlides{}, lecture.ErrSlidesNotFound
	}
	return sl, nil
}
