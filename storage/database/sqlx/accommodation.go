package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/user"
)

type accommodationRepository struct {
	db *sqlx.DB
}

var _ accommodation.Repository = (*accommodationRepository)(nil) // interface compliance check

func NewAccommodationRepository(db *sqlx.DB) *accommodationRepository {
	return &accommodationRepository{db: db}
}

type requestRow struct {
	ID               string    `db:"id"`
	RequestText      string    `db:"request_text"`
	StudentCourseID  string    `db:"student_course_id"`
	SDSCoordinatorID string    `db:"sds_coordinator_id"`
	Approved         bool      `db:"approved"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r requestRow) toDomain() accommodation.NoteTakingRequest {
	return accommodation.NoteTakingRequest{
		ID:               r.ID,
		RequestText:      r.RequestText,
		StudentCourseID:  r.StudentCourseID,
		SDSCoordinatorID: r.SDSCoordinatorID,
		Approved:         r.Approved,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (repo accommodationRepository) CreateRequest(ctx context.Context, req accommodation.NoteTakingRequest) (accommodation.NoteTakingRequest, error) {
	req.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO note_taking_request (id, request_text, student_course_id, sds_coordinator_id, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.RequestText, req.StudentCourseID, req.SDSCoordinatorID, req.Approved,
		req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		if violatesUnique(err, "note_taking_request_student_course_id_key") {
			return accommodation.NoteTakingRequest{}, accommodation.ErrRequestExists
		}
		return accommodation.NoteTakingRequest{}, errors.Wrap(err, "inserting note-taking request")
	}
	return req, nil
}

func (repo accommodationRepository) GetRequestByID(ctx context.Context, id string) (accommodation.NoteTakingRequest, error) {
	var row requestRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM note_taking_request WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
		}
		return accommodation.NoteTakingRequest{}, errors.Wrap(err, "getting note-taking request")
	}
	return row.toDomain(), nil
}

func (repo accommodationRepository) GetRequestByEnrollment(ctx context.Context, studentCourseID string) (accommodation.NoteTakingRequest, error) {
	var row requestRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM note_taking_request WHERE student_course_id = $1`, studentCourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
		}
		return accommodation.NoteTakingRequest{}, errors.Wrap(err, "getting note-taking request")
	}
	return row.toDomain(), nil
}

func (repo accommodationRepository) QueryRequests(ctx context.Context, filter *accommodation.QueryFilter) ([]accommodation.NoteTakingRequest, error) {
	query := `SELECT * FROM note_taking_request`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.SDSCoordinatorID != "" {
			args = append(args, filter.SDSCoordinatorID)
			conds = append(conds, fmt.Sprintf("sds_coordinator_id = $%d", len(args)))
		}
		if filter.Approved != nil {
			args = append(args, *filter.Approved)
			conds = append(conds, fmt.Sprintf("approved = $%d", len(args)))
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	var rows []requestRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying note-taking requests")
	}
	reqs := make([]accommodation.NoteTakingRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toDomain())
	}
	return reqs, nil
}

func (repo accommodationRepository) UpdateRequest(ctx context.Context, req accommodation.NoteTakingRequest) (accommodation.NoteTakingRequest, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE note_taking_request SET request_text = $2, approved = $3, updated_at = $4 WHERE id = $1`,
		req.ID, req.RequestText, req.Approved, req.UpdatedAt.UTC(),
	)
	if err != nil {
		return accommodation.NoteTakingRequest{}, errors.Wrap(err, "updating note-taking request")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return accommodation.NoteTakingRequest{}, accommodation.ErrNotFound
	}
	return req, nil
}

func (repo accommodationRepository) QueryApprovedStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT u.* FROM "user" u
		JOIN student_course sc ON sc.student_id = u.id
		JOIN note_taking_request r ON r.student_course_id = sc.id
		WHERE sc.course_id = $1 AND r.approved
		ORDER BY u.name ASC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying approved students")
	}
	return usersFromRows(rows), nil
}
