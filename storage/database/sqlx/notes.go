package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/notes"
)

type notesRepository struct {
	db *sqlx.DB
}

var _ notes.Repository = (*notesRepository)(nil) // interface compliance check

func NewNotesRepository(db *sqlx.DB) *notesRepository {
	return &notesRepository{db: db}
}

type packetRow struct {
	ID               string    `db:"id"`
	Notes            []byte    `db:"notes"`
	CourseID         string    `db:"course_id"`
	LectureSessionID string    `db:"lecture_session_id"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r packetRow) toDomain() notes.NotesPacket {
	return notes.NotesPacket{
		ID:               r.ID,
		Notes:            json.RawMessage(r.Notes),
		CourseID:         r.CourseID,
		LectureSessionID: r.LectureSessionID,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (repo notesRepository) CreatePacket(ctx context.Context, pkt notes.NotesPacket) (notes.NotesPacket, error) {
	pkt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO notes_packet (id, notes, course_id, lecture_session_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pkt.ID, []byte(pkt.Notes), pkt.CourseID, pkt.LectureSessionID, pkt.Status,
		pkt.CreatedAt.UTC(), pkt.UpdatedAt.UTC(),
	)
	if err != nil {
		return notes.NotesPacket{}, errors.Wrap(err, "inserting notes packet")
	}
	return pkt, nil
}

func (repo notesRepository) GetPacketByID(ctx context.Context, id string) (notes.NotesPacket, error) {
	var row packetRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM notes_packet WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notes.NotesPacket{}, notes.ErrNotFound
		}
		return notes.NotesPacket{}, errors.Wrap(err, "getting notes packet")
	}
	return row.toDomain(), nil
}

func (repo notesRepository) QueryPackets(ctx context.Context, filter *notes.QueryFilter) ([]notes.NotesPacket, error) {
	query := `SELECT * FROM notes_packet`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.CourseID != "" {
			args = append(args, filter.CourseID)
			conds = append(conds, fmt.Sprintf("course_id = $%d", len(args)))
		}
		if filter.LectureSessionID != "" {
			args = append(args, filter.LectureSessionID)
			conds = append(conds, fmt.Sprintf("lecture_session_id = $%d", len(args)))
		}
		if filter.PublishedOnly {
			args = append(args, notes.StatusPublished)
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
	query += " ORDER BY created_at DESC"

	var rows []packetRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying notes packets")
	}
	pkts := make([]notes.NotesPacket, 0, len(rows))
	for _, row := range rows {
		pkts = append(pkts, row.toDomain())
	}
	return pkts, nil
}

func (repo notesRepository) UpdatePacket(ctx context.Context, pkt notes.NotesPacket) (notes.NotesPacket, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE notes_packet SET notes = $2, status = $3, updated_at = $4 WHERE id = $1`,
		pkt.ID, []byte(pkt.Notes), pkt.Status, pkt.UpdatedAt.UTC(),
	)
	if err != nil {
		return notes.NotesPacket{}, errors.Wrap(err, "updating notes packet")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notes.NotesPacket{}, notes.ErrNotFound
	}
	return pkt, nil
}

type studentPacketRow struct {
	ID               string    `db:"id"`
	StudentID        string    `db:"student_id"`
	LectureSessionID string    `db:"lecture_session_id"`
	Title            string    `db:"title"`
	Time             time.Time `db:"time"`
	Notes            []byte    `db:"notes"`
}

func (r studentPacketRow) toDomain() notes.StudentNotePacket {
	return notes.StudentNotePacket{
		ID:               r.ID,
		StudentID:        r.StudentID,
		LectureSessionID: r.LectureSessionID,
		Title:            r.Title,
		Time:             r.Time,
		Notes:            json.RawMessage(r.Notes),
	}
}

func (repo notesRepository) CreateStudentPacket(ctx context.Context, pkt notes.StudentNotePacket) (notes.StudentNotePacket, error) {
	pkt.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student_note_packet (id, student_id, lecture_session_id, title, time, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		pkt.ID, pkt.StudentID, pkt.LectureSessionID, pkt.Title, pkt.Time.UTC(), []byte(pkt.Notes),
	)
	if err != nil {
		return notes.StudentNotePacket{}, errors.Wrap(err, "inserting student note packet")
	}
	return pkt, nil
}

func (repo notesRepository) GetStudentPacketByID(ctx context.Context, id string) (notes.StudentNotePacket, error) {
	var row studentPacketRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM student_note_packet WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notes.StudentNotePacket{}, notes.ErrStudentNotFound
		}
		return notes.StudentNotePacket{}, errors.Wrap(err, "getting student note packet")
	}
	return row.toDomain(), nil
}

func (repo notesRepository) QueryStudentPacketsForStudent(ctx context.Context, studentID string) ([]notes.StudentNotePacket, error) {
	var rows []studentPacketRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM student_note_packet WHERE student_id = $1 ORDER BY time DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student note packets")
	}
	pkts := make([]notes.StudentNotePacket, 0, len(rows))
	for _, row := range rows {
		pkts = append(pkts, row.toDomain())
	}
	return pkts, nil
}

func (repo notesRepository) UpdateStudentPacket(ctx context.Context, pkt notes.StudentNotePacket) (notes.StudentNotePacket, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student_note_packet SET title = $2, notes = $3 WHERE id = $1`,
		pkt.ID, pkt.Title, []byte(pkt.Notes),
	)
	if err != nil {
		return notes.StudentNotePacket{}, errors.Wrap(err, "updating student note packet")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notes.StudentNotePacket{}, notes.ErrStudentNotFound
	}
	return pkt, nil
}
