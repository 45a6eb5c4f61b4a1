package notes

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inksight/backend/core"
)

// NotesPacket statuses. Free text; only "published" has query-level
// significance (published vs everything else).
const (
	StatusDraft     = "draft"
	StatusEdits     = "edits"
	StatusPublished = "published"
)

type (
	// NotesPacket is the shared, course-level set of class notes with a
	// draft -> edits -> published lifecycle.
	NotesPacket struct {
		ID               string          `json:"id"`
		Notes            json.RawMessage `json:"notes"`
		CourseID         string          `json:"course_id"`
		LectureSessionID string          `json:"lecture_session_id"`
		Status           string          `json:"status"`
		CreatedAt        time.Time       `json:"created_at"` // UTC
		UpdatedAt        time.Time       `json:"updated_at"` // UTC
	}

	// StudentNotePacket is a student-private annotated copy with a
	// lifecycle independent from the shared NotesPacket.
	StudentNotePacket struct {
		ID               string          `json:"id"`
		StudentID        string          `json:"student_id"`
		LectureSessionID string          `json:"lecture_session_id"`
		Title            string          `json:"title"`
		Time             time.Time       `json:"time"`
		Notes            json.RawMessage `json:"notes"`
	}
)

// NewPacket contains information needed to create a new NotesPacket.
type NewPacket struct {
	Notes            json.RawMessage `json:"notes" validate:"required"`
	CourseID         string          `json:"course_id" validate:"required"`
	LectureSessionID string          `json:"lecture_session_id" validate:"required"`
}

func (np *NewPacket) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

// NewStudentPacket contains information needed to create a StudentNotePacket.
type NewStudentPacket struct {
	LectureSessionID string          `json:"lecture_session_id" validate:"required"`
	Title            string          `json:"title" validate:"required"`
	Notes            json.RawMessage `json:"notes" validate:"required"`
}

func (nsp *NewStudentPacket) Validate(validate *validator.Validate) error {
	nsp.Title = core.CleanString(nsp.Title)
	return validate.Struct(nsp)
}

type QueryFilter struct {
	CourseID         string `query:"course_id"`
	LectureSessionID string `query:"lecture_session_id"`
	PublishedOnly    bool   `query:"published"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.LectureSessionID == "" && !qf.PublishedOnly
}
