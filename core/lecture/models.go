package lecture

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inksight/backend/core"
)

// Well-known session statuses. The status column itself is free text and
// may hold other values; "recording" routes live uploads and "published"
// marks a finished session.
const (
	StatusRecording = "recording"
	StatusPublished = "published"
)

type (
	LectureSession struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Date      time.Time `json:"date"`
		CourseID  string    `json:"course_id"`
		Status    string    `json:"status"`
		CallID    string    `json:"call_id"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	RecordingSession struct {
		ID               string    `json:"id"`
		LectureSessionID string    `json:"lecture_session_id"`
		RecordingType    string    `json:"recording_type"`
		FilePath         string    `json:"file_path"`
		CreatedAt        time.Time `json:"created_at"` // UTC
	}

	// LectureSlides stores the URL of an uploaded slide deck. The session
	// association may be set after the fact.
	LectureSlides struct {
		ID               string    `json:"id"`
		FileSlides       string    `json:"file_slides"`
		LectureSessionID string    `json:"lecture_session_id,omitempty"`
		CourseID         string    `json:"course_id"`
		CreatedAt        time.Time `json:"created_at"` // UTC
	}
)

// NewSession contains information needed to create a new LectureSession.
type NewSession struct {
	Title    string    `json:"title"`
	Date     time.Time `json:"date" validate:"required"`
	CourseID string    `json:"course_id" validate:"required"`
	Status   string    `json:"status"`
	CallID   string    `json:"call_id"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Status = core.CleanString(ns.Status)
	return validate.Struct(ns)
}

// NewRecording contains information needed to attach a recording to a session.
type NewRecording struct {
	RecordingType string `json:"recording_type" validate:"required"`
	FilePath      string `json:"file_path" validate:"required"`
}

func (nr *NewRecording) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type QueryFilter struct {
	CourseID string `query:"course_id"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.Status == ""
}
