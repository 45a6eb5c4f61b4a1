package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inksight/backend/core"
)

type (
	Course struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		SchoolID         string    `json:"school_id"`
		SDSCoordinatorID string    `json:"sds_coordinator_id"`
		Term             string    `json:"term,omitempty"`
		CourseUID        string    `json:"course_uid,omitempty"`
		Type             string    `json:"type,omitempty"`
		MeetingTime      string    `json:"meeting_time,omitempty"`
		Campus           string    `json:"campus,omitempty"`
		CreatedAt        time.Time `json:"created_at"` // UTC
		UpdatedAt        time.Time `json:"updated_at"` // UTC
	}

	// StudentCourse links a Student to a Course (enrollment).
	StudentCourse struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		CourseID  string    `json:"course_id"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	// ProfessorCourse links a Professor to a Course (teaching assignment).
	ProfessorCourse struct {
		ID          string    `json:"id"`
		ProfessorID string    `json:"professor_id"`
		CourseID    string    `json:"course_id"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}
)

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name             string `json:"name" validate:"required"`
	SchoolID         string `json:"school_id" validate:"required"`
	SDSCoordinatorID string `json:"sds_coordinator_id" validate:"required"`
	Term             string `json:"term"`
	CourseUID        string `json:"course_uid"`
	Type             string `json:"type"`
	MeetingTime      string `json:"meeting_time"`
	Campus           string `json:"campus"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Term = core.CleanString(nc.Term)
	nc.CourseUID = core.CleanString(nc.CourseUID)
	return validate.Struct(nc)
}

type QueryFilter struct {
	Search           string `query:"search"`
	SchoolID         string `query:"school_id"`
	SDSCoordinatorID string `query:"sds_coordinator_id"`
	Term             string `query:"term"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.SchoolID == "" && qf.SDSCoordinatorID == "" && qf.Term == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
