package accommodation

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inksight/backend/core"
)

// NoteTakingRequest is a student's ask for accommodation approval, gating
// note-taking access for one enrollment. It is created pending
// (approved=false) and only ever transitions to approved.
type NoteTakingRequest struct {
	ID               string    `json:"id"`
	RequestText      string    `json:"request_text"`
	StudentCourseID  string    `json:"student_course_id"`
	SDSCoordinatorID string    `json:"sds_coordinator_id"`
	Approved         bool      `json:"approved"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// NewRequest contains information needed to submit a NoteTakingRequest.
type NewRequest struct {
	StudentID        string `json:"student_id" validate:"required"`
	CourseID         string `json:"course_id" validate:"required"`
	SDSCoordinatorID string `json:"sds_coordinator_id" validate:"required"`
	RequestText      string `json:"request_text"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.RequestText = core.CleanString(nr.RequestText)
	return validate.Struct(nr)
}

type QueryFilter struct {
	SDSCoordinatorID string `query:"sds_coordinator_id"`
	Approved         *bool  `query:"approved"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SDSCoordinatorID == "" && qf.Approved == nil
}
