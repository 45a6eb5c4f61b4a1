package user

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/inksight/backend/core"
)

// Role discriminates the four identity variants. An identity's role is
// fixed at creation; exactly one matching profile is set on the User.
type Role string

const (
	RoleStudent          Role = "student"
	RoleProfessor        Role = "professor"
	RoleTeacherAssistant Role = "teacher_assistant"
	RoleSDSCoordinator   Role = "sds_coordinator"
)

var AllRoles = []Role{RoleStudent, RoleProfessor, RoleTeacherAssistant, RoleSDSCoordinator}

type (
	// StudentProfile holds the Student-specific attributes.
	StudentProfile struct {
		Year                 int    `json:"year"`
		Disability           string `json:"disability"`
		SDSCoordinatorID     string `json:"sds_coordinator_id,omitempty"`
		AccommodationRequest string `json:"accommodation_request"`
	}

	ProfessorProfile struct {
		Title string `json:"title"`
	}

	TeacherAssistantProfile struct {
		AssignedProfessorID string `json:"assigned_professor_id,omitempty"`
	}

	// SDSCoordinatorProfile holds the coordinator attributes; AccessCode is
	// the unique token students use to self-associate at signup.
	SDSCoordinatorProfile struct {
		Position   string `json:"position"`
		AccessCode string `json:"access_code"`
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		SchoolID     string    `json:"school_id,omitempty"`
		IsActive     bool      `json:"is_active"`
		IsStaff      bool      `json:"is_staff"`
		IsSuperuser  bool      `json:"is_superuser"`
		PasswordHash []byte    `json:"-"`
		Role         Role      `json:"role"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC
		LastLogin    time.Time `json:"last_login"` // UTC

		Student          *StudentProfile          `json:"student,omitempty"`
		Professor        *ProfessorProfile        `json:"professor,omitempty"`
		TeacherAssistant *TeacherAssistantProfile `json:"teacher_assistant,omitempty"`
		SDSCoordinator   *SDSCoordinatorProfile   `json:"sds_coordinator,omitempty"`
	}
)

// DefaultAccommodationRequest derives the stored accommodation text when a
// student supplies none at creation.
func DefaultAccommodationRequest(disability string) string {
	return fmt.Sprintf("I need notetaking accommodations for my classes because of my %s", disability)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsStudent() bool          { return u.Role == RoleStudent }
func (u *User) IsProfessor() bool        { return u.Role == RoleProfessor }
func (u *User) IsTeacherAssistant() bool { return u.Role == RoleTeacherAssistant }
func (u *User) IsSDSCoordinator() bool   { return u.Role == RoleSDSCoordinator }

// NewUser contains information needed to create a new User.
// Role-specific fields are flat; Validate checks the ones the role requires.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	SchoolID string `json:"school_id"`
	Role     Role   `json:"role" validate:"required,oneof=student professor teacher_assistant sds_coordinator"`

	// Student
	Year                     int    `json:"year,omitempty"`
	Disability               string `json:"disability,omitempty"`
	SDSCoordinatorID         string `json:"sds_coordinator_id,omitempty"`
	SDSCoordinatorAccessCode string `json:"sds_coordinator_access_code,omitempty"`
	AccommodationRequest     string `json:"accommodation_request,omitempty"`

	// Professor
	Title string `json:"title,omitempty"`

	// TeacherAssistant
	AssignedProfessorID string `json:"professor_id,omitempty"`

	// SDSCoordinator
	Position   string `json:"position,omitempty"`
	AccessCode string `json:"access_code,omitempty" validate:"omitempty,accesscode"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Disability = core.CleanString(nu.Disability)
	nu.Title = core.CleanString(nu.Title)
	nu.Position = core.CleanString(nu.Position)

	if err := validate.Struct(nu); err != nil {
		return err
	}

	var flds []core.FieldError
	switch nu.Role {
	case RoleStudent:
		if nu.Year == 0 {
			flds = append(flds, core.FieldError{Field: "year", Error: requiredFieldText})
		}
		if nu.Disability == "" {
			flds = append(flds, core.FieldError{Field: "disability", Error: requiredFieldText})
		}
		if nu.SDSCoordinatorID == "" && nu.SDSCoordinatorAccessCode == "" {
			flds = append(flds, core.FieldError{Field: "sds_coordinator_id", Error: requiredFieldText})
		}
	case RoleProfessor:
		if nu.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: requiredFieldText})
		}
	case RoleSDSCoordinator:
		if nu.Position == "" {
			flds = append(flds, core.FieldError{Field: "position", Error: requiredFieldText})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. The role itself cannot be reassigned.
type UpdateUser struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"is_active"`

	Year                 int    `json:"year,omitempty"`
	Disability           string `json:"disability,omitempty"`
	AccommodationRequest string `json:"accommodation_request,omitempty"`
	Title                string `json:"title,omitempty"`
	AssignedProfessorID  string `json:"professor_id,omitempty"`
	Position             string `json:"position,omitempty"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     Role   `query:"role"`
	SchoolID string `query:"school_id"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.SchoolID == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
