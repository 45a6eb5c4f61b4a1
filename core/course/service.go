package course

import (
	"context"
	"errors"
	"time"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	ErrAlreadyAssigned = errors.New("professor is already assigned to this course")
)

type (
	// GetFilter selects a single Course; either by ID or by (Name, SchoolID).
	GetFilter struct {
		ID       string
		Name     string
		SchoolID string
	}

	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) (int, error)

		// Enrollment and teaching-assignment links. Creates surface
		// ErrAlreadyEnrolled / ErrAlreadyAssigned on the storage-level
		// uniqueness constraint.
		CreateStudentCourse(ctx context.Context, sc StudentCourse) (StudentCourse, error)
		GetStudentCourse(ctx context.Context, studentID, courseID string) (StudentCourse, error)
		GetStudentCourseByID(ctx context.Context, id string) (StudentCourse, error)
		CreateProfessorCourse(ctx context.Context, pc ProfessorCourse) (ProfessorCourse, error)

		QueryCoursesForStudent(ctx context.Context, studentID string) ([]Course, error)
		QueryCoursesForProfessor(ctx context.Context, professorID string) ([]Course, error)
		QueryCoursesForSchool(ctx context.Context, schoolID string) ([]Course, error)
		QueryStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error)
		QueryProfessorsForCourse(ctx context.Context, courseID string) ([]user.User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Name:             nc.Name,
		SchoolID:         nc.SchoolID,
		SDSCoordinatorID: nc.SDSCoordinatorID,
		Term:             nc.Term,
		CourseUID:        nc.CourseUID,
		Type:             nc.Type,
		MeetingTime:      nc.MeetingTime,
		Campus:           nc.Campus,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

// GetOrCreate looks a Course up by (name, school) and creates it if absent.
// Used when linking a student or professor to a possibly-new course by name,
// so multiple references to "the same" course within a school share one row.
func (svc *Service) GetOrCreate(ctx context.Context, nc NewCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, GetFilter{Name: nc.Name, SchoolID: nc.SchoolID})
	if err == nil {
		return crs, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Course{}, err
	}
	return svc.Create(ctx, nc)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

// Enroll links a student to a course. A duplicate pair yields
// ErrAlreadyEnrolled from the storage-level constraint.
func (svc *Service) Enroll(ctx context.Context, studentID, courseID string) (StudentCourse, error) {
	sc := StudentCourse{
		StudentID: studentID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	enr, err := svc.repo.CreateStudentCourse(ctx, sc)
	if errors.Is(err, ErrAlreadyEnrolled) {
		return StudentCourse{}, core.NewConflictError(err)
	}
	return enr, err
}

// AssignProfessor links a professor to a course, with the same duplicate
// handling as Enroll.
func (svc *Service) AssignProfessor(ctx context.Context, professorID, courseID string) (ProfessorCourse, error) {
	pc := ProfessorCourse{
		ProfessorID: professorID,
		CourseID:    courseID,
		CreatedAt:   time.Now().UTC(),
	}
	asg, err := svc.repo.CreateProfessorCourse(ctx, pc)
	if errors.Is(err, ErrAlreadyAssigned) {
		return ProfessorCourse{}, core.NewConflictError(err)
	}
	return asg, err
}

// GetEnrollmentByID returns the StudentCourse link with the given ID.
func (svc *Service) GetEnrollmentByID(ctx context.Context, id string) (StudentCourse, error) {
	return svc.repo.GetStudentCourseByID(ctx, id)
}

// GetEnrollment returns the StudentCourse link for the pair, or ErrNotEnrolled.
func (svc *Service) GetEnrollment(ctx context.Context, studentID, courseID string) (StudentCourse, error) {
	sc, err := svc.repo.GetStudentCourse(ctx, studentID, courseID)
	if errors.Is(err, ErrNotFound) {
		return StudentCourse{}, ErrNotEnrolled
	}
	return sc, err
}

func (svc *Service) CoursesForStudent(ctx context.Context, studentID string) ([]Course, error) {
	return svc.repo.QueryCoursesForStudent(ctx, studentID)
}

func (svc *Service) CoursesForProfessor(ctx context.Context, professorID string) ([]Course, error) {
	return svc.repo.QueryCoursesForProfessor(ctx, professorID)
}

func (svc *Service) CoursesForSchool(ctx context.Context, schoolID string) ([]Course, error) {
	return svc.repo.QueryCoursesForSchool(ctx, schoolID)
}

func (svc *Service) StudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.QueryStudentsForCourse(ctx, courseID)
}

func (svc *Service) ProfessorsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.QueryProfessorsForCourse(ctx, courseID)
}
