package accommodation

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("note-taking request not found")
	ErrNotEnrolled   = errors.New("student is not enrolled in this course")
	ErrRequestExists = errors.New("a request already exists for this enrollment")
)

type (
	Repository interface {
		// CreateRequest surfaces ErrRequestExists on the storage-level
		// student_course uniqueness constraint.
		CreateRequest(ctx context.Context, req NoteTakingRequest) (NoteTakingRequest, error)
		GetRequestByID(ctx context.Context, id string) (NoteTakingRequest, error)
		GetRequestByEnrollment(ctx context.Context, studentCourseID string) (NoteTakingRequest, error)
		QueryRequests(ctx context.Context, filter *QueryFilter) ([]NoteTakingRequest, error)
		UpdateRequest(ctx context.Context, req NoteTakingRequest) (NoteTakingRequest, error)
		QueryApprovedStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error)
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
		usrSvc    *user.Service
		mailSvc   core.EmailService
	}
)

func NewService(repo Repository, courseSvc *course.Service, usrSvc *user.Service, mailSvc core.EmailService) *Service {
	return &Service{
		repo:      repo,
		courseSvc: courseSvc,
		usrSvc:    usrSvc,
		mailSvc:   mailSvc,
	}
}

// Submit creates a pending request for the student's enrollment in the
// course. The student must already be enrolled; at most one request can
// exist per enrollment.
func (svc *Service) Submit(ctx context.Context, nr NewRequest) (NoteTakingRequest, error) {
	sc, err := svc.courseSvc.GetEnrollment(ctx, nr.StudentID, nr.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrNotEnrolled) {
			return NoteTakingRequest{}, ErrNotEnrolled
		}
		return NoteTakingRequest{}, err
	}

	text := nr.RequestText
	if text == "" {
		if usr, err := svc.usrSvc.GetByID(ctx, nr.StudentID); err == nil && usr.Student != nil {
			text = usr.Student.AccommodationRequest
		}
	}

	now := time.Now().UTC()
	req := NoteTakingRequest{
		RequestText:      text,
		StudentCourseID:  sc.ID,
		SDSCoordinatorID: nr.SDSCoordinatorID,
		Approved:         false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := svc.repo.CreateRequest(ctx, req)
	if errors.Is(err, ErrRequestExists) {
		return NoteTakingRequest{}, core.NewConflictError(err)
	}
	return created, err
}

// Approve sets approved=true. Approving an already-approved request is a
// no-op, so concurrent duplicate approvals are safe.
func (svc *Service) Approve(ctx context.Context, id string) (NoteTakingRequest, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return NoteTakingRequest{}, err
	}
	if req.Approved {
		return req, nil
	}

	req.Approved = true
	req.UpdatedAt = time.Now().UTC()
	req, err = svc.repo.UpdateRequest(ctx, req)
	if err != nil {
		return NoteTakingRequest{}, err
	}

	svc.notifyApproval(ctx, req)
	return req, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (NoteTakingRequest, error) {
	return svc.repo.GetRequestByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]NoteTakingRequest, error) {
	return svc.repo.QueryRequests(ctx, filter)
}

// IsApproved reports whether the student is approved for the course.
// Absence of a request means not approved.
func (svc *Service) IsApproved(ctx context.Context, studentID, courseID string) (bool, error) {
	sc, err := svc.courseSvc.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotEnrolled) {
			return false, nil
		}
		return false, err
	}
	req, err := svc.repo.GetRequestByEnrollment(ctx, sc.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return req.Approved, nil
}

// IsPending reports whether a request exists for the enrollment and has not
// been approved yet.
func (svc *Service) IsPending(ctx context.Context, studentID, courseID string) (bool, error) {
	sc, err := svc.courseSvc.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotEnrolled) {
			return false, nil
		}
		return false, err
	}
	req, err := svc.repo.GetRequestByEnrollment(ctx, sc.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !req.Approved, nil
}

// ApprovedStudents lists the students whose requests for the course are approved.
func (svc *Service) ApprovedStudents(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.QueryApprovedStudentsForCourse(ctx, courseID)
}

// notifyApproval emails the student once their request is approved.
// Failures are swallowed; the approval itself has already been persisted.
func (svc *Service) notifyApproval(ctx context.Context, req NoteTakingRequest) {
	if svc.mailSvc == nil {
		return
	}
	sc, err := svc.courseSvc.GetEnrollmentByID(ctx, req.StudentCourseID)
	if err != nil {
		return
	}
	student, err := svc.usrSvc.GetByID(ctx, sc.StudentID)
	if err != nil {
		return
	}
	crs, err := svc.courseSvc.GetByID(ctx, sc.CourseID)
	if err != nil {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "Note-taking accommodation approved",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYour note-taking accommodation request for %s has been approved. "+
				"You now have access to note-taking features for this course.\n", student.Name, crs.Name),
	})
}
