package accommodation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/user"
	emailsvc "github.com/inksight/backend/services/email"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

type fixture struct {
	svc       *accommodation.Service
	courseSvc *course.Service
	usrSvc    *user.Service

	coordinator user.User
	student     user.User
	course      course.Course
	enrollment  course.StudentCourse
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.New()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	courseSvc := course.NewService(inmemdb.NewCourseRepository(db))
	svc := accommodation.NewService(inmemdb.NewAccommodationRepository(db), courseSvc, usrSvc, emailsvc.NewConsoleServiceMock())

	emailsvc.ClearSentMessages()

	coord, err := usrSvc.Create(ctx, user.NewUser{
		Name:     "Coordinator",
		Email:    "coord@test.edu",
		Password: "s3cret!",
		Role:     user.RoleSDSCoordinator,
		Position: "Director",
	})
	require.NoError(t, err)

	student, err := usrSvc.Create(ctx, user.NewUser{
		Name:             "Student",
		Email:            "student@test.edu",
		Password:         "s3cret!",
		Role:             user.RoleStudent,
		Year:             2,
		Disability:       "Dyslexia",
		SDSCoordinatorID: coord.ID,
	})
	require.NoError(t, err)

	crs, err := courseSvc.Create(ctx, course.NewCourse{
		Name:             "Calculus I",
		SchoolID:         "school-1",
		SDSCoordinatorID: coord.ID,
	})
	require.NoError(t, err)

	enr, err := courseSvc.Enroll(ctx, student.ID, crs.ID)
	require.NoError(t, err)

	return &fixture{
		svc:         svc,
		courseSvc:   courseSvc,
		usrSvc:      usrSvc,
		coordinator: coord,
		student:     student,
		course:      crs,
		enrollment:  enr,
	}
}

func (f *fixture) newRequest() accommodation.NewRequest {
	return accommodation.NewRequest{
		StudentID:        f.student.ID,
		CourseID:         f.course.ID,
		SDSCoordinatorID: f.coordinator.ID,
	}
}

func Test_Service_Submit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, f.newRequest())
	require.NoError(t, err)
	assert.False(t, req.Approved)
	assert.Equal(t, f.enrollment.ID, req.StudentCourseID)
	// request text falls back to the student's stored accommodation request
	assert.Equal(t, f.student.Student.AccommodationRequest, req.RequestText)
}

func Test_Service_Submit_notEnrolled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	nr := f.newRequest()
	nr.CourseID = "unknown-course"
	_, err := f.svc.Submit(ctx, nr)
	assert.ErrorIs(t, err, accommodation.ErrNotEnrolled)

	// nothing was persisted
	reqs, err := f.svc.Query(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func Test_Service_Submit_duplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.newRequest())
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.newRequest())
	var cErr *core.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func Test_Service_Approve(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, f.newRequest())
	require.NoError(t, err)

	approved, err := f.svc.IsApproved(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, approved)

	req, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, req.Approved)

	approved, err = f.svc.IsApproved(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.True(t, approved)

	// the student gets notified
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, f.student.Email, msg.To[0].Address)
	assert.Contains(t, msg.TextContent, f.course.Name)

	// re-approving is a no-op; no second email
	req2, err := f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, req2.Approved)
	assert.Equal(t, req.UpdatedAt, req2.UpdatedAt)
	assert.Len(t, emailsvc.SentMessages, 1)
}

func Test_Service_IsApproved_noRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// enrolled but never submitted
	approved, err := f.svc.IsApproved(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, approved)

	// not even enrolled
	approved, err = f.svc.IsApproved(ctx, f.student.ID, "unknown-course")
	require.NoError(t, err)
	assert.False(t, approved)
}

func Test_Service_IsPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pending, err := f.svc.IsPending(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	req, err := f.svc.Submit(ctx, f.newRequest())
	require.NoError(t, err)

	pending, err = f.svc.IsPending(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	_, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	pending, err = f.svc.IsPending(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.False(t, pending)
}

func Test_Service_ApprovedStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// a second enrolled student whose request stays pending
	other, err := f.usrSvc.Create(ctx, user.NewUser{
		Name:             "Other",
		Email:            "other@test.edu",
		Password:         "s3cret!",
		Role:             user.RoleStudent,
		Year:             1,
		Disability:       "ADHD",
		SDSCoordinatorID: f.coordinator.ID,
	})
	require.NoError(t, err)
	_, err = f.courseSvc.Enroll(ctx, other.ID, f.course.ID)
	require.NoError(t, err)

	req, err := f.svc.Submit(ctx, f.newRequest())
	require.NoError(t, err)
	nr := f.newRequest()
	nr.StudentID = other.ID
	_, err = f.svc.Submit(ctx, nr)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	students, err := f.svc.ApprovedStudents(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, f.student.ID, students[0].ID)
}
