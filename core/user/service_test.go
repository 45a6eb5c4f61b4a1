package user_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/user"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	db := inmemdb.New()
	repo := inmemdb.NewUserRepository(db)
	return user.NewService(repo), repo
}

func createCoordinator(t *testing.T, svc *user.Service, email, code string) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:       "Coordinator",
		Email:      email,
		Password:   "s3cret!",
		Role:       user.RoleSDSCoordinator,
		Position:   "Director",
		AccessCode: code,
	})
	require.NoError(t, err)
	return usr
}

func Test_Service_Create_coordinator(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	t.Run("explicit access code", func(t *testing.T) {
		usr := createCoordinator(t, svc, "coord@test.edu", "SDS123")
		assert.Equal(t, user.RoleSDSCoordinator, usr.Role)
		require.NotNil(t, usr.SDSCoordinator)
		assert.Equal(t, "SDS123", usr.SDSCoordinator.AccessCode)
		assert.True(t, usr.IsActive)
		assert.Nil(t, usr.Student)
	})

	t.Run("generated access code", func(t *testing.T) {
		usr := createCoordinator(t, svc, "coord2@test.edu", "")
		require.NotNil(t, usr.SDSCoordinator)
		assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9]{6,8}$`), usr.SDSCoordinator.AccessCode)
	})

	t.Run("duplicate access code", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{
			Name:       "Copycat",
			Email:      "coord3@test.edu",
			Password:   "s3cret!",
			Role:       user.RoleSDSCoordinator,
			Position:   "Director",
			AccessCode: "SDS123",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func Test_Service_Create_student(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	coord := createCoordinator(t, svc, "coord@test.edu", "SDS123")

	t.Run("by coordinator access code", func(t *testing.T) {
		usr, err := svc.Create(ctx, user.NewUser{
			Name:                     "Student",
			Email:                    "student@test.edu",
			Password:                 "s3cret!",
			Role:                     user.RoleStudent,
			Year:                     2,
			Disability:               "Dyslexia",
			SDSCoordinatorAccessCode: "SDS123",
		})
		require.NoError(t, err)
		require.NotNil(t, usr.Student)
		assert.Equal(t, coord.ID, usr.Student.SDSCoordinatorID)
		// accommodation text is derived from the disability when omitted
		assert.Equal(t, "I need notetaking accommodations for my classes because of my Dyslexia", usr.Student.AccommodationRequest)
	})

	t.Run("unknown access code", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{
			Name:                     "Lost",
			Email:                    "lost@test.edu",
			Password:                 "s3cret!",
			Role:                     user.RoleStudent,
			Year:                     1,
			Disability:               "ADHD",
			SDSCoordinatorAccessCode: "NOPE99",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("explicit accommodation text wins", func(t *testing.T) {
		usr, err := svc.Create(ctx, user.NewUser{
			Name:                 "Student2",
			Email:                "student2@test.edu",
			Password:             "s3cret!",
			Role:                 user.RoleStudent,
			Year:                 3,
			Disability:           "ADHD",
			SDSCoordinatorID:     coord.ID,
			AccommodationRequest: "custom text",
		})
		require.NoError(t, err)
		assert.Equal(t, "custom text", usr.Student.AccommodationRequest)
	})
}

func Test_Service_Create_duplicateEmail(t *testing.T) {
	svc, _ := setup(t)
	createCoordinator(t, svc, "coord@test.edu", "SDS123")

	_, err := svc.Create(context.Background(), user.NewUser{
		Name:     "Prof",
		Email:    "coord@test.edu",
		Password: "s3cret!",
		Role:     user.RoleProfessor,
		Title:    "Dr.",
	})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func Test_Service_Update(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	coord := createCoordinator(t, svc, "coord@test.edu", "SDS123")

	usr, err := svc.Create(ctx, user.NewUser{
		Name:             "Student",
		Email:            "student@test.edu",
		Password:         "s3cret!",
		Role:             user.RoleStudent,
		Year:             1,
		Disability:       "Dyslexia",
		SDSCoordinatorID: coord.ID,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, usr.ID, user.UpdateUser{
		Name:  "Renamed",
		Email: usr.Email,
		Year:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 2, updated.Student.Year)
	// role and untouched profile fields survive
	assert.Equal(t, user.RoleStudent, updated.Role)
	assert.Equal(t, "Dyslexia", updated.Student.Disability)
}

func Test_Service_passwords(t *testing.T) {
	svc, _ := setup(t)
	usr := createCoordinator(t, svc, "coord@test.edu", "SDS123")

	fetched, err := svc.GetByEmail(context.Background(), "Coord@Test.edu")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, fetched.ID)
	assert.NoError(t, fetched.CheckPassword("s3cret!"))
	assert.Error(t, fetched.CheckPassword("wrong"))
}

func Test_Service_Delete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	usr := createCoordinator(t, svc, "coord@test.edu", "SDS123")

	require.NoError(t, svc.Delete(ctx, usr.ID))
	_, err := svc.GetByID(ctx, usr.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}
