package permission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

func setup(t *testing.T) (*permission.Service, *user.Service) {
	t.Helper()
	db := inmemdb.New()
	usrRepo := inmemdb.NewUserRepository(db)
	return permission.NewService(inmemdb.NewPermissionRepository(db), usrRepo), user.NewService(usrRepo)
}

func createUser(t *testing.T, svc *user.Service, email string, role user.Role) user.User {
	t.Helper()
	nu := user.NewUser{
		Name:     "User " + email,
		Email:    email,
		Password: "s3cret!",
		Role:     role,
	}
	switch role {
	case user.RoleStudent:
		nu.Year = 1
		nu.Disability = "Dyslexia"
		nu.SDSCoordinatorID = "coord-1"
	case user.RoleProfessor:
		nu.Title = "Dr."
	case user.RoleSDSCoordinator:
		nu.Position = "Director"
	}
	usr, err := svc.Create(context.Background(), nu)
	require.NoError(t, err)
	return usr
}

func Test_DefaultFlags(t *testing.T) {
	student := permission.DefaultFlags(user.RoleStudent)
	assert.True(t, student.CanView)
	assert.True(t, student.SubmitRequest)
	assert.True(t, student.RecordContent)
	assert.True(t, student.ConvertContent)
	assert.True(t, student.DownloadNotes)
	assert.False(t, student.CanApprove)
	assert.False(t, student.AccessSDSPortal)

	prof := permission.DefaultFlags(user.RoleProfessor)
	assert.True(t, prof.CanApprove)
	assert.True(t, prof.GrantRecordingAccess)
	assert.True(t, prof.AccessProfPortal)
	assert.True(t, prof.AccessDigitalTwin)
	assert.False(t, prof.SubmitRequest)
	assert.False(t, prof.AccessSDSPortal)

	ta := permission.DefaultFlags(user.RoleTeacherAssistant)
	assert.True(t, ta.ProofreadNotes)
	assert.True(t, ta.AccessProfPortal)
	assert.False(t, ta.CanApprove)
	assert.False(t, ta.RecordContent)

	coord := permission.DefaultFlags(user.RoleSDSCoordinator)
	assert.True(t, coord.CanApprove)
	assert.True(t, coord.AccessSDSPortal)
	assert.False(t, coord.AccessProfPortal)
	assert.False(t, coord.DownloadNotes)

	assert.Zero(t, permission.DefaultFlags(user.Role("unknown")))
}

func Test_Service_AssignDefault(t *testing.T) {
	svc, usrSvc := setup(t)
	ctx := context.Background()
	usr := createUser(t, usrSvc, "student@test.edu", user.RoleStudent)

	ent, err := svc.AssignDefault(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, ent.SubjectRole)
	assert.Equal(t, usr.ID, ent.SubjectID)
	assert.Equal(t, permission.DefaultFlags(user.RoleStudent), ent.Flags)

	// flags drift, then re-assigning resets them while keeping the same row
	ent.Flags.CanApprove = true
	_, err = svc.Update(ctx, ent.ID, ent.Flags)
	require.NoError(t, err)

	again, err := svc.AssignDefault(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, ent.ID, again.ID)
	assert.Equal(t, ent.CreatedAt, again.CreatedAt)
	assert.False(t, again.CanApprove)
}

func Test_Service_GetForSubject(t *testing.T) {
	svc, usrSvc := setup(t)
	ctx := context.Background()
	usr := createUser(t, usrSvc, "prof@test.edu", user.RoleProfessor)

	_, err := svc.GetForSubject(ctx, user.RoleProfessor, usr.ID)
	assert.ErrorIs(t, err, permission.ErrNotFound)

	ent, err := svc.AssignDefault(ctx, usr)
	require.NoError(t, err)

	got, err := svc.GetForSubject(ctx, user.RoleProfessor, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, ent.ID, got.ID)

	// the subject key is the (role, id) pair; a different role misses
	_, err = svc.GetForSubject(ctx, user.RoleStudent, usr.ID)
	assert.ErrorIs(t, err, permission.ErrNotFound)
}

func Test_Service_Update(t *testing.T) {
	svc, usrSvc := setup(t)
	ctx := context.Background()
	usr := createUser(t, usrSvc, "ta@test.edu", user.RoleTeacherAssistant)

	ent, err := svc.AssignDefault(ctx, usr)
	require.NoError(t, err)

	flags := ent.Flags
	flags.EditNotes = true
	updated, err := svc.Update(ctx, ent.ID, flags)
	require.NoError(t, err)
	assert.True(t, updated.EditNotes)
	assert.Equal(t, ent.ID, updated.ID)

	_, err = svc.Update(ctx, "unknown", flags)
	assert.ErrorIs(t, err, permission.ErrNotFound)
}

func Test_Service_AssignAll(t *testing.T) {
	svc, usrSvc := setup(t)
	ctx := context.Background()

	coord := createUser(t, usrSvc, "coord@test.edu", user.RoleSDSCoordinator)
	prof := createUser(t, usrSvc, "prof@test.edu", user.RoleProfessor)

	count, err := svc.AssignAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	entries, err := svc.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	ent, err := svc.GetForSubject(ctx, user.RoleSDSCoordinator, coord.ID)
	require.NoError(t, err)
	assert.True(t, ent.AccessSDSPortal)
	ent, err = svc.GetForSubject(ctx, user.RoleProfessor, prof.ID)
	require.NoError(t, err)
	assert.True(t, ent.AccessProfPortal)
}
