package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.New()
	usrRepo = inmemdb.NewUserRepository(db)
	return &commandLine{
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo),
		permSvc: permission.NewService(inmemdb.NewPermissionRepository(db), usrRepo),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sql.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate was not invoked")
	}
}

func Test_commandLine_addCoordinator(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"addcoordinator", "-name", "Coord"}, wantErr: errHelp},
		{name: "no password", args: []string{"addcoordinator", "-name", "Coord", "-email", "coord@test.edu", "-position", "Director"}, wantErr: errHelp},
		{name: "ok", args: []string{"addcoordinator", "-name", "Coord", "-email", "coord@test.edu", "-position", "Director"}, pwd: "s3cret!"},
		{name: "explicit code", args: []string{"addcoordinator", "-name", "Coord2", "-email", "coord2@test.edu", "-position", "Director", "-accesscode", "SDS123"}, pwd: "s3cret!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			email := "coord@test.edu"
			if len(tt.args) > 4 {
				email = tt.args[4]
			}
			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: email})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if usr.SDSCoordinator == nil || usr.SDSCoordinator.AccessCode == "" {
				t.Error("coordinator profile or access code missing")
			}
			if _, err = cli.permSvc.GetForSubject(context.Background(), user.RoleSDSCoordinator, usr.ID); err != nil {
				t.Errorf("default permissions not assigned: %v", err)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		Name:     "Coord",
		Email:    "coord@test.edu",
		Password: "old-pwd",
		Role:     user.RoleSDSCoordinator,
		Position: "Director",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "coord@test.edu"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "ghost@test.edu"}, pwd: "new-pwd", wantErr: user.ErrNotFound},
		{name: "ok", args: []string{"resetpassword", "-email", "coord@test.edu"}, pwd: "new-pwd"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_backfillPermissions(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	if _, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:     "Coord",
		Email:    "coord@test.edu",
		Password: "s3cret!",
		Role:     user.RoleSDSCoordinator,
		Position: "Director",
	}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	if err := cli.run([]string{"admin", "backfillpermissions"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	entries, err := cli.permSvc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll() failed, %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d ledger entries, want 1", len(entries))
	}
}
