package main

import (
	"context"
	"fmt"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/user"
)

// addCoordinator creates an SDS coordinator identity along with its default
// permissions. This is how the first coordinator gets bootstrapped; students
// need a coordinator access code to sign up.
func (cli *commandLine) addCoordinator(name, email, position, accessCode, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:       core.CleanString(name),
		Email:      core.CleanString(email, true /* lower */),
		Password:   pwd,
		Role:       user.RoleSDSCoordinator,
		Position:   core.CleanString(position),
		AccessCode: core.CleanString(accessCode),
	})
	if err != nil {
		return err
	}

	if _, err = cli.permSvc.AssignDefault(ctx, usr); err != nil {
		return err
	}

	fmt.Printf("Coordinator created. Access code: %s\n", usr.SDSCoordinator.AccessCode)
	return nil
}
