package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	usrSvc  *user.Service
	permSvc *permission.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  addcoordinator -name NAME -email EMAIL -position POSITION [-accesscode CODE] - create an SDS coordinator")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password")
	fmt.Println("  backfillpermissions - assign default permissions to every existing user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCoordinatorCmd := flag.NewFlagSet("addcoordinator", flag.ExitOnError)
	addCoordinatorName := addCoordinatorCmd.String("name", "", "The coordinator's full name.")
	addCoordinatorEmail := addCoordinatorCmd.String("email", "", "The coordinator's email. The password will be prompted next.")
	addCoordinatorPosition := addCoordinatorCmd.String("position", "", "The coordinator's position.")
	addCoordinatorCode := addCoordinatorCmd.String("accesscode", "", "Optional access code; one is generated when omitted.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addcoordinator":
		if err := addCoordinatorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCoordinatorName == "" || *addCoordinatorEmail == "" || *addCoordinatorPosition == "" {
			addCoordinatorCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addCoordinatorCmd.Usage()
			return errHelp
		}
		return cli.addCoordinator(*addCoordinatorName, *addCoordinatorEmail, *addCoordinatorPosition, *addCoordinatorCode, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "backfillpermissions":
		return cli.backfillPermissions()
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
