package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	validate   *validator.Validate
	usrRepo    user.Repository
	usrSvc     *user.Service
	courseRepo course.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -email EMAIL -first FIRST_NAME -last LAST_NAME [-role ROLE] - create a user")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  setrole -email EMAIL -role student|trainer|supervisor - change user's role")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, version...)")
	fmt.Println("  seed - insert the sample courses when there are none")
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserRole := addUserCmd.String("role", string(user.RoleStudent), "The user's role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	setRoleCmd := flag.NewFlagSet("setrole", flag.ContinueOnError)
	setRoleEmail := setRoleCmd.String("email", "", "The user's email.")
	setRoleRole := setRoleCmd.String("role", "", "The new role: student, trainer or supervisor.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserFirst == "" || *addUserLast == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Email:     *addUserEmail,
			Password:  pwd,
			FirstName: *addUserFirst,
			LastName:  *addUserLast,
			Role:      user.Role(*addUserRole),
		})

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

	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setRoleEmail == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		return cli.setRole(*setRoleEmail, user.Role(*setRoleRole))

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}
