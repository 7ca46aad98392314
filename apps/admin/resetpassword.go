package main

import (
	"context"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/user"
)

// resetPassword sets the user's password and ends their sessions.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	reset := user.PasswordReset{NewPassword: pwd}
	if err = reset.Validate(cli.validate); err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(ctx, "", usr.ID, reset.NewPassword)
}

func (cli *commandLine) setRole(email string, role user.Role) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.ChangeRole(ctx, "", usr.ID, role)
	return err
}
