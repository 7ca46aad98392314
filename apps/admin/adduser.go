package main

import (
	"context"
	"fmt"

	"github.com/trezcool/sejali/core/user"
)

// addUser creates a user.User with its profile
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.CreateByAdmin(context.Background(), "", nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s) as %s\n", usr.Email, usr.ID, usr.Role)
	return nil
}
