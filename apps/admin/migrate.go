package main

import (
	"context"
	"fmt"

	"github.com/trezcool/sejali/storage/database"
)

var runMigrationsFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	return runMigrationsFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) seed() error {
	n, err := database.SeedCourses(context.Background(), cli.courseRepo)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d courses\n", n)
	return nil
}
