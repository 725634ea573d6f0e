package main

import "github.com/lusambya/kazi/storage/database"

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	if err := migrateFunc(cli.db); err != nil {
		return err
	}
	logger.Println("migrations applied")
	return nil
}
