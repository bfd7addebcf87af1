package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/storage/database"
)

var (
	migrateFunc  = database.RunMigrations    // mockable
	createDBFunc = database.CreateIfNotExist // mockable
)

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	return migrateFunc(db, args[0], args[1:]...)
}

func (cli *commandLine) createDB() error {
	return createDBFunc(cli.conf)
}
