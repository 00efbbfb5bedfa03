package main

import (
	"github.com/trezcool/kiongozi/storage/database"
)

var gooseRunFunc = database.GooseRun // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
