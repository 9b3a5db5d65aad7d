package main

import (
	"os"

	"git.home.luguber.info/inful/docnav/cmd/docnav/commands"
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	err := commands.Execute(cli, os.Args[1:], os.Stdout)
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
