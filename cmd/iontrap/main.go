package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/iontrap/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands print their own failures. Usage errors from cobra (bad
	// flags, wrong arg count) are not ExitErrors and are printed here.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}
	if exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitErr.Code)
}
