package main

import (
	"os"

	"github.com/firefly-engineering/fersk/cmd"
	"github.com/firefly-engineering/fersk/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.ReportError(err)
		os.Exit(errors.GetExitCode(err))
	}
}
