package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/maxradov/propacondom-app/internal/workflow"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Report produced
	ExitTaskFailed = 1 // The backend task ended in FAILURE
	ExitError      = 2 // Input, network, configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failed *workflow.TaskFailedError
	if errors.As(err, &failed) {
		return ExitTaskFailed
	}
	return ExitError
}
