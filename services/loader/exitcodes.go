package main

import (
	"errors"

	"github.com/telescope-ops/obsadmin/services/internal/pipeline"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// runCode classifies a failed pipeline run: sheet problems are validation
// failures, reference lookups and ingestion are database failures.
func runCode(err error) int {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return 1
	}
	var parseErr *schedule.ParseError
	var lookupErr *schedule.ReferenceLookupError
	switch {
	case stageErr.Stage == pipeline.StageTokenize, errors.As(err, &parseErr):
		return exitValidation
	case stageErr.Stage == pipeline.StageIngest, errors.As(err, &lookupErr):
		return exitDB
	default:
		return 1
	}
}
