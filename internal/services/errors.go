package services

import "errors"

// Run service errors
var (
	ErrNoRunYet      = errors.New("no completed run yet")
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrTableNotFound = errors.New("table not found")
)
