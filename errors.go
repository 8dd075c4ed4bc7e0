package reel

import "errors"

var (
	// ErrActionLimit reports that script execution exceeded a resource
	// limit. Wrap it to have the Stage disable scripting.
	ErrActionLimit = errors.New("action limit exceeded")

	// ErrNoLoader is returned when a level load is requested without a Loader.
	ErrNoLoader = errors.New("no loader configured")
)
