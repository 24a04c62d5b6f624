// Package validation provides input validation for user-supplied paths and
// Toolbox names (tier markers and database types).
package validation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Common validation errors.
var (
	ErrEmptyPath       = errors.New("path cannot be empty")
	ErrNotAFile        = errors.New("path does not refer to a regular file")
	ErrInvalidMarker   = errors.New("invalid Toolbox marker name")
	ErrSameInputOutput = errors.New("input and output file are the same")
)

// Toolbox markers and database type names may only contain ASCII letters,
// digits and the underscore. Whitespace is never allowed.
var markerNameRe = regexp.MustCompile(`^\w+$`)

// ValidateMarkerName checks that name is usable as a Toolbox tier marker or
// database type name.
func ValidateMarkerName(name string) error {
	if !markerNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q (only ASCII letters, digits and _ are allowed)", ErrInvalidMarker, name)
	}
	return nil
}

// ValidateInputFile checks that path names an existing regular file.
func ValidateInputFile(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	return nil
}

// ValidateDistinct rejects runs that would overwrite their own input.
func ValidateDistinct(inputPath, outputPath string) error {
	if inputPath == outputPath {
		return fmt.Errorf("%w: %s", ErrSameInputOutput, inputPath)
	}
	return nil
}
