package cases

import "errors"

var (
	errCaseExists   = errors.New("case number already exists")
	errCaseNotFound = errors.New("case not found")
)
