package handlers

import "errors"

var (
	errNilID           = errors.New("id must not be the nil uuid")
	errMissingMinValue = errors.New("min_value is required")
)
