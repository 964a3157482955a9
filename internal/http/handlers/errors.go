package handlers

import "errors"

var errMissingScore = errors.New("score is required")
