package main

import "errors"

// Reported conditions. Ambiguous text matches are not errors; they are
// flagged on the Resolution and on the entry outcome.
var (
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrResolutionNotFound = errors.New("question not found in live form")
	ErrOptionNotAvailable = errors.New("answer option not offered")
	ErrItemNotFound       = errors.New("equipment item not found in selection list")
	ErrApplyFailed        = errors.New("apply failed")
	ErrNotHotWork         = errors.New("work type is not hot work")
	ErrUnknownSection     = errors.New("unknown section")
	ErrUnknownCategory    = errors.New("unknown equipment category")
)
