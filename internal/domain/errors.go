package domain

import "errors"

// Sentinel errors shared across the execution core, following the teacher's
// libs/database/errors.go convention of typed sentinels instead of ad-hoc
// string errors.
var (
	ErrSpecNotFound        = errors.New("instrument spec not found")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrDuplicateIntent     = errors.New("duplicate order intent within lookback window")
	ErrPyramiding          = errors.New("pyramiding guard: position or pending order already exists")
	ErrSymbolBlocked       = errors.New("symbol is blocklisted")
	ErrSizeStepRoundToZero = errors.New("size rounds to zero at the instrument size step")
	ErrSizeBelowMin        = errors.New("size below instrument minimum")
	ErrSizeStepMisaligned  = errors.New("size misaligned to instrument size step after rounding")
)
