package domain

import "errors"

var (
	ErrInvalidRange        = errors.New("invalid_range")
	ErrDuplicateRangeStart = errors.New("duplicate_range_start")
	ErrGap                 = errors.New("tariff_gap")
	ErrOverlap             = errors.New("tariff_overlap")
	ErrMissingUnbounded    = errors.New("missing_unbounded_bracket")
	ErrMultipleUnbounded   = errors.New("multiple_unbounded_brackets")
	ErrFieldNotEditable    = errors.New("field_not_editable")
	ErrEmptySchedule       = errors.New("empty_tariff_schedule")
	ErrNegativeUsage       = errors.New("negative_usage")
	ErrInvalidVillage      = errors.New("invalid_village")
	ErrNotFound            = errors.New("tariff_not_found")
)
