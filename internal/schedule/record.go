package schedule

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// Weekday codes used in BYDAY recurrence parts.
const (
	Monday    = "MO"
	Tuesday   = "TU"
	Wednesday = "WE"
	Thursday  = "TH"
	Friday    = "FR"
	Saturday  = "SA"
	Sunday    = "SU"
)

// Record is one course occurrence: a section meeting on a set of weekdays
// between two dates, at a fixed time and place.
type Record struct {
	Section        string   `json:"section" yaml:"section"`
	StartDate      string   `json:"start_date" yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string   `json:"end_date" yaml:"end_date" validate:"required,datetime=2006-01-02"`
	Days           []string `json:"days" yaml:"days" validate:"required,min=1,dive,oneof=MO TU WE TH FR SA SU"`
	AlternateWeeks bool     `json:"alternate_weeks" yaml:"alternate_weeks"`
	StartTime      string   `json:"start_time" yaml:"start_time" validate:"required,datetime=15:04"`
	EndTime        string   `json:"end_time" yaml:"end_time" validate:"required,datetime=15:04"`
	Location       string   `json:"location" yaml:"location"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate reports whether the record satisfies the date, time and weekday
// formats the calendar service expects.
func (r Record) Validate() error {
	return recordValidator().Struct(r)
}

// ValidateAll validates every record and returns the first failure, tagged
// with the record's position.
func ValidateAll(records []Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return &RecordError{Index: i, Section: r.Section, Err: err}
		}
	}
	return nil
}
