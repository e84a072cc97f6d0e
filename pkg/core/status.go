package core

// ProbeOutcome is the result of asking one dialect whether it accepts a text.
type ProbeOutcome int

const (
	OutcomeNoMatch ProbeOutcome = iota // Predicate returned false
	OutcomeMatch                       // Predicate returned true
	OutcomeFaulted                     // Predicate panicked; treated as no match
)

// String returns the string representation of ProbeOutcome
func (o ProbeOutcome) String() string {
	switch o {
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeMatch:
		return "match"
	case OutcomeFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// IsMatch returns true if the dialect accepted the text
func (o ProbeOutcome) IsMatch() bool {
	return o == OutcomeMatch
}

// ErrorCategory classifies conversion errors
type ErrorCategory int

const (
	ErrCategoryNone     ErrorCategory = iota // No error
	ErrCategoryFormat                        // Text passed dispatch but does not match the dialect's shape
	ErrCategoryFault                         // A dialect implementation failed while probed
	ErrCategoryContract                      // Canonical input violates the caller contract
	ErrCategoryGenerate                      // Text could not be produced
	ErrCategoryConfig                        // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryFormat:
		return "format"
	case ErrCategoryFault:
		return "fault"
	case ErrCategoryContract:
		return "contract"
	case ErrCategoryGenerate:
		return "generate"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
