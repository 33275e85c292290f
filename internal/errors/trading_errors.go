package errors

import "fmt"

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Recoverable, cycle-local errors
	ErrorCategoryDataInsufficient   ErrorCategory = "DATA_INSUFFICIENT"
	ErrorCategoryScoringUnavailable ErrorCategory = "SCORING_UNAVAILABLE"
	ErrorCategoryRiskLimit          ErrorCategory = "RISK_LIMIT"
	ErrorCategoryConfigRejected     ErrorCategory = "CONFIG_REJECTED"

	// Critical errors
	ErrorCategoryEmergencyStop ErrorCategory = "EMERGENCY_STOP"
	ErrorCategoryFatal         ErrorCategory = "FATAL"
)

// TradingError is a categorized error with component context
type TradingError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *TradingError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s in %s: %v", e.Category, e.Component, e.Message, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s in %s", e.Category, e.Component, e.Message, e.Operation)
}

// Unwrap returns the underlying error for error unwrapping
func (e *TradingError) Unwrap() error {
	return e.Underlying
}

// IsFatal returns whether this error must stop the process
func (e *TradingError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal
}

// IsRecoverable reports whether the current cycle may continue after
// this error. Risk-limit rejections and degraded data are expected;
// only fatal and emergency-stop errors abort a cycle.
func (e *TradingError) IsRecoverable() bool {
	switch e.Category {
	case ErrorCategoryFatal, ErrorCategoryEmergencyStop:
		return false
	default:
		return true
	}
}

// New creates a new categorized trading error
func New(category ErrorCategory, component, operation, message string) *TradingError {
	return &TradingError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap wraps an existing error with trading error context
func Wrap(err error, category ErrorCategory, component, operation string) *TradingError {
	if err == nil {
		return nil
	}
	return &TradingError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewDataInsufficient flags a strategy/symbol skipped for lack of history
func NewDataInsufficient(component, operation, message string) *TradingError {
	return New(ErrorCategoryDataInsufficient, component, operation, message)
}

// NewScoringUnavailable flags a model scorer that errored
func NewScoringUnavailable(component, operation string, err error) *TradingError {
	return Wrap(err, ErrorCategoryScoringUnavailable, component, operation)
}

// NewRiskLimit flags an expected risk rejection
func NewRiskLimit(component, operation, message string) *TradingError {
	return New(ErrorCategoryRiskLimit, component, operation, message)
}

// NewConfigRejected flags a refused configuration update
func NewConfigRejected(component, operation, message string) *TradingError {
	return New(ErrorCategoryConfigRejected, component, operation, message)
}

// NewEmergencyStop flags the global trading halt
func NewEmergencyStop(component, operation, message string) *TradingError {
	return New(ErrorCategoryEmergencyStop, component, operation, message)
}

// NewFatal flags an unrecoverable subsystem failure
func NewFatal(component, operation, message string) *TradingError {
	return New(ErrorCategoryFatal, component, operation, message)
}
