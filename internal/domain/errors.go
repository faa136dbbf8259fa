package domain

import "fmt"

// ResolutionError reports coordinates without a timezone match.
type ResolutionError struct {
	Latitude  float64
	Longitude float64
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no timezone for coordinates (%.4f, %.4f)", e.Latitude, e.Longitude)
}

// FetchError reports an unreachable or malformed external source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ContractViolation reports generated output that failed mechanical validation.
type ContractViolation struct {
	Reason string
}

func (e *ContractViolation) Error() string {
	return "synthesis contract violation: " + e.Reason
}

// TransportError reports a failed mail submission.
type TransportError struct {
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send mail to %s: %v", e.Recipient, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
