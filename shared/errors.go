package shared

import "fmt"

// PriceSourceErrorKind classifies price source failures.
type PriceSourceErrorKind int

const (
	// PriceErrNetwork covers network errors and timeouts towards the
	// upstream price provider.
	PriceErrNetwork PriceSourceErrorKind = iota
	// PriceErrMalformed covers responses that cannot be interpreted.
	PriceErrMalformed
	// PriceErrNoUsableField covers responses carrying none of the
	// recognized price fields.
	PriceErrNoUsableField
	// PriceErrUnsupported covers price source variants that are recognized
	// but not implemented.
	PriceErrUnsupported
)

// String stringifies the provided price source error kind.
func (k PriceSourceErrorKind) String() string {
	switch k {
	case PriceErrNetwork:
		return "network"
	case PriceErrMalformed:
		return "malformed"
	case PriceErrNoUsableField:
		return "no_usable_field"
	case PriceErrUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// PriceSourceError is the failure type raised by all price sources. It is
// always caught at the point of use and converted into a skip-this-item or
// source-unavailable outcome, never propagated to crash a loop.
type PriceSourceError struct {
	Kind   PriceSourceErrorKind
	Symbol string
	Source string
	Msg    string
	Err    error
}

// Error satisfies the error interface.
func (e *PriceSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s price source (%s) for %s: %s: %v",
			e.Source, e.Kind.String(), e.Symbol, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s price source (%s) for %s: %s",
		e.Source, e.Kind.String(), e.Symbol, e.Msg)
}

// Unwrap exposes the underlying cause.
func (e *PriceSourceError) Unwrap() error {
	return e.Err
}

// NewPriceSourceError initializes a new price source error.
func NewPriceSourceError(kind PriceSourceErrorKind, symbol string, source string, msg string, err error) *PriceSourceError {
	return &PriceSourceError{
		Kind:   kind,
		Symbol: symbol,
		Source: source,
		Msg:    msg,
		Err:    err,
	}
}
