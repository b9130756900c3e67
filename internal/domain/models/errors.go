package models

import (
	"errors"
	"fmt"
)

// ErrNoData means every attempted provider failed. It is joined with the
// provider errors, so errors.Is and errors.As both see through it.
var ErrNoData = errors.New("no provider returned data")

// ErrRateLimited marks an HTTP 429 from a provider.
var ErrRateLimited = errors.New("provider rate limited")

// ErrJobNotFound is returned by the job store for unknown ids.
var ErrJobNotFound = errors.New("job not found")

// ConfigurationError is raised before any network call when a chain has no usable provider credential.
type ConfigurationError struct {
	Field string
	Chain Chain
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is required for chain %s", e.Field, e.Chain)
}

// ProviderUnavailableError means the provider's first page failed.
type ProviderUnavailableError struct {
	Provider string
	Chain    Chain
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable for %s: %v", e.Provider, e.Chain, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}

type PartialReason string

const (
	PartialRateLimited  PartialReason = "rate_limited"
	PartialPageError    PartialReason = "page_error"
	PartialPageLimit    PartialReason = "page_limit"
	PartialCursorRepeat PartialReason = "cursor_repeat"
)

// PartialDataWarning means pagination stopped early; the records collected so far are still used.
type PartialDataWarning struct {
	Provider string
	Chain    Chain
	Reason   PartialReason
	Pages    int
	Records  int
	Err      error
}

func (w *PartialDataWarning) Error() string {
	msg := fmt.Sprintf("partial data from %s on %s after %d pages (%d records): %s", w.Provider, w.Chain, w.Pages, w.Records, w.Reason)
	if w.Err != nil {
		msg += ": " + w.Err.Error()
	}
	return msg
}

func (w *PartialDataWarning) Unwrap() error {
	return w.Err
}

// AsWarning renders the condition for PnLSummary.Warnings.
func (w *PartialDataWarning) AsWarning() Warning {
	return Warning{
		Kind:     WarningPartialData,
		Chain:    w.Chain,
		Provider: w.Provider,
		Reason:   string(w.Reason),
		Pages:    w.Pages,
		Records:  w.Records,
		Message:  w.Error(),
	}
}

// InvalidInputError is a caller mistake (bad wallet, unknown chain).
type InvalidInputError struct {
	Field string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}
