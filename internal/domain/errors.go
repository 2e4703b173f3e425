package domain

import (
	"errors"
	"fmt"
)

// ErrDataGap marks a client with no records in the window.
// It is informational: features default to zero and the client is processed normally.
var ErrDataGap = errors.New("no records in window")

// ConfigurationError reports a broken policy table, catalog or window.
// It is fatal for the whole run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// DataIntegrityError reports input for one client that cannot be processed.
// It is fatal for that client only and never retried.
type DataIntegrityError struct {
	ClientCode int64
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error for client %d: %s", e.ClientCode, e.Reason)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDataIntegrityError reports whether err wraps a DataIntegrityError.
func IsDataIntegrityError(err error) bool {
	var de *DataIntegrityError
	return errors.As(err, &de)
}
