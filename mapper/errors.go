package mapper

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors. Configuration and mapping failures are returned wrapped in
// *ConfigError and *MappingError so callers can match either the broad
// category or the specific cause.
var (
	ErrConfiguration       = errors.New("invalid mapper configuration")
	ErrMapping             = errors.New("mapping failed")
	ErrUnidentifiable      = errors.New("unidentifiable object")
	ErrAmbiguousSubject    = errors.New("graph has more than one subject")
	ErrCardinality         = errors.New("cardinality violation")
	ErrUnsupportedDatatype = errors.New("unsupported literal datatype")
	ErrInvalidIRI          = errors.New("invalid IRI")
	ErrConstruct           = errors.New("cannot construct instance")
	ErrUnsupportedType     = errors.New("unsupported value type")
)

// ConfigError is returned by Builder methods when a configuration call is
// rejected.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("semmap: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func configErr(op string, format string, args ...any) error {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}

// MappingError is returned when a read or write fails. Property names the
// entity property being processed, if any.
type MappingError struct {
	Op       string
	Type     reflect.Type
	Property string
	Err      error
}

func (e *MappingError) Error() string {
	msg := "semmap: " + e.Op
	if e.Type != nil {
		msg += " " + e.Type.String()
	}
	if e.Property != "" {
		msg += "." + e.Property
	}
	return msg + ": " + e.Err.Error()
}

func (e *MappingError) Unwrap() error { return e.Err }

// Is matches ErrMapping.
func (e *MappingError) Is(target error) bool { return target == ErrMapping }

// IsConfigError reports whether err was caused by a rejected configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsMappingError reports whether err is a read or write failure.
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

// Warning records a non-fatal condition encountered during a read or write.
type Warning struct {
	Property string
	Message  string
}

func (w Warning) String() string {
	if w.Property == "" {
		return w.Message
	}
	return w.Property + ": " + w.Message
}
