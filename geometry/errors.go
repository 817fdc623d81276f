package geometry

import "github.com/pkg/errors"

// Kind enumerates the single error taxonomy shared by every component, per
// spec §6 "Error surface".
type Kind int

const (
	_ Kind = iota
	KindIO
	KindUnknownFormat
	KindCorruptContainer
	KindUnsupportedVariant
	KindOutOfRange
	KindSectorNotFound
	KindDataLengthMismatch
	KindInvalidParameters
	KindNotMounted
	KindFileNotFound
	KindCorruptDirectory
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO"
	case KindUnknownFormat:
		return "UnknownFormat"
	case KindCorruptContainer:
		return "CorruptContainer"
	case KindUnsupportedVariant:
		return "UnsupportedVariant"
	case KindOutOfRange:
		return "OutOfRange"
	case KindSectorNotFound:
		return "SectorNotFound"
	case KindDataLengthMismatch:
		return "DataLengthMismatch"
	case KindInvalidParameters:
		return "InvalidParameters"
	case KindNotMounted:
		return "NotMounted"
	case KindFileNotFound:
		return "FileNotFound"
	case KindCorruptDirectory:
		return "CorruptDirectory"
	default:
		return "Unknown"
	}
}

// Error is the single error value type returned from every fallible
// operation in the core (§6, §7). It is never thrown out-of-band.
type Error struct {
	Kind    Kind
	Where   string // byte offset or structural location, for CorruptContainer
	Message string
	cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Where != "" {
		msg += " at " + e.Where
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a bare Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: errors.Errorf(format, args...).Error()}
}

// At attaches a structural location (e.g. a byte offset) to a CorruptContainer error.
func At(kind Kind, where string, message string) *Error {
	return &Error{Kind: kind, Where: where, Message: message}
}

// Wrap records cause as the underlying error while preserving Kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping wrapped causes.
func Is(err error, kind Kind) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}
