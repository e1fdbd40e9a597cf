package tokens

import "errors"

type Kind string

const (
	KindMalformed        Kind = "malformed"
	KindExpired          Kind = "expired"
	KindSignatureInvalid Kind = "signature_invalid"
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Error is returned by the Verify* methods. errors.Is matches the sentinel of its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return e.sentinel().Error() + ": " + e.Err.Error()
}

func (e *Error) Is(target error) bool { return target == e.sentinel() }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindExpired:
		return ErrExpired
	case KindSignatureInvalid:
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}

// KindOf returns the Kind of a token error, or "" if err is not one.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
