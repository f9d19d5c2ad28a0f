package refbase

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeStrong indicates a strong reference was released that was
	// never held, e.g. a handle cleared twice after being copied by value.
	ErrNegativeStrong = errors.New(`refbase: strong count underflow`)

	// ErrNegativeWeak is the weak count equivalent of ErrNegativeStrong.
	ErrNegativeWeak = errors.New(`refbase: weak count underflow`)

	// ErrDeadObject indicates an attempt to take a strong reference to an
	// object whose strong count already reached zero. Use Weak.Promote to
	// race safely against the last release.
	ErrDeadObject = errors.New(`refbase: strong reference to dead object`)

	// ErrFreed indicates use of a control block after both counts reached
	// zero.
	ErrFreed = errors.New(`refbase: use of freed control block`)

	// ErrEmptyHandle indicates dereferencing an empty Strong handle.
	ErrEmptyHandle = errors.New(`refbase: dereference of empty handle`)
)

// ContractError is the panic value used for consumer contract violations.
// These are bugs in the calling code, and are not recoverable in any
// meaningful sense, though the value may be inspected with errors.Is, if
// recovered (e.g. in tests).
type ContractError struct {
	// Err is one of the package's sentinel errors.
	Err error
	// Object is the %T of the payload, if known.
	Object string
	// Strong and Weak are the counts observed when the violation was
	// detected. A Strong of -1 means the object was never attached.
	Strong int32
	Weak   int32
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Object == `` {
		return fmt.Sprintf(`%v (strong=%d weak=%d)`, e.Err, e.Strong, e.Weak)
	}
	return fmt.Sprintf(`%v: %s (strong=%d weak=%d)`, e.Err, e.Object, e.Strong, e.Weak)
}

// Unwrap returns the underlying sentinel error.
func (e *ContractError) Unwrap() error {
	return e.Err
}

func violation(err error, b *Base, obj any) {
	v := &ContractError{Err: err}
	if obj != nil {
		v.Object = fmt.Sprintf(`%T`, obj)
	}
	if b != nil {
		v.Strong = b.strong.Load() - strongZero
		v.Weak = b.weak.Load()
		if t := b.tracker.Load(); t != nil {
			t.violation(b, v)
		}
	}
	panic(v)
}
