package refbase

import (
	"sync"
	"sync/atomic"
)

// The strong counter is stored biased by one, so the zero value of Base
// reads as never attached, distinct from a strong count that fell to zero.
const (
	strongInitial int32 = 0
	strongZero    int32 = 1
)

const (
	flagLifetimeWeak uint32 = 1 << iota
	flagDestroyed
	flagFreed
)

// Lifetime selects which count governs destruction of the payload.
type Lifetime uint32

const (
	// LifetimeStrong destroys the payload when the strong count reaches
	// zero. This is the default.
	LifetimeStrong Lifetime = iota
	// LifetimeWeak keeps the payload alive until the weak count also
	// reaches zero. Weak references may be promoted while the strong count
	// is zero, subject to IncStrongAttemptedHook.
	LifetimeWeak
)

// String implements fmt.Stringer.
func (x Lifetime) String() string {
	switch x {
	case LifetimeStrong:
		return `strong`
	case LifetimeWeak:
		return `weak`
	default:
		return `unknown`
	}
}

type (
	// Referent is implemented by any pointer to a struct embedding Base.
	// Implementations outside this package are only possible via
	// embedding.
	Referent interface {
		refBase() *Base
	}

	// Object constrains the type parameter of the handles, and the raw
	// reference functions, to (comparable) implementations of Referent.
	Object interface {
		comparable
		Referent
	}

	// Base is the control block, which must be embedded (by value) in the
	// payload struct, and must not be copied after first use. The zero value
	// is ready to use, with LifetimeStrong.
	//
	// Lifecycle hooks are optional, and are implemented by the payload type,
	// see FirstRefHook, LastStrongRefHook, IncStrongAttemptedHook,
	// LastWeakRefHook and Destroyer.
	Base struct {
		// betteralign:ignore

		strong   atomic.Int32 // biased, see strongInitial
		weak     atomic.Int32 // weak refs, plus one while strong > 0
		flags    atomic.Uint32
		tracker  atomic.Pointer[Tracker]
		attachMu sync.Mutex // guards the initial -> 1 strong transition, and retirement
	}
)

func (x *Base) refBase() *Base { return x }

// ExtendLifetime changes the lifetime policy of the object. It must be called
// before the object is shared, typically from its constructor. Only
// LifetimeWeak has any effect, as LifetimeStrong is the default.
func (x *Base) ExtendLifetime(lifetime Lifetime) {
	if lifetime == LifetimeWeak {
		x.flags.Or(flagLifetimeWeak)
	}
}

// Lifetime returns the configured lifetime policy.
func (x *Base) Lifetime() Lifetime {
	if x.flags.Load()&flagLifetimeWeak != 0 {
		return LifetimeWeak
	}
	return LifetimeStrong
}

// StrongCount returns the number of strong references, for diagnostic
// purposes only, as the value may be stale immediately. Objects that have
// never been attached report zero, see also Attached.
func (x *Base) StrongCount() int32 {
	if v := x.strong.Load(); v > strongZero {
		return v - strongZero
	}
	return 0
}

// WeakCount returns the weak count, which includes one implicit unit while
// the strong count is non-zero. Diagnostic purposes only.
func (x *Base) WeakCount() int32 {
	return x.weak.Load()
}

// Attached reports whether the object has ever had a strong reference.
func (x *Base) Attached() bool {
	return x.strong.Load() != strongInitial
}

// Destroyed reports whether the payload's destructor has run.
func (x *Base) Destroyed() bool {
	return x.flags.Load()&flagDestroyed != 0
}

// Freed reports whether the control block has been retired, i.e. both counts
// reached zero, after the payload was destroyed.
func (x *Base) Freed() bool {
	return x.flags.Load()&flagFreed != 0
}

func (x *Base) lifetimeWeak() bool {
	return x.flags.Load()&flagLifetimeWeak != 0
}

// refID allocates an identifier for a handle, used only for tracking.
func (x *Base) refID() uint64 {
	if t := x.tracker.Load(); t != nil {
		return t.nextID.Add(1)
	}
	return 0
}
