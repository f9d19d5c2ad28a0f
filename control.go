package refbase

import (
	"errors"
	"fmt"
)

// errStrongGone is returned by attach when the lock was contended by another
// attach, and every strong reference was released before it was acquired.
var errStrongGone = errors.New(`refbase: strong count reached zero during attach`)

// IncStrong takes a raw strong reference to obj, which must be released by
// exactly one call to DecStrong. Prefer NewStrong, which pairs the two.
//
// The first strong reference runs FirstRefHook, and any error it returns is
// propagated, in which case no reference is taken. Taking a strong reference
// to an object whose strong count has reached zero panics, unless the
// object uses LifetimeWeak and has not yet been destroyed.
func IncStrong[T Object](obj T) error {
	return incStrong(obj.refBase(), obj, 0)
}

// DecStrong releases a raw strong reference, returning true if it was the
// last one, in which case LastStrongRefHook and (under LifetimeStrong) the
// destructor have already run, by the time it returns.
func DecStrong[T Object](obj T) bool {
	return decStrong(obj.refBase(), obj, 0)
}

// AttemptIncStrong attempts to take a raw strong reference, failing if the
// object is dead, or dying. The caller must hold a weak or strong reference.
// See also Weak.Promote.
func AttemptIncStrong[T Object](obj T) bool {
	return attemptIncStrong(obj.refBase(), obj, 0)
}

// IncWeak takes a raw weak reference, which must be released by exactly one
// call to DecWeak.
func IncWeak[T Object](obj T) {
	incWeak(obj.refBase(), obj, 0)
}

// DecWeak releases a raw weak reference, returning true if the control block
// was retired as a result.
func DecWeak[T Object](obj T) bool {
	return decWeak(obj.refBase(), obj, 0)
}

func attach(b *Base, obj any, id uint64) error {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()

	for {
		switch v := b.strong.Load(); {
		case v > strongZero:
			// attached by another goroutine, while we waited on the lock
			if b.strong.CompareAndSwap(v, v+1) {
				b.acquired(RefStrong, id)
				return nil
			}
			continue
		case v == strongZero:
			return errStrongGone
		case v != strongInitial:
			violation(ErrNegativeStrong, b, obj)
		}

		if b.Freed() {
			violation(ErrFreed, b, obj)
		}

		if err := dispatchFirstRef(obj); err != nil {
			if t := b.tracker.Load(); t != nil {
				t.attachFailed(b, err)
			}
			return fmt.Errorf(`refbase: first reference: %w`, err)
		}

		// the implicit weak unit is added before the strong count is
		// published, so a concurrent lastWeak cannot see weak == 0 while
		// attached
		b.weak.Add(1)
		b.strong.Store(strongZero + 1)

		b.transitioned(TransitionFirstRef)
		b.acquired(RefStrong, id)

		return nil
	}
}

func incStrong(b *Base, obj any, id uint64) error {
	for {
		switch v := b.strong.Load(); {
		case v > strongZero:
			if b.strong.CompareAndSwap(v, v+1) {
				b.acquired(RefStrong, id)
				return nil
			}

		case v == strongInitial:
			if err := attach(b, obj, id); !errors.Is(err, errStrongGone) {
				return err
			}

		case v == strongZero:
			if !b.lifetimeWeak() || b.Destroyed() {
				violation(ErrDeadObject, b, obj)
			}
			if revive(b) {
				b.acquired(RefStrong, id)
				return nil
			}

		default:
			violation(ErrNegativeStrong, b, obj)
		}
	}
}

func attemptIncStrong(b *Base, obj any, id uint64) bool {
	for {
		switch v := b.strong.Load(); {
		case v > strongZero:
			if b.strong.CompareAndSwap(v, v+1) {
				b.acquired(RefStrong, id)
				return true
			}

		case v == strongInitial:
			err := attach(b, obj, id)
			if err == nil {
				return true
			}
			if !errors.Is(err, errStrongGone) {
				return false
			}

		case v == strongZero:
			if !b.lifetimeWeak() || b.Destroyed() || !dispatchIncStrongAttempted(obj) {
				return false
			}
			if revive(b) {
				b.acquired(RefStrong, id)
				return true
			}

		default:
			violation(ErrNegativeStrong, b, obj)
		}
	}
}

// revive performs the 0 -> 1 transition of a LifetimeWeak object.
func revive(b *Base) bool {
	if !b.strong.CompareAndSwap(strongZero, strongZero+1) {
		return false
	}
	b.weak.Add(1)
	return true
}

func decStrong(b *Base, obj any, id uint64) bool {
	b.released(RefStrong, id)

	for {
		v := b.strong.Load()
		if v <= strongZero {
			// never attached, or already dead, left as is
			violation(ErrNegativeStrong, b, obj)
		}
		if !b.strong.CompareAndSwap(v, v-1) {
			continue
		}
		if v-1 > strongZero {
			return false
		}
		break
	}

	b.transitioned(TransitionLastStrongRef)
	dispatchLastStrongRef(obj)

	if !b.lifetimeWeak() {
		destroy(b, obj)
	}

	// drop the implicit weak unit
	if b.weak.Add(-1) == 0 {
		lastWeak(b, obj)
	}

	return true
}

func incWeak(b *Base, obj any, id uint64) {
	if b.Freed() {
		violation(ErrFreed, b, obj)
	}
	b.weak.Add(1)
	b.acquired(RefWeak, id)
}

func decWeak(b *Base, obj any, id uint64) bool {
	b.released(RefWeak, id)

	for {
		v := b.weak.Load()
		if v <= 0 {
			violation(ErrNegativeWeak, b, obj)
		}
		if !b.weak.CompareAndSwap(v, v-1) {
			continue
		}
		if v-1 > 0 {
			return false
		}
		return lastWeak(b, obj)
	}
}

// lastWeak handles the weak count reaching zero, which implies the strong
// group is gone, or was never formed. It holds attachMu throughout, as a
// first attach adds the implicit weak unit under the same lock, and may
// have completed since the count reached zero.
func lastWeak(b *Base, obj any) bool {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()

	if b.weak.Load() != 0 || b.Freed() {
		return false
	}

	if b.lifetimeWeak() {
		dispatchLastWeakRef(obj)
	}

	// no-op under LifetimeStrong, if the strong count reached zero
	destroy(b, obj)

	free(b)

	return true
}

func destroy(b *Base, obj any) {
	if b.flags.Or(flagDestroyed)&flagDestroyed != 0 {
		return
	}
	dispatchDestroy(obj)
	b.transitioned(TransitionDestroyed)
}

func free(b *Base) {
	if b.flags.Or(flagFreed)&flagFreed != 0 {
		return
	}
	b.transitioned(TransitionFreed)
}

func (x *Base) acquired(kind RefKind, id uint64) {
	if t := x.tracker.Load(); t != nil {
		t.acquire(x, kind, id)
	}
}

func (x *Base) released(kind RefKind, id uint64) {
	if t := x.tracker.Load(); t != nil {
		t.release(x, kind, id)
	}
}

func (x *Base) transitioned(transition Transition) {
	if t := x.tracker.Load(); t != nil {
		t.transition(x, transition)
	}
}
