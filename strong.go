package refbase

// Strong is a handle holding one strong reference, guaranteeing the referent
// stays alive, until it is cleared. The zero value is an empty handle.
//
// Go has no copy constructors or destructors: assigning a Strong by value
// copies the handle WITHOUT taking another reference, so exactly one of the
// copies may be cleared. Use Clone to copy, Move to transfer, and Clear to
// release.
type Strong[T Object] struct {
	obj T
	ref uint64 // tracking id, zero if untracked
}

// NewStrong wraps obj in a new Strong handle, which is the only way to begin
// strong-managed life. The first strong reference runs FirstRefHook, any
// error from which is returned, along with an empty handle.
//
// A nil obj yields an empty handle. Panics if obj is dead, see IncStrong.
func NewStrong[T Object](obj T) (Strong[T], error) {
	var zero T
	if obj == zero {
		return Strong[T]{}, nil
	}
	b := obj.refBase()
	ref := b.refID()
	if err := incStrong(b, obj, ref); err != nil {
		return Strong[T]{}, err
	}
	return Strong[T]{obj: obj, ref: ref}, nil
}

// MustStrong is NewStrong, but panics on error.
func MustStrong[T Object](obj T) Strong[T] {
	s, err := NewStrong(obj)
	if err != nil {
		panic(err)
	}
	return s
}

// Get returns the referent, or the zero value (nil) if empty, without
// affecting any counts. The returned value must not be used beyond the
// lifetime of the handle.
func (x *Strong[T]) Get() T {
	return x.obj
}

// Deref returns the referent, panicking with ErrEmptyHandle if empty.
func (x *Strong[T]) Deref() T {
	var zero T
	if x.obj == zero {
		violation(ErrEmptyHandle, nil, nil)
	}
	return x.obj
}

// Valid returns true if the handle is non-empty.
func (x *Strong[T]) Valid() bool {
	var zero T
	return x.obj != zero
}

// Same returns true if both handles refer to the same object, or are both
// empty.
func (x *Strong[T]) Same(other *Strong[T]) bool {
	return x.obj == other.obj
}

// Clone returns a new handle to the same referent, taking another strong
// reference. Cloning an empty handle returns an empty handle.
func (x *Strong[T]) Clone() Strong[T] {
	if !x.Valid() {
		return Strong[T]{}
	}
	b := x.obj.refBase()
	ref := b.refID()
	if err := incStrong(b, x.obj, ref); err != nil {
		// unreachable, as we already hold a strong reference
		panic(err)
	}
	return Strong[T]{obj: x.obj, ref: ref}
}

// Assign replaces the referent with that of src, taking a new reference to
// src before releasing the old one, making self-assignment safe.
func (x *Strong[T]) Assign(src *Strong[T]) {
	clone := src.Clone()
	x.Clear()
	*x = clone
}

// Move returns the handle, leaving x empty, without touching any counts.
func (x *Strong[T]) Move() Strong[T] {
	v := *x
	*x = Strong[T]{}
	return v
}

// MoveFrom releases the current referent (if any), then takes ownership of
// src's reference, leaving src empty.
func (x *Strong[T]) MoveFrom(src *Strong[T]) {
	if x == src {
		return
	}
	v := src.Move()
	x.Clear()
	*x = v
}

// Clear releases the reference, if any, leaving the handle empty. It returns
// true if this was the last strong reference, in which case the
// LastStrongRefHook, and the destructor (under LifetimeStrong), have run.
func (x *Strong[T]) Clear() bool {
	if !x.Valid() {
		return false
	}
	v := x.Move()
	return decStrong(v.obj.refBase(), v.obj, v.ref)
}

// Weak returns a new weak handle to the referent, or an empty handle.
func (x *Strong[T]) Weak() Weak[T] {
	return NewWeak(x)
}
