package refbase

// Weak is a handle holding one weak reference, which keeps the control block
// alive but not the payload. The only way to access the payload is Promote.
// The zero value is an empty handle.
//
// As with Strong, copying by value does not take a reference, see Clone.
type Weak[T Object] struct {
	obj T
	ref uint64
}

// NewWeak returns a weak handle to the referent of s, or an empty handle.
func NewWeak[T Object](s *Strong[T]) Weak[T] {
	if !s.Valid() {
		return Weak[T]{}
	}
	return newWeak(s.obj)
}

// WeakFromRaw returns a weak handle to obj, which may never have had a strong
// reference. If no strong reference is ever taken, the object is destroyed
// when the last weak reference is released.
func WeakFromRaw[T Object](obj T) Weak[T] {
	var zero T
	if obj == zero {
		return Weak[T]{}
	}
	return newWeak(obj)
}

func newWeak[T Object](obj T) Weak[T] {
	b := obj.refBase()
	ref := b.refID()
	incWeak(b, obj, ref)
	return Weak[T]{obj: obj, ref: ref}
}

// Valid returns true if the handle is non-empty. This says nothing about
// whether the referent is alive.
func (x *Weak[T]) Valid() bool {
	var zero T
	return x.obj != zero
}

// Unsafe returns the raw referent, which may have been destroyed, and must
// only be used for identity comparison.
func (x *Weak[T]) Unsafe() T {
	return x.obj
}

// Promote attempts to obtain a strong reference, returning an empty handle
// if the referent is dead or dying. Failure is an expected outcome, and must
// be checked, e.g. using Strong.Valid.
func (x *Weak[T]) Promote() Strong[T] {
	if !x.Valid() {
		return Strong[T]{}
	}
	b := x.obj.refBase()
	ref := b.refID()
	if !attemptIncStrong(b, x.obj, ref) {
		return Strong[T]{}
	}
	return Strong[T]{obj: x.obj, ref: ref}
}

// Clone returns a new handle to the same referent.
func (x *Weak[T]) Clone() Weak[T] {
	if !x.Valid() {
		return Weak[T]{}
	}
	return newWeak(x.obj)
}

// Assign replaces the referent with that of src.
func (x *Weak[T]) Assign(src *Weak[T]) {
	clone := src.Clone()
	x.Clear()
	*x = clone
}

// AssignStrong replaces the referent with that of s.
func (x *Weak[T]) AssignStrong(s *Strong[T]) {
	w := NewWeak(s)
	x.Clear()
	*x = w
}

// Move returns the handle, leaving x empty, without touching any counts.
func (x *Weak[T]) Move() Weak[T] {
	v := *x
	*x = Weak[T]{}
	return v
}

// MoveFrom releases the current referent (if any), then takes ownership of
// src's reference, leaving src empty.
func (x *Weak[T]) MoveFrom(src *Weak[T]) {
	if x == src {
		return
	}
	v := src.Move()
	x.Clear()
	*x = v
}

// Clear releases the reference, if any, leaving the handle empty. It returns
// true if the control block was retired as a result.
func (x *Weak[T]) Clear() bool {
	if !x.Valid() {
		return false
	}
	v := x.Move()
	return decWeak(v.obj.refBase(), v.obj, v.ref)
}
