// Package refbase implements intrusive, thread-safe, strong and weak
// reference counting, for objects with an explicit lifecycle, e.g. pooled
// buffers, or handles to external resources, that must be released
// deterministically, rather than at the whim of the garbage collector.
//
// A payload type embeds [Base], the control block, and optionally implements
// any of the lifecycle hooks ([FirstRefHook], [LastStrongRefHook],
// [Destroyer], etc):
//
//	type Memory struct {
//	    refbase.Base
//	    size int
//	    data []byte
//	}
//
//	func (m *Memory) OnFirstRef() error { m.data = make([]byte, m.size); return nil }
//	func (m *Memory) Destroy()          { m.data = nil }
//
// A [Strong] handle keeps the payload alive. A [Weak] handle does not, and
// must be promoted, via [Weak.Promote], which fails (returning an empty
// handle) if the payload is dead or dying.
//
//	s := refbase.MustStrong(&Memory{size: 4}) // OnFirstRef
//	w := s.Weak()
//	s.Clear()                                 // Destroy
//	if p := w.Promote(); !p.Valid() {
//	    // expected: the payload is gone
//	}
//	w.Clear()
//
// Handles are values, and Go has no copy constructors or destructors, so
// copies must be made with Clone, and every handle must be released, exactly
// once, using Clear (or transferred, using Move).
//
// # Lifetime
//
// Under the default [LifetimeStrong] policy, the payload is destroyed when
// the strong count reaches zero, after which no strong reference may be
// taken. Under [LifetimeWeak], see [Base.ExtendLifetime], it survives until
// the weak count also reaches zero, and may be revived by promotion.
//
// Cyclic strong references are never collected, and must be broken
// manually, typically by making one edge weak.
//
// # Errors
//
// Failed promotion is not an error. Contract violations, e.g. releasing a
// reference that was not held, or dereferencing an empty handle, panic with
// a [*ContractError]. The only returned error is from [FirstRefHook], which
// is propagated by [NewStrong], leaving the object unattached.
//
// # Debugging
//
// A [Tracker] may be attached to individual objects, to record every
// reference, logging via [github.com/joeycumines/logiface].
package refbase
