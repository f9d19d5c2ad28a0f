package refbase

type (
	// FirstRefHook may be implemented by the payload, to perform deferred
	// initialization, e.g. allocating buffers. It is called exactly once,
	// when the first strong reference is established, and before any other
	// goroutine may observe a non-zero strong count.
	//
	// A non-nil error aborts the attach, leaving the object in the same
	// state, and is returned to the caller of NewStrong (etc). The hook is
	// called while holding an internal lock, and must not take strong
	// references to the same object.
	FirstRefHook interface {
		OnFirstRef() error
	}

	// LastStrongRefHook may be implemented by the payload, to be notified
	// when the strong count reaches zero, strictly before the destructor
	// runs (if any).
	//
	// Under LifetimeStrong the object is already dead when this is called:
	// taking a new strong reference from within the hook panics. Under
	// LifetimeWeak it is called on every transition to zero.
	LastStrongRefHook interface {
		OnLastStrongRef()
	}

	// IncStrongAttemptedHook may be implemented by LifetimeWeak payloads, to
	// veto promotion of a weak reference while the strong count is zero.
	// It is not consulted for LifetimeStrong objects, which cannot be
	// promoted once the strong count has reached zero.
	IncStrongAttemptedHook interface {
		OnIncStrongAttempted() bool
	}

	// LastWeakRefHook may be implemented by LifetimeWeak payloads, and is
	// called when the last weak reference is dropped, before the destructor.
	LastWeakRefHook interface {
		OnLastWeakRef()
	}

	// Destroyer is the payload destructor, called exactly once, after which
	// the payload must not be accessed. Implementations typically release
	// resources acquired by OnFirstRef. When triggered by the last weak
	// reference, it is called while holding the same internal lock as
	// FirstRefHook, and must not take references to the same object.
	Destroyer interface {
		Destroy()
	}
)

func dispatchFirstRef(obj any) error {
	if h, ok := obj.(FirstRefHook); ok {
		return h.OnFirstRef()
	}
	return nil
}

func dispatchLastStrongRef(obj any) {
	if h, ok := obj.(LastStrongRefHook); ok {
		h.OnLastStrongRef()
	}
}

func dispatchIncStrongAttempted(obj any) bool {
	if h, ok := obj.(IncStrongAttemptedHook); ok {
		return h.OnIncStrongAttempted()
	}
	return true
}

func dispatchLastWeakRef(obj any) {
	if h, ok := obj.(LastWeakRefHook); ok {
		h.OnLastWeakRef()
	}
}

func dispatchDestroy(obj any) {
	if h, ok := obj.(Destroyer); ok {
		h.Destroy()
	}
}
