package refbase

import (
	"cmp"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"golang.org/x/exp/slices"
)

// RefKind distinguishes strong and weak references.
type RefKind uint8

const (
	RefStrong RefKind = iota
	RefWeak
)

// String implements fmt.Stringer.
func (x RefKind) String() string {
	switch x {
	case RefStrong:
		return `strong`
	case RefWeak:
		return `weak`
	default:
		return fmt.Sprintf(`RefKind(%d)`, uint8(x))
	}
}

// Transition identifies a point in the lifecycle of a control block.
type Transition uint8

const (
	// TransitionFirstRef is the first strong reference, after FirstRefHook.
	TransitionFirstRef Transition = iota
	// TransitionLastStrongRef is the strong count reaching zero, prior to
	// LastStrongRefHook.
	TransitionLastStrongRef
	// TransitionDestroyed is after the destructor ran.
	TransitionDestroyed
	// TransitionFreed is the control block being retired.
	TransitionFreed
)

// String implements fmt.Stringer.
func (x Transition) String() string {
	switch x {
	case TransitionFirstRef:
		return `first_ref`
	case TransitionLastStrongRef:
		return `last_strong_ref`
	case TransitionDestroyed:
		return `destroyed`
	case TransitionFreed:
		return `freed`
	default:
		return fmt.Sprintf(`Transition(%d)`, uint8(x))
	}
}

type (
	// Ref models a tracked reference, held by a Strong or Weak handle.
	Ref struct {
		Acquired time.Time
		// Stack is only populated if WithStacks was enabled.
		Stack     string
		ID        uint64
		Goroutine int64
		Kind      RefKind
	}

	// Tracker records the references held to each tracked object, for
	// debugging reference leaks and releases of references that were never
	// held. Tracking is expensive, and opt-in per object, see Tracker.Track.
	//
	// Raw references (IncStrong etc) are tracked as counts only.
	Tracker struct {
		// betteralign:ignore

		logger     *logiface.Logger[logiface.Event]
		limiter    *catrate.Limiter
		objects    map[*Base]*trackedObject
		stacks     bool
		nextID     atomic.Uint64
		violations atomic.Uint64
		mu         sync.Mutex
	}

	trackedObject struct {
		refs map[uint64]Ref
		typ  string
		raw  [2]int // by RefKind
	}
)

// NewTracker initializes a new Tracker, returning an error if any of the
// options are invalid.
func NewTracker(opts ...TrackerOption) (*Tracker, error) {
	cfg, err := resolveTrackerOptions(opts)
	if err != nil {
		return nil, err
	}

	x := Tracker{
		logger:  cfg.logger,
		objects: make(map[*Base]*trackedObject),
		stacks:  cfg.stacks,
	}

	if cfg.name != `` {
		x.logger = x.logger.Clone().Str(`tracker`, cfg.name).Logger()
	}

	if cfg.rates != nil {
		if x.limiter, err = newLimiter(cfg.rates); err != nil {
			return nil, err
		}
	}

	return &x, nil
}

func newLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	// catrate panics on invalid rates
	defer func() {
		if r := recover(); r != nil {
			limiter, err = nil, fmt.Errorf(`refbase: invalid warn rates: %v`, r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// Track enables tracking of obj, which must be called before obj is shared,
// as references taken prior are unknown to the tracker. A nil receiver
// disables tracking of obj.
func (x *Tracker) Track(obj Referent) {
	b := obj.refBase()
	if x == nil {
		b.tracker.Store(nil)
		return
	}
	x.mu.Lock()
	if _, ok := x.objects[b]; !ok {
		x.objects[b] = &trackedObject{
			refs: make(map[uint64]Ref),
			typ:  fmt.Sprintf(`%T`, obj),
		}
	}
	x.mu.Unlock()
	b.tracker.Store(x)
}

// Refs returns the tracked references currently held to obj, ordered by id,
// which is the order in which they were acquired.
func (x *Tracker) Refs(obj Referent) []Ref {
	x.mu.Lock()
	defer x.mu.Unlock()
	o := x.objects[obj.refBase()]
	if o == nil {
		return nil
	}
	refs := make([]Ref, 0, len(o.refs))
	for _, ref := range o.refs {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b Ref) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return refs
}

// RawRefs returns the number of raw references held to obj, see IncStrong
// and IncWeak.
func (x *Tracker) RawRefs(obj Referent) (strong, weak int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if o := x.objects[obj.refBase()]; o != nil {
		strong, weak = o.raw[RefStrong], o.raw[RefWeak]
	}
	return
}

// Live returns the number of tracked objects, whose control blocks have not
// yet been retired.
func (x *Tracker) Live() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.objects)
}

// Violations returns the number of contract violations observed, including
// releases of references that were not held.
func (x *Tracker) Violations() uint64 {
	return x.violations.Load()
}

// LogRefs logs every reference held to obj, at informational level.
func (x *Tracker) LogRefs(obj Referent) {
	b := obj.refBase()
	refs := x.Refs(obj)
	rawStrong, rawWeak := x.RawRefs(obj)
	typ := x.typeOf(b)

	x.logger.Info().
		Str(`object`, typ).
		Int(`strong`, int(b.StrongCount())).
		Int(`weak`, int(b.WeakCount())).
		Int(`raw_strong`, rawStrong).
		Int(`raw_weak`, rawWeak).
		Int(`tracked`, len(refs)).
		Log(`references`)

	for _, ref := range refs {
		x.logger.Info().
			Str(`object`, typ).
			Uint64(`ref`, ref.ID).
			Stringer(`kind`, ref.Kind).
			Int64(`goroutine`, ref.Goroutine).
			Time(`acquired`, ref.Acquired).
			Call(func(b *logiface.Builder[logiface.Event]) {
				if ref.Stack != `` {
					b.Str(`stack`, ref.Stack)
				}
			}).
			Log(`reference`)
	}
}

func (x *Tracker) typeOf(b *Base) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	if o := x.objects[b]; o != nil {
		return o.typ
	}
	return ``
}

func (x *Tracker) acquire(b *Base, kind RefKind, id uint64) {
	ref := Ref{
		Acquired:  time.Now(),
		ID:        id,
		Goroutine: goroutineID(),
		Kind:      kind,
	}
	if x.stacks {
		ref.Stack = string(debug.Stack())
	}

	x.mu.Lock()
	o := x.objects[b]
	if o != nil {
		if id == 0 {
			o.raw[kind]++
		} else {
			o.refs[id] = ref
		}
	}
	x.mu.Unlock()

	if o == nil {
		return
	}

	x.logger.Trace().
		Str(`object`, o.typ).
		Stringer(`kind`, kind).
		Uint64(`ref`, id).
		Int64(`goroutine`, ref.Goroutine).
		Log(`reference acquired`)
}

func (x *Tracker) release(b *Base, kind RefKind, id uint64) {
	var ok bool
	x.mu.Lock()
	o := x.objects[b]
	if o != nil {
		if id == 0 {
			if o.raw[kind] > 0 {
				o.raw[kind]--
				ok = true
			}
		} else if ref, exists := o.refs[id]; exists && ref.Kind == kind {
			delete(o.refs, id)
			ok = true
		}
	}
	x.mu.Unlock()

	if o == nil {
		return
	}

	if !ok {
		x.violations.Add(1)
		if x.allow(o.typ) {
			x.logger.Err().
				Str(`object`, o.typ).
				Stringer(`kind`, kind).
				Uint64(`ref`, id).
				Int64(`goroutine`, goroutineID()).
				Log(`release of reference not held`)
		}
		return
	}

	x.logger.Trace().
		Str(`object`, o.typ).
		Stringer(`kind`, kind).
		Uint64(`ref`, id).
		Log(`reference released`)
}

func (x *Tracker) transition(b *Base, transition Transition) {
	x.mu.Lock()
	o := x.objects[b]
	if transition == TransitionFreed {
		delete(x.objects, b)
	}
	x.mu.Unlock()

	if o == nil {
		return
	}

	x.logger.Debug().
		Str(`object`, o.typ).
		Stringer(`transition`, transition).
		Int(`strong`, int(b.StrongCount())).
		Int(`weak`, int(b.WeakCount())).
		Log(`lifecycle transition`)
}

func (x *Tracker) attachFailed(b *Base, err error) {
	x.logger.Warning().
		Str(`object`, x.typeOf(b)).
		Err(err).
		Log(`first reference failed`)
}

func (x *Tracker) violation(_ *Base, err *ContractError) {
	x.violations.Add(1)
	if x.allow(err.Object) {
		x.logger.Err().
			Err(err).
			Str(`object`, err.Object).
			Int64(`goroutine`, goroutineID()).
			Log(`contract violation`)
	}
}

func (x *Tracker) allow(category string) bool {
	_, ok := x.limiter.Allow(category)
	return ok
}
