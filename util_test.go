package refbase

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	// recorder collects lifecycle events, in order.
	recorder struct {
		events []string
		mu     sync.Mutex
	}

	// memory is the test payload, modeled on a lazily allocated buffer.
	memory struct {
		Base
		rec         *recorder
		firstRefErr error
		data        []byte
		size        int
	}

	// extended is a LifetimeWeak payload.
	extended struct {
		memory
		veto bool
	}

	// bare implements no hooks at all.
	bare struct {
		Base
	}
)

var (
	_ FirstRefHook           = (*memory)(nil)
	_ LastStrongRefHook      = (*memory)(nil)
	_ Destroyer              = (*memory)(nil)
	_ IncStrongAttemptedHook = (*extended)(nil)
	_ LastWeakRefHook        = (*extended)(nil)
)

func (x *recorder) add(event string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = append(x.events, event)
}

func (x *recorder) get() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.events...)
}

func (x *recorder) count(event string) (n int) {
	for _, v := range x.get() {
		if v == event {
			n++
		}
	}
	return
}

func newMemory(size int) *memory {
	return &memory{rec: new(recorder), size: size}
}

func newExtended(size int) *extended {
	m := &extended{memory: memory{rec: new(recorder), size: size}}
	m.ExtendLifetime(LifetimeWeak)
	return m
}

func (x *memory) OnFirstRef() error {
	x.rec.add(`first_ref`)
	if x.firstRefErr != nil {
		return x.firstRefErr
	}
	x.data = make([]byte, x.size)
	return nil
}

func (x *memory) OnLastStrongRef() {
	x.rec.add(`last_strong_ref`)
}

func (x *memory) Destroy() {
	x.rec.add(`destroy`)
	x.data = nil
}

func (x *extended) OnIncStrongAttempted() bool {
	x.rec.add(`inc_strong_attempted`)
	return !x.veto
}

func (x *extended) OnLastWeakRef() {
	x.rec.add(`last_weak_ref`)
}

// catchContract runs fn, which must panic with a *ContractError.
func catchContract(t *testing.T, fn func()) (err *ContractError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal(`expected panic`)
		}
		var ok bool
		if err, ok = r.(*ContractError); !ok {
			t.Fatalf(`unexpected panic: %T %v`, r, r)
		}
	}()
	fn()
	return
}

func newTestLogger(level logiface.Level) (*logiface.Logger[logiface.Event], *bytes.Buffer) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(&buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	)
	return logger.Logger(), &buf
}

var errTest = errors.New(`some error`)
