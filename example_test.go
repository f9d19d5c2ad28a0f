package refbase_test

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-refbase"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Memory is a lazily allocated buffer, that is only allocated once something
// holds a strong reference to it.
type Memory struct {
	refbase.Base
	data []byte
	size int
}

func (m *Memory) OnFirstRef() error {
	fmt.Printf("allocating %d bytes\n", m.size)
	m.data = make([]byte, m.size)
	return nil
}

func (m *Memory) OnLastStrongRef() {
	fmt.Println(`last strong reference released`)
}

func (m *Memory) Destroy() {
	fmt.Printf("freeing %d bytes\n", len(m.data))
	m.data = nil
}

// Demonstrates the basic lifecycle of a reference counted object.
func Example() {
	s1 := refbase.MustStrong(&Memory{size: 4})
	fmt.Println(`strong count:`, s1.Deref().StrongCount())

	s2 := s1.Clone() // copying by value would not take a reference
	fmt.Println(`strong count:`, s1.Deref().StrongCount())

	s2.Clear()
	fmt.Println(`strong count:`, s1.Deref().StrongCount())

	s1.Clear() // the destructor runs before Clear returns

	//output:
	//allocating 4 bytes
	//strong count: 1
	//strong count: 2
	//strong count: 1
	//last strong reference released
	//freeing 4 bytes
}

// Demonstrates that promotion fails once the payload is gone.
func ExampleWeak_Promote() {
	s := refbase.MustStrong(&Memory{size: 8})
	w := s.Weak()
	defer w.Clear()

	if p := w.Promote(); p.Valid() {
		fmt.Println(`promoted, strong count:`, p.Deref().StrongCount())
		p.Clear()
	}

	s.Clear()

	if p := w.Promote(); !p.Valid() {
		fmt.Println(`promotion failed`)
	}

	//output:
	//allocating 8 bytes
	//promoted, strong count: 2
	//last strong reference released
	//freeing 8 bytes
	//promotion failed
}

// Demonstrates an object that survives while weakly referenced.
func ExampleBase_ExtendLifetime() {
	m := &Memory{size: 2}
	m.ExtendLifetime(refbase.LifetimeWeak)

	s := refbase.MustStrong(m)
	w := s.Weak()
	s.Clear()

	// LifetimeWeak objects may be revived
	if p := w.Promote(); p.Valid() {
		fmt.Println(`revived, buffer size:`, len(p.Deref().data))
		p.Clear()
	}

	w.Clear()

	//output:
	//allocating 2 bytes
	//last strong reference released
	//revived, buffer size: 2
	//last strong reference released
	//freeing 2 bytes
}

// Demonstrates logging of lifecycle transitions, using a tracker.
func ExampleTracker() {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(os.Stdout),
			stumpy.WithTimeField(``), // consistent example output
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	)

	tracker, err := refbase.NewTracker(
		refbase.WithLogger(logger.Logger()),
		refbase.WithName(`example`),
	)
	if err != nil {
		panic(err)
	}

	m := &Memory{size: 1}
	tracker.Track(m)

	s := refbase.MustStrong(m)
	s.Clear()

	fmt.Println(`live:`, tracker.Live())

	//output:
	//allocating 1 bytes
	//{"lvl":"debug","tracker":"example","object":"*refbase_test.Memory","transition":"first_ref","strong":1,"weak":1,"msg":"lifecycle transition"}
	//{"lvl":"debug","tracker":"example","object":"*refbase_test.Memory","transition":"last_strong_ref","strong":0,"weak":1,"msg":"lifecycle transition"}
	//last strong reference released
	//freeing 1 bytes
	//{"lvl":"debug","tracker":"example","object":"*refbase_test.Memory","transition":"destroyed","strong":0,"weak":1,"msg":"lifecycle transition"}
	//{"lvl":"debug","tracker":"example","object":"*refbase_test.Memory","transition":"freed","strong":0,"weak":0,"msg":"lifecycle transition"}
	//live: 0
}
