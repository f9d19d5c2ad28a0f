package refbase

import (
	"testing"
)

func BenchmarkStrong_CloneClear(b *testing.B) {
	m := newMemory(1)
	s := MustStrong(m)
	defer s.Clear()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := s.Clone()
		c.Clear()
	}
}

func BenchmarkStrong_CloneClear_parallel(b *testing.B) {
	m := newMemory(1)
	s := MustStrong(m)
	defer s.Clear()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c := s.Clone()
			c.Clear()
		}
	})
}

func BenchmarkWeak_Promote(b *testing.B) {
	m := newMemory(1)
	s := MustStrong(m)
	defer s.Clear()
	w := s.Weak()
	defer w.Clear()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := w.Promote()
		p.Clear()
	}
}

func BenchmarkNewStrong_lifecycle(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := MustStrong(new(bare))
		w := s.Weak()
		s.Clear()
		w.Clear()
	}
}

func BenchmarkStrong_CloneClear_tracked(b *testing.B) {
	tracker, err := NewTracker()
	if err != nil {
		b.Fatal(err)
	}
	m := newMemory(1)
	tracker.Track(m)
	s := MustStrong(m)
	defer s.Clear()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := s.Clone()
		c.Clear()
	}
}
