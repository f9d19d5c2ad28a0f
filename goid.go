package refbase

import (
	"runtime"
)

// goroutineID parses the current goroutine's id from runtime.Stack, the same
// way the event loop identifies its own goroutine. It is slow (microseconds),
// and is only used while tracking.
func goroutineID() int64 {
	// "goroutine 123 [running]:\n..." fits easily
	var buf [64]byte
	return parseGoroutineID(buf[:runtime.Stack(buf[:], false)])
}

// parseGoroutineID returns 0 if buf is not in the expected format.
func parseGoroutineID(buf []byte) int64 {
	const prefix = `goroutine `
	if len(buf) <= len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			if c != ' ' {
				return 0
			}
			return id
		}
		id = id*10 + int64(c-'0')
	}
	return 0
}
