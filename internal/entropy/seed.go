// Package entropy supplies fresh seeds for runs that did not ask for a
// fixed one. Seeds come from crypto/rand so independent runs do not share
// a stream.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// NewSeed returns a positive seed drawn from crypto/rand. If the system
// source fails it falls back to the wall clock.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Debug("crypto/rand seed failed, using clock", "error", err)
		return clockSeed()
	}
	// Clear the sign bit; zero is reserved for "pick one for me".
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		return 1
	}
	return s
}

func clockSeed() int64 {
	s := time.Now().UnixNano()
	if s < 0 {
		s = -s
	}
	if s == 0 {
		return 1
	}
	return s
}

// Resolve returns seed unchanged when it is set, or a fresh one when it is
// zero. The second result reports whether a fresh seed was drawn.
func Resolve(seed int64) (int64, bool) {
	if seed != 0 {
		return seed, false
	}
	return NewSeed(), true
}
