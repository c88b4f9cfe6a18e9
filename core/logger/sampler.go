package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio is a sampling rate of keep out of every.
type ratio struct{ keep, every uint64 }

// ratioSampler lets through the first keep events of every window of every
// events. A zero ratio lets everything through.
type ratioSampler struct {
	rate atomic.Pointer[ratio]
	seq  atomic.Uint64
}

func newRatioSampler(keep, every int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(keep, every)
	return s
}

// Set replaces the rate and restarts the window.
func (s *ratioSampler) Set(keep, every int) {
	r := &ratio{}
	if keep > 0 && every > 0 {
		r.keep, r.every = uint64(min(keep, every)), uint64(every)
	}
	s.rate.Store(r)
	s.seq.Store(0)
}

// Allow reports whether the current event should pass sampling.
func (s *ratioSampler) Allow() bool {
	r := s.rate.Load()
	if r == nil || r.every == 0 {
		return true
	}
	return (s.seq.Add(1)-1)%r.every < r.keep
}

// parseRatioSpec reads "k/n" or "n" (meaning 1/n). Anything unparsable or
// non-positive yields 0/0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	num, den, found := strings.Cut(spec, "/")
	if !found {
		num, den = "1", spec
	}
	k, err1 := strconv.Atoi(strings.TrimSpace(num))
	n, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil || k <= 0 || n <= 0 {
		return 0, 0
	}
	return k, n
}
