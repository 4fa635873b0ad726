// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package wrflock implements the Write/Read/Free lock: a synchronization
// primitive that serializes three phases of access to a shared resource in
// a strict cyclic order.
//
// A single writer produces content, one or more readers consume it, and a
// single freer reclaims it; after a free completes, the cycle returns to
// write. It is designed as the per-slot synchronizer for a
// single-producer/multiple-consumer ring buffer with explicit memory
// management: the writer fills a slot, any number of readers drain it
// concurrently, and the freer reclaims it once every reader is done, all
// without an intervening writer able to clobber a slot still being read.
//
// Unlike a condvar-backed mutex, the whole state machine -- which phase is
// current, which participants have reserved the next phase, the live
// reader count, and the per-phase wait strategy -- lives in a single 8-byte
// word, mutated only by compare-and-swap. Blocking, when it happens, is
// layered on top via an OS address-based wait primitive (Linux futex,
// Darwin __ulock_wait, Windows WaitOnAddress) rather than a condition
// variable, so that a phase change on one lock never needs to walk a list
// of waiters or take an OS-level lock of its own.
//
// The phase transition table, with "Acquire" meaning a non-blocking
// reservation and "Wait" meaning block-or-spin until that reservation
// becomes current:
//
//	    NEXT_W  --w.acquire-->  CURR_W  --w.release-->  CURR_R  (if a reader queued)
//	                                                  -->  CURR_F  (elif a freer queued)
//	                                                  -->  NEXT_RF (else, park)
//	    NEXT_RF --r.acquire-->  CURR_R  --last r.release--> CURR_F  (if a freer queued)
//	                                                      --> NEXT_RF (else, stays)
//	    NEXT_RF --f.acquire-->  CURR_F  --f.release-->  CURR_W  (if a writer queued)
//	                                                  -->  NEXT_W  (else, park)
//
// Readers are capped at 65535 concurrent holders; at most one writer and
// one freer may be reserved at a time. There is no fairness guarantee
// beyond the phase ordering, no priority inheritance, and no reentrancy.
package wrflock

import "sync/atomic"

// Phase identifies one of the three mutually exclusive access modes a
// Lock cycles through, plus the sentinel value returned when no phase is
// current.
type Phase int

const (
	// Uninit is returned by GetCurrentState when none of the CURR_* bits
	// is set: before the first write-acquire, or while the machine is
	// parked in NEXT_W/NEXT_RF waiting for its next acquirer.
	Uninit Phase = iota
	Write
	Read
	Free
)

func (p Phase) String() string {
	switch p {
	case Write:
		return "Write"
	case Read:
		return "Read"
	case Free:
		return "Free"
	default:
		return "Uninit"
	}
}

// WaitFlags selects, per phase, whether a waiter blocks on the OS
// address-based wait primitive or busy-spins with a CPU relax hint.
// Yield wins over block when both are specified for the same phase.
type WaitFlags uint32

const (
	WriteBlock WaitFlags = 1 << iota
	WriteYield
	ReadBlock
	ReadYield
	FreeBlock
	FreeYield
)

// Lock is the 8-byte write/read/free synchronization word. The zero value
// is not usable; construct one with New or Init.
//
// state packs the fields documented in masks.go: the upper/lower half
// split (which half is "upper" depends on host endianness) gives a state
// half S, addressed by the wait backend, and a counters half C, holding
// the live reader count. Callers never touch state directly.
type Lock struct {
	state uint64
}

// New allocates and initializes a Lock primed for its first writer, using
// blocking waits on all three phases and pshared=false.
func New() *Lock {
	l := &Lock{}
	l.Init(WriteBlock|ReadBlock|FreeBlock, false)
	return l
}

// Init (re)initializes l into the freshly-created state: NEXT_W set, the
// requested wait-strategy flags applied, and the PSHARED marker bit set
// iff pshared is true. It is the caller's responsibility to ensure no
// other goroutine can observe l while Init runs.
func (l *Lock) Init(flags WaitFlags, pshared bool) {
	var s uint32
	s = bitNextW
	s = applyWaitFlags(s, flags)
	if pshared {
		s |= bitPshared
	}
	atomic.StoreUint64(&l.state, packState(s, 0))
}

// GetCurrentState returns the phase currently admitted by the machine, or
// Uninit if none of the CURR_* bits is set (the lock was just created and
// no writer has acquired yet, or a release parked the machine in NEXT_W or
// NEXT_RF because nobody had reserved the next phase).
func (l *Lock) GetCurrentState() Phase {
	s := loadState(l)
	switch {
	case s&bitCurrW != 0:
		return Write
	case s&bitCurrR != 0:
		return Read
	case s&bitCurrF != 0:
		return Free
	default:
		return Uninit
	}
}
