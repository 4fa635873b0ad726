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

package wrflock

import (
	"sync/atomic"
	"unsafe"
)

// Bit positions within the 32-bit state half S.
const (
	bitCurrW      uint32 = 1 << 0
	bitCurrR      uint32 = 1 << 1
	bitCurrF      uint32 = 1 << 2
	bitNextW      uint32 = 1 << 4
	bitNextRF     uint32 = 1 << 5
	bitYieldW     uint32 = 1 << 16
	bitYieldR     uint32 = 1 << 17
	bitYieldF     uint32 = 1 << 18
	bitRdNextLoop uint32 = 1 << 25
	bitPshared    uint32 = 1 << 26
	bitAcqW       uint32 = 1 << 28
	bitAcqR       uint32 = 1 << 29
	bitAcqF       uint32 = 1 << 30
)

// rdCountShift/rdCountMask address RD_COUNT within the 32-bit counters
// half C. The field occupies the low 16 bits; the remaining bits of C
// must stay zero.
const (
	rdCountShift = 0
	rdCountMask  = 0xFFFF
	maxReaders   = 0xFFFF
)

// littleEndian records the host's byte order, detected once at package
// init. It determines which 32-bit half of the 64-bit word is the state
// half S versus the counters half C: on little-endian hosts S lives in
// the upper 32 bits of the word, on big-endian hosts it lives in the
// lower 32 bits, so that the same bit-shift view works as both a
// standalone uint32 and the upper/lower half of the uint64 used for the
// atomic full-word reader-counter path.
var littleEndian = func() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// packState combines a state half and a counters half into the single
// 64-bit word, placing each half according to host endianness.
func packState(s, c uint32) uint64 {
	if littleEndian {
		return uint64(c) | uint64(s)<<32
	}
	return uint64(s) | uint64(c)<<32
}

// unpackState splits a 64-bit word back into its state and counters
// halves.
func unpackState(w uint64) (s, c uint32) {
	if littleEndian {
		return uint32(w >> 32), uint32(w)
	}
	return uint32(w), uint32(w >> 32)
}

// statePtr returns a *uint32 aliasing the state half of l.state, for use
// by the wait backend (whose expected-value comparison is always 32
// bits) and by any CAS confined to the state half.
//
// packState places S in the upper 32 bits of the word on a little-endian
// host and in the lower 32 bits on a big-endian host precisely so that,
// once laid out in memory, S always lands at byte offset +4 regardless
// of host order: a LE word stores its upper half at the higher address,
// a BE word stores its lower half at the higher address, and packState
// picks which half S is to cancel that out. So this is not an
// endian-conditional lookup; it is a fixed offset.
func statePtr(l *Lock) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(&l.state)) + 4))
}

// counterPtr returns a *uint32 aliasing the counters half of l.state.
// Only read_acquire/read_release touch it, and only via the full-word
// atomic path; it exists so tests can assert RD_COUNT directly. By the
// same reasoning as statePtr, C always lands at offset +0.
func counterPtr(l *Lock) *uint32 {
	return (*uint32)(unsafe.Pointer(&l.state))
}

// loadState does a relaxed load of the state half.
func loadState(l *Lock) uint32 {
	return atomic.LoadUint32(statePtr(l))
}

// loadStateAcquire does an acquire-ordered load of the state half. Go's
// sync/atomic does not expose memory-order qualifiers directly; a plain
// atomic load already has acquire semantics on every architecture Go
// supports, so loadStateAcquire and loadState are the same call, named
// separately at call sites to document which ordering the caller is
// relying on (see spec section 5, "Ordering guarantees").
func loadStateAcquire(l *Lock) uint32 {
	return atomic.LoadUint32(statePtr(l))
}

// casState performs the state-half CAS shared by every acquire/release
// path. Go's atomic package has no separate relaxed/release CAS variant;
// a successful CompareAndSwapUint32 already provides release ordering on
// success on every architecture Go supports, satisfying both the
// relaxed-CAS and release-CAS paths spec section 4.C distinguishes.
func casState(l *Lock, old, next uint32) bool {
	return atomic.CompareAndSwapUint32(statePtr(l), old, next)
}

// casWord performs the full-word CAS used by the reader-counter path, so
// that a flip of a CURR_* bit in the state half can be committed
// atomically with RD_COUNT reaching zero in the counters half.
func casWord(l *Lock, old, next uint64) bool {
	return atomic.CompareAndSwapUint64(&l.state, old, next)
}

// loadWord does a relaxed load of the full 64-bit word.
func loadWord(l *Lock) uint64 {
	return atomic.LoadUint64(&l.state)
}

// applyWaitFlags ORs the yield bits selected by flags into a state word,
// honoring "yield wins over block" when both are set for a phase.
func applyWaitFlags(s uint32, flags WaitFlags) uint32 {
	if flags&ReadYield != 0 {
		s |= bitYieldR
	}
	if flags&WriteYield != 0 {
		s |= bitYieldW
	}
	if flags&FreeYield != 0 {
		s |= bitYieldF
	}
	return s
}

func readCount(c uint32) uint32 {
	return (c >> rdCountShift) & rdCountMask
}

func setReadCount(c, val uint32) uint32 {
	return (c &^ uint32(rdCountMask<<rdCountShift)) | ((val & rdCountMask) << rdCountShift)
}
