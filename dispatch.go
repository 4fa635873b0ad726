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

import "fmt"

// Acquire reserves a slot in the given phase. It panics if phase is not
// one of Write, Read, or Free -- unlike Overflow, an unrecognized phase
// is a caller programming error, not a runtime condition.
func (l *Lock) Acquire(phase Phase) bool {
	switch phase {
	case Write:
		return l.WAcquire()
	case Read:
		return l.RAcquire()
	case Free:
		return l.FAcquire()
	default:
		panic(fmt.Sprintf("wrflock: Acquire: invalid phase %v", phase))
	}
}

// Release ends participation in the given phase.
func (l *Lock) Release(phase Phase) bool {
	switch phase {
	case Write:
		return l.WRelease()
	case Read:
		return l.RRelease()
	case Free:
		return l.FRelease()
	default:
		panic(fmt.Sprintf("wrflock: Release: invalid phase %v", phase))
	}
}

// Wait blocks or spins until phase is current, or until timeoutMs
// elapses (0 means forever).
func (l *Lock) Wait(phase Phase, timeoutMs int) bool {
	switch phase {
	case Write:
		return l.WWait(timeoutMs)
	case Read:
		return l.RWait(timeoutMs)
	case Free:
		return l.FWait(timeoutMs)
	default:
		panic(fmt.Sprintf("wrflock: Wait: invalid phase %v", phase))
	}
}

// TryWait reports whether phase is currently admitted, without blocking.
func (l *Lock) TryWait(phase Phase) bool {
	switch phase {
	case Write:
		return l.WTryWait()
	case Read:
		return l.RTryWait()
	case Free:
		return l.FTryWait()
	default:
		panic(fmt.Sprintf("wrflock: TryWait: invalid phase %v", phase))
	}
}

// With acquires phase, waits for it indefinitely, runs fn, then releases
// phase, turning the whole protocol into one bracketed region. It panics
// if Acquire fails (an Overflow on acquire is propagated as the host
// language's idiomatic failure channel, per spec section 7) and panics if
// Release fails (a release overflow can only mean a programmer protocol
// violation, e.g. fn itself called Release on l).
func (l *Lock) With(phase Phase, fn func()) {
	if !l.Acquire(phase) {
		panic(fmt.Sprintf("wrflock: With: %v acquire overflow", phase))
	}
	l.Wait(phase, 0)
	fn()
	if !l.Release(phase) {
		panic(fmt.Sprintf("wrflock: With: %v release failed: protocol violation", phase))
	}
}

// TryWith polls TryWait(phase) until it admits, running pollFn between
// polls (e.g. to yield, do other work, or bound the number of attempts
// via a closure-captured counter), then behaves like With. It panics
// under the same conditions With does.
func (l *Lock) TryWith(phase Phase, pollFn func(), fn func()) {
	if !l.Acquire(phase) {
		panic(fmt.Sprintf("wrflock: TryWith: %v acquire overflow", phase))
	}
	for !l.TryWait(phase) {
		pollFn()
	}
	fn()
	if !l.Release(phase) {
		panic(fmt.Sprintf("wrflock: TryWith: %v release failed: protocol violation", phase))
	}
}
