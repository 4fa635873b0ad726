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
	"runtime"
	"time"
)

// cpuRelax yields the current goroutine's slice of the underlying OS
// thread briefly, the Go stand-in for a CPU-relax/pause instruction in a
// busy-spin loop: it gives the scheduler a chance to run another
// goroutine without fully descheduling this one on an uncontended spin.
func cpuRelax() {
	runtime.Gosched()
}

// wait blocks or spins until phaseBit is set in the state half, or until
// timeoutMs milliseconds elapse (0 means wait forever). It returns false
// on timeout; a returned true is always accompanied by phaseBit actually
// being set, confirmed with an acquire-ordered load, per the happens-before
// chain the write/read/free critical sections depend on.
func (l *Lock) wait(phaseBit, yieldBit uint32, timeoutMs int) bool {
	var start time.Time
	if timeoutMs > 0 {
		start = time.Now()
	}
	remaining := timeoutMs
	for {
		s := loadStateAcquire(l)
		if s&phaseBit != 0 {
			return true
		}
		if s&yieldBit == 0 {
			if !backendWait(statePtr(l), s, s&bitPshared != 0, remaining) {
				return false
			}
			// A wakeup that did not admit the phase parks again with
			// whatever is left of the budget; once it is spent, the
			// wait fails.
			if timeoutMs > 0 {
				elapsed := int(time.Since(start) / time.Millisecond)
				remaining = timeoutMs - elapsed
				if remaining <= 0 {
					return false
				}
			}
			continue
		}
		if timeoutMs > 0 && time.Since(start) > time.Duration(timeoutMs)*time.Millisecond {
			return false
		}
		cpuRelax()
	}
}

// tryWait reports whether phaseBit is currently set, via a single
// acquire-ordered load; it never blocks.
func (l *Lock) tryWait(phaseBit uint32) bool {
	return loadStateAcquire(l)&phaseBit != 0
}

// WWait blocks or spins until the write phase is current. timeoutMs == 0
// waits forever.
func (l *Lock) WWait(timeoutMs int) bool { return l.wait(bitCurrW, bitYieldW, timeoutMs) }

// RWait blocks or spins until the read phase is current.
func (l *Lock) RWait(timeoutMs int) bool { return l.wait(bitCurrR, bitYieldR, timeoutMs) }

// FWait blocks or spins until the free phase is current.
func (l *Lock) FWait(timeoutMs int) bool { return l.wait(bitCurrF, bitYieldF, timeoutMs) }

// WTryWait reports whether the write phase is currently admitted.
func (l *Lock) WTryWait() bool { return l.tryWait(bitCurrW) }

// RTryWait reports whether the read phase is currently admitted.
func (l *Lock) RTryWait() bool { return l.tryWait(bitCurrR) }

// FTryWait reports whether the free phase is currently admitted.
func (l *Lock) FTryWait() bool { return l.tryWait(bitCurrF) }
