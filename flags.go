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

// SetFlags atomically updates the per-phase wait-strategy bits. It is
// idempotent: calling it twice with the same flags leaves the machine in
// the same state both times. If any phase transitions from blocking to
// yielding, every thread currently parked on that phase's futex must be
// woken so it can notice the switch and spin instead -- SetFlags wakes
// all waiters whenever that happens.
func (l *Lock) SetFlags(flags WaitFlags) {
	for {
		s := loadState(l)
		ns := s &^ (bitYieldW | bitYieldR | bitYieldF)
		ns = applyWaitFlags(ns, flags)

		mustWakeW := s&bitYieldW == 0 && ns&bitYieldW != 0
		mustWakeR := s&bitYieldR == 0 && ns&bitYieldR != 0
		mustWakeF := s&bitYieldF == 0 && ns&bitYieldF != 0

		if !casState(l, s, ns) {
			continue
		}
		if mustWakeW || mustWakeR || mustWakeF {
			backendWakeAll(statePtr(l), ns&bitPshared != 0)
		}
		return
	}
}
