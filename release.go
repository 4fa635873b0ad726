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

// WRelease ends the write phase. It returns false if no writer is
// currently reserved. On success it hands the machine directly to a
// queued reader or freer, or parks it in NEXT_RF if nobody is waiting,
// waking any blocked waiters the hand-off unblocks.
func (l *Lock) WRelease() bool {
	for {
		s := loadState(l)
		if s&bitAcqW == 0 {
			return false
		}
		hadBarrier := s&bitRdNextLoop != 0
		ns := s &^ (bitAcqW | bitCurrW | bitRdNextLoop)
		switch {
		case ns&bitAcqR != 0:
			ns |= bitCurrR
		case ns&bitAcqF != 0:
			ns |= bitCurrF
		default:
			ns |= bitNextRF
		}
		if !casState(l, s, ns) {
			continue
		}
		// hadBarrier readers are parked in RAcquire's barrier loop on the
		// pre-release value of S, which still had RD_NEXT_LOOP set; since
		// we just cleared it, they must be woken even when no reader won
		// the hand-off (e.g. the freer did, or nobody is waiting yet).
		wakeR := ns&bitCurrR != 0 || hadBarrier
		if wakeR && ns&bitYieldR == 0 {
			backendWakeAll(statePtr(l), ns&bitPshared != 0)
		}
		if ns&bitCurrF != 0 && ns&bitYieldF == 0 {
			backendWakeAll(statePtr(l), ns&bitPshared != 0)
		}
		return true
	}
}

// RRelease ends one reader's participation in the read phase. It returns
// false if RD_COUNT is already zero. When the last reader leaves, it
// hands the machine to a queued freer or parks it in NEXT_RF.
func (l *Lock) RRelease() bool {
	for {
		w := loadWord(l)
		s, c := unpackState(w)
		n := readCount(c)
		if n == 0 {
			return false
		}
		nc := setReadCount(c, n-1)
		ns := s
		if n-1 == 0 {
			ns &^= bitAcqR
			if ns&bitAcqF != 0 {
				ns = (ns &^ bitCurrR) | bitCurrF
			} else {
				ns = (ns &^ bitCurrR) | bitNextRF
			}
		}
		nw := packState(ns, nc)
		if !casWord(l, w, nw) {
			continue
		}
		if ns&bitCurrF != 0 && ns&bitYieldF == 0 {
			backendWakeAll(statePtr(l), ns&bitPshared != 0)
		}
		return true
	}
}

// FRelease ends the free phase. It returns false if no freer is
// currently reserved. On success it hands the machine to a queued writer
// or parks it in NEXT_W.
func (l *Lock) FRelease() bool {
	for {
		s := loadState(l)
		if s&bitAcqF == 0 {
			return false
		}
		ns := s &^ (bitAcqF | bitCurrF)
		if ns&bitAcqW != 0 {
			ns |= bitCurrW
		} else {
			ns |= bitNextW
		}
		if !casState(l, s, ns) {
			continue
		}
		if ns&bitCurrW != 0 && ns&bitYieldW == 0 {
			backendWakeAll(statePtr(l), ns&bitPshared != 0)
		}
		return true
	}
}
