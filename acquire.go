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

// WAcquire reserves the upcoming write slot. It returns false, without
// mutating the lock, if a writer is already reserved (at most one
// outstanding writer is permitted). It never blocks and never wakes
// another participant.
func (l *Lock) WAcquire() bool {
	for {
		s := loadState(l)
		if s&bitAcqW != 0 {
			return false
		}
		ns := s | bitAcqW
		if ns&bitAcqF != 0 {
			// A freer is already queued: any reader that shows up before
			// this writer releases must park behind the Free->Write
			// handoff, so it doesn't slip past in WRF order.
			ns |= bitRdNextLoop
		}
		if ns&bitNextW != 0 {
			ns = (ns &^ bitNextW) | bitCurrW
		}
		if casState(l, s, ns) {
			return true
		}
	}
}

// RAcquire reserves a read slot. It first parks behind any outstanding
// writer-versus-freer handoff (RD_NEXT_LOOP), then bumps RD_COUNT
// atomically with the rest of the word, then publishes ACQ_R and, if the
// machine was waiting for its first reader, flips NEXT_RF to CURR_R.
// It returns false if RD_COUNT is already at its 65535 cap.
func (l *Lock) RAcquire() bool {
	l.readBarrier()

	for {
		w := loadWord(l)
		s, c := unpackState(w)
		n := readCount(c)
		if n == maxReaders {
			return false
		}
		nc := setReadCount(c, n+1)
		if !casWord(l, w, packState(s, nc)) {
			continue
		}
		break
	}

	for {
		s := loadState(l)
		ns := s | bitAcqR
		if ns&bitNextRF != 0 {
			ns = (ns &^ bitNextRF) | bitCurrR
		}
		if casState(l, s, ns) {
			return true
		}
	}
}

// readBarrier parks the calling goroutine (blocking or yielding,
// according to the reader's wait-strategy flag) while RD_NEXT_LOOP is
// set, so that no reader can snoop ahead of a queued freer/writer
// handoff.
func (l *Lock) readBarrier() {
	for {
		s := loadStateAcquire(l)
		if s&bitRdNextLoop == 0 {
			return
		}
		if s&bitYieldR != 0 {
			cpuRelax()
			continue
		}
		backendWait(statePtr(l), s, s&bitPshared != 0, 0)
	}
}

// FAcquire reserves the upcoming free slot. It returns false if a freer
// is already reserved.
func (l *Lock) FAcquire() bool {
	for {
		s := loadState(l)
		if s&bitAcqF != 0 {
			return false
		}
		ns := s | bitAcqF
		if ns&bitNextRF != 0 {
			ns = (ns &^ bitNextRF) | bitCurrF
		}
		if casState(l, s, ns) {
			return true
		}
	}
}
