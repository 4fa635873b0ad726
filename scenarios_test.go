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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// wrfCycle spawns one writer, four readers, and one freer against a
// fresh lock and drives them through a single write -> read -> free
// cycle, observing ordering through an external counter K the way the
// spec's end-to-end scenario does. It reports every participant's
// success/failure via errc so assertions happen on the test goroutine,
// not inside the spawned goroutines.
func wrfCycle(t *testing.T, l *Lock) int32 {
	var k int32
	var wg sync.WaitGroup
	errc := make(chan string, 6)

	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		if !l.WAcquire() {
			errc <- "writer: acquire failed"
			return
		}
		if !l.WWait(0) {
			errc <- "writer: wait failed"
			return
		}
		atomic.StoreInt32(&k, 1)
		if !l.WRelease() {
			errc <- "writer: release failed"
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			if !l.RAcquire() {
				errc <- "reader: acquire failed"
				return
			}
			if !l.RWait(0) {
				errc <- "reader: wait failed"
				return
			}
			if atomic.LoadInt32(&k) != 1 {
				errc <- "reader: observed K before writer published it"
			}
			if !l.RRelease() {
				errc <- "reader: release failed"
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(40 * time.Millisecond)
		if !l.FAcquire() {
			errc <- "freer: acquire failed"
			return
		}
		if !l.FWait(1000) {
			errc <- "freer: wait timed out"
			return
		}
		atomic.StoreInt32(&k, -10000)
		if !l.FRelease() {
			errc <- "freer: release failed"
		}
	}()

	wg.Wait()
	close(errc)
	for msg := range errc {
		t.Error(msg)
	}
	return atomic.LoadInt32(&k)
}

func TestScenarioWRFCycleBlocking(t *testing.T) {
	l := New()
	k := wrfCycle(t, l)
	require.Equal(t, int32(-10000), k)
}

func TestScenarioWRFCycleYielding(t *testing.T) {
	l := &Lock{}
	l.Init(WriteYield|ReadYield|FreeYield, false)
	k := wrfCycle(t, l)
	require.Equal(t, int32(-10000), k)
}

func TestScenarioFreerTimeoutNoWriter(t *testing.T) {
	l := New()
	require.True(t, l.FAcquire())
	require.False(t, l.FWait(50))
	require.True(t, l.FRelease())
}

// Scenario: a freer reserves ahead of a writer, forcing RD_NEXT_LOOP;
// a reader that shows up afterward must park in the barrier loop until
// the writer completes its release.
func TestScenarioReaderAdmissionBarrier(t *testing.T) {
	l := New()
	require.True(t, l.FAcquire())
	require.True(t, l.WAcquire())
	require.NotZero(t, loadState(l)&bitRdNextLoop, "write-acquire behind a queued freer must set RD_NEXT_LOOP")

	readerDone := make(chan struct{})
	go func() {
		l.RAcquire()
		close(readerDone)
	}()

	select {
	case <-readerDone:
		t.Fatal("reader must not acquire while RD_NEXT_LOOP is set")
	case <-time.After(10 * time.Millisecond):
	}

	require.True(t, l.WWait(0))
	require.True(t, l.WRelease())

	select {
	case <-readerDone:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("reader never unblocked after the writer released")
	}

	// The freer was queued ahead of the barrier reader, so WRelease hands
	// the machine to CURR_F, not CURR_R; the reader is left registered
	// (ACQ_R set) for the write cycle after this one.
	require.True(t, l.FWait(0))
	require.True(t, l.FRelease())
}

func TestScenarioOverflowReporting(t *testing.T) {
	l := New()
	require.True(t, l.WAcquire())
	require.False(t, l.WAcquire())
	require.True(t, l.WRelease())
	require.False(t, l.WRelease())
}

// Scenario: thread A blocks in RWait while the machine is in CURR_W.
// Thread B flips the reader's wait strategy to yield. A's futex wait
// must be woken by the flip, not just by the eventual write-release:
// once SetFlags has set YIELD_R, WRelease's own wake condition for
// readers is false (release only wakes blocking waiters), so if the
// flip's wake-all failed to unpark A, A would stay parked until its
// 2000 ms timeout even after WRelease hands the machine to CURR_R.
func TestScenarioFlagFlipWakesBlockers(t *testing.T) {
	l := New()
	require.True(t, l.WAcquire())
	require.True(t, l.WWait(0))
	require.True(t, l.RAcquire())

	waiterDone := make(chan bool, 1)
	go func() {
		waiterDone <- l.RWait(2000)
	}()

	time.Sleep(20 * time.Millisecond)
	l.SetFlags(ReadYield | WriteBlock | FreeBlock)
	require.True(t, l.WRelease())

	select {
	case ok := <-waiterDone:
		require.True(t, ok, "reader's RWait must succeed once handed CURR_R")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("blocked RWait never woke after the flag flip; SetFlags failed to unpark it")
	}

	require.True(t, l.RRelease())
}
