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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsPrimedForFirstWriter(t *testing.T) {
	l := New()
	assert.Equal(t, Uninit, l.GetCurrentState())
	assert.True(t, l.WAcquire(), "fresh lock should admit the first write-acquire")
	assert.True(t, l.WWait(0))
	assert.Equal(t, Write, l.GetCurrentState())
	assert.True(t, l.WRelease())
}

func TestInitPsharedPolarity(t *testing.T) {
	shared := &Lock{}
	shared.Init(WriteBlock|ReadBlock|FreeBlock, true)
	assert.NotZero(t, loadState(shared)&bitPshared, "pshared=true must set the PSHARED bit")

	private := &Lock{}
	private.Init(WriteBlock|ReadBlock|FreeBlock, false)
	assert.Zero(t, loadState(private)&bitPshared, "pshared=false must not set the PSHARED bit")
}

// Boundary: second WAcquire without intervening WRelease returns false.
func TestWAcquireOverflow(t *testing.T) {
	l := New()
	assert.True(t, l.WAcquire())
	assert.False(t, l.WAcquire(), "second write-acquire before release must fail")
	assert.True(t, l.WRelease())
	assert.False(t, l.WRelease(), "second write-release without an intervening acquire must fail")
}

func TestFAcquireOverflow(t *testing.T) {
	l := New()
	// Drive the machine into a state where a freer can be reserved: with
	// nothing else happening, FAcquire still just sets ACQ_F -- it does
	// not require CURR_F to be current.
	assert.True(t, l.FAcquire())
	assert.False(t, l.FAcquire(), "second free-acquire before release must fail")
}

func TestRAcquireOverflowAtReaderCap(t *testing.T) {
	l := New()
	assert.True(t, l.WAcquire())
	assert.True(t, l.WWait(0))
	assert.True(t, l.WRelease())

	// The lock was parked in NEXT_RF after the write-release (no reader
	// had queued yet), so the first read-acquire is what flips NEXT_RF
	// to CURR_R; only after that does RWait have anything to observe.
	assert.True(t, l.RAcquire())
	assert.True(t, l.RWait(0))

	for i := 1; i < maxReaders; i++ {
		if !l.RAcquire() {
			t.Fatalf("reader %d unexpectedly failed to acquire", i)
		}
	}
	assert.False(t, l.RAcquire(), "65536th reader must overflow")
}

// Boundary: f_wait with a short timeout on a machine never entering
// free returns false.
func TestFreerTimeout(t *testing.T) {
	l := New()
	assert.True(t, l.FAcquire())
	assert.False(t, l.FWait(50))
	assert.True(t, l.FRelease())
}

func TestTryWaitImpliesWaitReturnsTrueWithoutBlocking(t *testing.T) {
	l := New()
	assert.False(t, l.WTryWait())
	assert.True(t, l.WAcquire())
	assert.True(t, l.WWait(0))
	assert.True(t, l.WTryWait())
	assert.True(t, l.WWait(1))
}

func TestSetFlagsIdempotent(t *testing.T) {
	l := New()
	l.SetFlags(ReadYield | WriteBlock | FreeBlock)
	s1 := loadState(l)
	l.SetFlags(ReadYield | WriteBlock | FreeBlock)
	s2 := loadState(l)
	assert.Equal(t, s1, s2)
}

func TestDispatchInvalidPhasePanics(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Acquire(Phase(99)) })
	assert.Panics(t, func() { l.Release(Phase(99)) })
	assert.Panics(t, func() { l.Wait(Phase(99), 0) })
	assert.Panics(t, func() { l.TryWait(Phase(99)) })
}

func TestWithBracketsAcquireWaitRelease(t *testing.T) {
	l := New()
	ran := false
	l.With(Write, func() {
		ran = true
		assert.Equal(t, Write, l.GetCurrentState())
	})
	assert.True(t, ran)
	assert.True(t, l.RAcquire())
}

func TestWithPanicsOnAcquireOverflow(t *testing.T) {
	l := New()
	assert.True(t, l.WAcquire())
	assert.Panics(t, func() {
		l.With(Write, func() {})
	})
	assert.True(t, l.WRelease())
}
