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

//go:build darwin

package wrflock

import (
	"syscall"
	"unsafe"
)

// __ulock_wait/__ulock_wake have no wrapper in golang.org/x/sys on
// darwin, so this file talks to them directly the way the pack's
// twmb-dash futex package talks directly to its own synthetic bucket
// list: by reaching for the raw syscall rather than waiting for an
// upstream binding. Operation/flag values below are the ones XNU's
// sys/ulock.h and the Darwin libpthread sources publish; they are a
// platform ABI, not something this package owns or can change.
const (
	ulockOpCompareAndWait  = 1
	ulockOpWake            = 2
	ulockFlagNoErrno       = 0x1000000
	ulockFlagWakeAll       = 0x00000100
	ulockFlagSharedVariant = 0x00000002

	sysUlockWait = 0x2000000 + 515
	sysUlockWake = 0x2000000 + 516
)

func ulockOp(private bool) uintptr {
	op := uintptr(ulockOpCompareAndWait)
	if !private {
		op |= ulockFlagSharedVariant
	}
	return op
}

func backendWait(addr *uint32, expected uint32, private bool, timeoutMs int) bool {
	timeoutUs := uintptr(0)
	if timeoutMs > 0 {
		timeoutUs = uintptr(timeoutMs) * 1000
	}
	r1, _, errno := syscall.Syscall6(
		sysUlockWait,
		ulockOp(private),
		uintptr(unsafe.Pointer(addr)),
		uintptr(expected),
		timeoutUs,
		0, 0,
	)
	// ETIMEDOUT: the wait's deadline passed. Any other outcome (woken by
	// __ulock_wake, or the value no longer matched expected at syscall
	// entry) counts as "woke up" per the wait/wake contract.
	_ = r1
	return errno != syscall.ETIMEDOUT
}

func backendWakeOne(addr *uint32, private bool) {
	op := uintptr(ulockOpWake)
	if !private {
		op |= ulockFlagSharedVariant
	}
	syscall.Syscall(sysUlockWake, op, uintptr(unsafe.Pointer(addr)), 0)
}

func backendWakeAll(addr *uint32, private bool) {
	op := uintptr(ulockOpWake) | ulockFlagWakeAll
	if !private {
		op |= ulockFlagSharedVariant
	}
	syscall.Syscall(sysUlockWake, op, uintptr(unsafe.Pointer(addr)), 0)
}
