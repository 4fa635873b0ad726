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

//go:build linux

package wrflock

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// FUTEX_PRIVATE_FLAG tells the kernel this futex word is never shared
// across processes, letting it skip the VMA lookup needed to resolve a
// shared futex's backing object. private selects it off when the lock's
// PSHARED bit is set, the one place in this package PSHARED has a real
// behavioral effect rather than being purely informational.
const futexPrivateFlag = 128

func futexOp(base int, private bool) int {
	if private {
		return base
	}
	return base | futexPrivateFlag
}

func backendWait(addr *uint32, expected uint32, private bool, timeoutMs int) bool {
	var ts *unix.Timespec
	if timeoutMs > 0 {
		d := timespecFromMillis(timeoutMs)
		ts = &d
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOp(unix.FUTEX_WAIT, private)),
		uintptr(expected),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
	return errno != unix.ETIMEDOUT
}

func backendWakeOne(addr *uint32, private bool) {
	unix.Syscall(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), uintptr(futexOp(unix.FUTEX_WAKE, private)), 1)
}

func backendWakeAll(addr *uint32, private bool) {
	unix.Syscall(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), uintptr(futexOp(unix.FUTEX_WAKE, private)), uintptr(^uint32(0)))
}

func timespecFromMillis(ms int) unix.Timespec {
	return unix.NsecToTimespec(int64(ms) * 1e6)
}
