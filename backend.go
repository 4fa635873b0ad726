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

// This file documents the wait-backend contract every backend_<goos>.go
// implements. There is no portable implementation: a GOOS without a
// backend_<goos>.go file in this package simply fails to compile, since
// backendWait/backendWakeOne/backendWakeAll are referenced but never
// defined -- the intended "unsupported platforms refuse to compile"
// behavior, achieved without a runtime stub.
//
// backendWait(addr *uint32, expected uint32, private bool, timeoutMs int) bool
//
//	Blocks the calling goroutine's OS thread while *addr == expected,
//	for up to timeoutMs milliseconds (timeoutMs <= 0 means forever).
//	Returns true if the thread was woken (spuriously or via a matching
//	wake call; the caller always rechecks its condition), false on
//	timeout. private selects the non-shared ("private to this process")
//	futex flavor where the platform distinguishes one; it is derived
//	from the lock's PSHARED bit.
//
// backendWakeOne(addr *uint32, private bool)
//
//	Wakes at most one thread parked on addr. Unused by the core today
//	(every release wakes all waiters of the phase it hands off to, per
//	spec section 4.C, since a single wake risks leaving a sibling reader
//	parked) but kept as part of the documented contract.
//
// backendWakeAll(addr *uint32, private bool)
//
//	Wakes every thread parked on addr.
