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

//go:build windows

package wrflock

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// WaitOnAddress/WakeByAddressSingle/WakeByAddressAll live in
// api-ms-win-core-synch-l1-2-0.dll and are not wrapped by
// golang.org/x/sys/windows, so this file resolves them with the same
// NewLazySystemDLL/NewProc pattern the pack's eventloop package uses for
// IOCP entry points x/sys/windows doesn't cover either.
var (
	modSynch                = windows.NewLazySystemDLL("api-ms-win-core-synch-l1-2-0.dll")
	procWaitOnAddress       = modSynch.NewProc("WaitOnAddress")
	procWakeByAddressSingle = modSynch.NewProc("WakeByAddressSingle")
	procWakeByAddressAll    = modSynch.NewProc("WakeByAddressAll")
)

const infiniteTimeout = 0xFFFFFFFF

// private has no effect on Windows: WaitOnAddress has no shared-vs-private
// distinction, so PSHARED is purely informational here (spec section 9
// leaves platforms free to treat it as reserved where there is no
// matching OS concept).
func backendWait(addr *uint32, expected uint32, private bool, timeoutMs int) bool {
	_ = private
	timeout := uint32(infiniteTimeout)
	if timeoutMs > 0 {
		timeout = uint32(timeoutMs)
	}
	exp := expected
	r, _, _ := procWaitOnAddress.Call(
		uintptr(unsafe.Pointer(addr)),
		uintptr(unsafe.Pointer(&exp)),
		uintptr(4),
		uintptr(timeout),
	)
	return r != 0
}

func backendWakeOne(addr *uint32, private bool) {
	_ = private
	procWakeByAddressSingle.Call(uintptr(unsafe.Pointer(addr)))
}

func backendWakeAll(addr *uint32, private bool) {
	_ = private
	procWakeByAddressAll.Call(uintptr(unsafe.Pointer(addr)))
}
