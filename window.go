// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plic

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Bus is 32 bit access to the PLIC register window.
// Offsets are byte offsets from the start of the window.
type Bus interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// Window is a bounded view of a memory mapped register region.
// Only aligned 32 bit words inside the region can be accessed.
type Window struct {
	mem  []byte
	file *os.File
}

// NewWindow wraps an existing byte region, which must be word aligned
// and a whole number of words long.
func NewWindow(mem []byte) (*Window, error) {
	if len(mem) == 0 || len(mem)%bytesPerWord != 0 {
		return nil, fmt.Errorf("window length %d is not a multiple of %d", len(mem), bytesPerWord)
	}
	if uintptr(unsafe.Pointer(&mem[0]))%bytesPerWord != 0 {
		return nil, fmt.Errorf("window is not word aligned")
	}
	return &Window{mem: mem}, nil
}

// MapWindow maps size bytes of physical memory at base through the device
// (normally /dev/mem).
func MapWindow(device string, base uintptr, size int) (*Window, error) {
	pg := uintptr(os.Getpagesize())
	if base%pg != 0 || size <= 0 || uintptr(size)%pg != 0 {
		return nil, fmt.Errorf("%s: window 0x%x/0x%x is not page aligned", device, base, size)
	}
	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0660)
	if err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(int(f.Fd()), int64(base), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %v", device, err)
	}
	return &Window{mem: mem, file: f}, nil
}

// Len returns the length of the window in bytes.
func (w *Window) Len() int {
	return len(w.mem)
}

// Read32 reads one 32 bit register
func (w *Window) Read32(off uint32) uint32 {
	return atomic.LoadUint32(w.word(off))
}

// Write32 writes one 32 bit register
func (w *Window) Write32(off uint32, v uint32) {
	atomic.StoreUint32(w.word(off), v)
}

// Close unmaps a window created by MapWindow.
func (w *Window) Close() error {
	if w.file == nil {
		return nil
	}
	err := unix.Munmap(w.mem)
	w.file.Close()
	w.file = nil
	w.mem = nil
	return err
}

func (w *Window) word(off uint32) *uint32 {
	if off%bytesPerWord != 0 || int(off)+bytesPerWord > len(w.mem) {
		panic(fmt.Sprintf("plic: register offset 0x%x outside window of 0x%x bytes", off, len(w.mem)))
	}
	return (*uint32)(unsafe.Pointer(&w.mem[off]))
}
