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
	"encoding/binary"
	"testing"
)

func TestNewWindow(t *testing.T) {
	if _, err := NewWindow(nil); err == nil {
		t.Errorf("empty window accepted")
	}
	if _, err := NewWindow(make([]byte, 6)); err == nil {
		t.Errorf("window of 6 bytes accepted")
	}
	w, err := NewWindow(make([]byte, 0x100))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if w.Len() != 0x100 {
		t.Errorf("Len = %d", w.Len())
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close of unmapped window: %v", err)
	}
}

func TestWindowAccess(t *testing.T) {
	mem := make([]byte, 0x100)
	w, err := NewWindow(mem)
	if err != nil {
		t.Fatal(err)
	}
	w.Write32(0x10, 0xdeadbeef)
	if v := w.Read32(0x10); v != 0xdeadbeef {
		t.Errorf("Read32 = 0x%x", v)
	}
	if v := binary.NativeEndian.Uint32(mem[0x10:]); v != 0xdeadbeef {
		t.Errorf("backing memory holds 0x%x", v)
	}
	if v := w.Read32(0xfc); v != 0 {
		t.Errorf("last word = 0x%x", v)
	}
}

func TestWindowBounds(t *testing.T) {
	w, err := NewWindow(make([]byte, 0x100))
	if err != nil {
		t.Fatal(err)
	}
	for _, off := range []uint32{2, 0x100, 0x1000} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("access at 0x%x did not panic", off)
				}
			}()
			w.Read32(off)
		}()
	}
}

func TestMapWindowAlignment(t *testing.T) {
	if _, err := MapWindow("/dev/null", 0x123, 0x1000); err == nil {
		t.Errorf("unaligned base accepted")
	}
	if _, err := MapWindow("/dev/null", 0, 0); err == nil {
		t.Errorf("zero size accepted")
	}
}

func TestSoftSIE(t *testing.T) {
	var s SoftSIE
	s.WriteSIE(STIE)
	EnableExternal(&s)
	if !ExternalEnabled(&s) || s.ReadSIE() != STIE|SEIE {
		t.Errorf("after enable sie = 0x%x", s.ReadSIE())
	}
	DisableExternal(&s)
	if ExternalEnabled(&s) || s.ReadSIE() != STIE {
		t.Errorf("after disable sie = 0x%x", s.ReadSIE())
	}
}
