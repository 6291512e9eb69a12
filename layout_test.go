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

import "testing"

func TestOffsets(t *testing.T) {
	gen := Generic.Platform()
	hf := HiFive.Platform()
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"generic hart0 S enable", gen.EnableOffset(0, SupervisorContext), 0x2080},
		{"generic hart0 S threshold", gen.ThresholdOffset(0, SupervisorContext), 0x201000},
		{"generic hart0 S claim", gen.ClaimOffset(0, SupervisorContext), 0x201004},
		{"generic hart3 M enable", gen.EnableOffset(3, MachineContext), 0x2300},
		{"generic hart3 S claim", gen.ClaimOffset(3, SupervisorContext), 0x207004},
		{"hifive hart1 M enable", hf.EnableOffset(1, MachineContext), 0x2080},
		{"hifive hart1 S enable", hf.EnableOffset(1, SupervisorContext), 0x2100},
		{"hifive hart1 S threshold", hf.ThresholdOffset(1, SupervisorContext), 0x202000},
		{"hifive hart4 S claim", hf.ClaimOffset(4, SupervisorContext), 0x208004},
		{"priority 7", PriorityOffset(7), 0x1c},
		{"pending 31", PendingOffset(31), 0x1000},
		{"pending 32", PendingOffset(32), 0x1004},
		{"hifive hart1 S enable word 40", hf.EnableWordOffset(1, SupervisorContext, 40), 0x2104},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got 0x%x, want 0x%x", tc.name, tc.got, tc.want)
		}
	}
}

func TestVariantBoundary(t *testing.T) {
	gen := Generic.Platform()
	hf := HiFive.Platform()
	if gen.NumInterrupts != 511 || hf.NumInterrupts != 53 {
		t.Fatalf("interrupt counts: generic %d, hifive %d", gen.NumInterrupts, hf.NumInterrupts)
	}
	for h := Hart(1); h <= 4; h++ {
		for _, c := range []Context{MachineContext, SupervisorContext} {
			rawEn := uint32(rEN + uint32(h)*rENPerHart + uint32(c)*rENPerContext)
			rawTh := uint32(rTHRES + uint32(h)*rTHRESPerHart + uint32(c)*rTHRESPerCtx)
			if got := gen.EnableOffset(h, c); got != rawEn {
				t.Errorf("generic enable(%d, %d) = 0x%x, want 0x%x", h, c, got, rawEn)
			}
			if got := gen.ThresholdOffset(h, c); got != rawTh {
				t.Errorf("generic threshold(%d, %d) = 0x%x, want 0x%x", h, c, got, rawTh)
			}
			if got := hf.EnableOffset(h, c); got != rawEn-rENPerContext {
				t.Errorf("hifive enable(%d, %d) = 0x%x, want 0x%x", h, c, got, rawEn-rENPerContext)
			}
			if got := hf.ThresholdOffset(h, c); got != rawTh-rTHRESPerCtx {
				t.Errorf("hifive threshold(%d, %d) = 0x%x, want 0x%x", h, c, got, rawTh-rTHRESPerCtx)
			}
			if hf.ClaimOffset(h, c) != hf.ThresholdOffset(h, c)+4 {
				t.Errorf("hifive claim(%d, %d) not aliased to threshold+4", h, c)
			}
		}
	}
}

type span struct {
	what       string
	h          Hart
	c          Context
	start, end uint32
}

func TestDisjointRegisters(t *testing.T) {
	for _, v := range []Variant{Generic, HiFive} {
		p := v.Platform()
		var spans []span
		for h := p.MinHart; h < p.MinHart+8; h++ {
			for _, c := range []Context{MachineContext, SupervisorContext} {
				en := p.EnableOffset(h, c)
				th := p.ThresholdOffset(h, c)
				cl := p.ClaimOffset(h, c)
				spans = append(spans,
					span{"enable", h, c, en, en + uint32(EnableWords(p.NumInterrupts))*4},
					span{"threshold", h, c, th, th + 4},
					span{"claim", h, c, cl, cl + 4})
			}
		}
		for i, a := range spans {
			for _, b := range spans[i+1:] {
				if a.start < b.end && b.start < a.end {
					t.Errorf("%s: %s(%d, %d) [0x%x, 0x%x) overlaps %s(%d, %d) [0x%x, 0x%x)",
						v, a.what, a.h, a.c, a.start, a.end, b.what, b.h, b.c, b.start, b.end)
				}
			}
		}
	}
}

func TestBitPacking(t *testing.T) {
	for _, s := range []Source{1, 31, 32, 53, 511} {
		if got, want := wordOffset(s), uint32(s/32)*4; got != want {
			t.Errorf("wordOffset(%d) = %d, want %d", s, got, want)
		}
		if got, want := bit(s), uint32(1)<<(s%32); got != want {
			t.Errorf("bit(%d) = 0x%x, want 0x%x", s, got, want)
		}
	}
}
