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

// Source is an interrupt source ID. Source 0 is reserved and, when
// returned from a claim, means no interrupt is pending.
type Source uint32

// Hart is a hardware thread ID.
type Hart uint32

// Context is an interrupt target within a hart.
type Context uint32

const (
	MachineContext    Context = 0
	SupervisorContext Context = 1
)

// Register offsets, relative to the base of the PLIC window.
// The memory map is based on the PLIC section of the SiFive U54-MC manual.
const (
	rPRIO         = 0x0
	rPRIOPerID    = 0x4
	rPENDING      = 0x1000
	rEN           = 0x2000
	rENPerHart    = 0x100
	rENPerContext = 0x80
	rTHRES        = 0x200000
	rTHRESPerHart = 0x2000
	rTHRESPerCtx  = 0x1000
	rTHRESClaim   = 0x4
	srcPerWord    = 32
	bytesPerWord  = 4
)

// EnableOffset returns the offset of the first enable word of the
// hart/context pair.
func (p Platform) EnableOffset(h Hart, c Context) uint32 {
	off := rEN + uint32(h)*rENPerHart + uint32(c)*rENPerContext
	return off - p.SkipContexts*rENPerContext
}

// ThresholdOffset returns the offset of the priority threshold register
// of the hart/context pair.
func (p Platform) ThresholdOffset(h Hart, c Context) uint32 {
	off := rTHRES + uint32(h)*rTHRESPerHart + uint32(c)*rTHRESPerCtx
	return off - p.SkipContexts*rTHRESPerCtx
}

// ClaimOffset returns the offset of the claim/complete register of the
// hart/context pair.
func (p Platform) ClaimOffset(h Hart, c Context) uint32 {
	return p.ThresholdOffset(h, c) + rTHRESClaim
}

// EnableWordOffset returns the offset of the enable word holding the bit for s.
func (p Platform) EnableWordOffset(h Hart, c Context, s Source) uint32 {
	return p.EnableOffset(h, c) + wordOffset(s)
}

// PriorityOffset returns the offset of the priority register of s.
func PriorityOffset(s Source) uint32 {
	return rPRIO + uint32(s)*rPRIOPerID
}

// PendingOffset returns the offset of the global pending word holding the bit for s.
func PendingOffset(s Source) uint32 {
	return rPENDING + wordOffset(s)
}

// EnableWords is the number of enable words covering sources 0 to n.
func EnableWords(n int) int {
	return n/srcPerWord + 1
}

func wordOffset(s Source) uint32 {
	return (uint32(s) / srcPerWord) * bytesPerWord
}

func bit(s Source) uint32 {
	return 1 << (uint32(s) % srcPerWord)
}
