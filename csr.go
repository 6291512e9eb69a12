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

import "sync/atomic"

// Bits of the sie (supervisor interrupt enable) register.
const (
	SSIE = 1 << 1 // Software interrupts
	STIE = 1 << 5 // Timer interrupts
	SEIE = 1 << 9 // External interrupts
)

// SIE reads and writes the current hart's sie control register.
// The kernel supplies the implementation; it is per hart, like the
// register itself.
type SIE interface {
	ReadSIE() uint64
	WriteSIE(v uint64)
}

// SoftSIE is a software sie register, for emulators and tests.
type SoftSIE struct {
	v atomic.Uint64
}

func (s *SoftSIE) ReadSIE() uint64 {
	return s.v.Load()
}

func (s *SoftSIE) WriteSIE(v uint64) {
	s.v.Store(v)
}

// EnableExternal unmasks supervisor external interrupts on the hart
// owning s. InitHart must have run on that hart first.
func EnableExternal(s SIE) {
	s.WriteSIE(s.ReadSIE() | SEIE)
}

// DisableExternal masks supervisor external interrupts on the hart owning s.
func DisableExternal(s SIE) {
	s.WriteSIE(s.ReadSIE() &^ SEIE)
}

// ExternalEnabled returns true if supervisor external interrupts are unmasked.
func ExternalEnabled(s SIE) bool {
	return s.ReadSIE()&SEIE != 0
}
