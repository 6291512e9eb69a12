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

/*

Package plic drives the RISC-V Platform-Level Interrupt Controller (PLIC)
as found on the SiFive U54-MC (https://static.dev.sifive.com/U54-MC-RVCoreIP.pdf)
and on generic RISC-V boards.

The PLIC routes external interrupt sources to interrupt contexts, one per hart
and privilege mode. This package always works on the supervisor context of a
hart. It provides per source enable and disable, threshold filtering, and the
claim/complete handshake that hands each interrupt to exactly one hart.

The registers are reached through a Bus. Open maps the physical register window
through /dev/mem; New accepts any Bus, such as the model in the sim package.

A typical boot sequence is:

	p, err := plic.Open(plic.NewConfig().Platform(plic.HiFive).FirstHart(1))
	p.InitController()      // once, on the first hart
	p.InitHart(h)           // on every hart h
	p.Mask(h, false, src)   // enable the sources the hart handles
	plic.EnableExternal(sie)

and on every supervisor external interrupt trap:

	p.Service(h, dispatch)

Hart IDs are always passed explicitly; the caller resolves them, for example
with PLIC.Hart. The driver holds no locks: each hart only touches its own
enable words, threshold and claim register, and the hardware arbitrates claims.

*/
package plic
