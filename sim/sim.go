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

// Package sim is a software model of PLIC hardware. A *sim.PLIC can be
// used as the plic.Bus of a driver, so that the driver runs unchanged
// against it.
package sim

import (
	"sync"

	"github.com/aamcrae/plic"
)

// PriorityMask is the implemented width of priority and threshold registers.
const PriorityMask = 7

type regKind int

const (
	kPriority regKind = iota
	kPending
	kEnable
	kThreshold
	kClaim
)

type reg struct {
	kind  regKind
	index int // source, pending word or enable word
	ctx   *context
}

// context is the register bank of one hart/context pair.
type context struct {
	hart      plic.Hart
	id        plic.Context
	enable    []uint32
	threshold uint32
}

// PLIC models the controller. Register accesses are serialised, as the
// hardware arbiter serialises them.
type PLIC struct {
	mu       sync.Mutex
	platform plic.Platform
	regs     map[uint32]reg
	contexts map[plic.Hart][2]*context

	priority []uint32
	pending  []uint32
	inFlight []bool // claimed and not yet completed
	deferred []bool // raised while in flight
}

// New creates a model of the platform's PLIC wired to the harts listed.
// Each hart has a machine and a supervisor context.
func New(p plic.Platform, harts ...plic.Hart) *PLIC {
	n := p.NumInterrupts
	words := plic.EnableWords(n)
	s := &PLIC{
		platform: p,
		regs:     make(map[uint32]reg),
		contexts: make(map[plic.Hart][2]*context),
		priority: make([]uint32, n+1),
		pending:  make([]uint32, words),
		inFlight: make([]bool, n+1),
		deferred: make([]bool, n+1),
	}
	for i := 0; i <= n; i++ {
		s.regs[plic.PriorityOffset(plic.Source(i))] = reg{kind: kPriority, index: i}
	}
	for w := 0; w < words; w++ {
		s.regs[plic.PendingOffset(plic.Source(w*32))] = reg{kind: kPending, index: w}
	}
	for _, h := range harts {
		var pair [2]*context
		for _, id := range []plic.Context{plic.MachineContext, plic.SupervisorContext} {
			c := &context{hart: h, id: id, enable: make([]uint32, words)}
			for w := 0; w < words; w++ {
				off := p.EnableWordOffset(h, id, plic.Source(w*32))
				s.regs[off] = reg{kind: kEnable, index: w, ctx: c}
			}
			s.regs[p.ThresholdOffset(h, id)] = reg{kind: kThreshold, ctx: c}
			s.regs[p.ClaimOffset(h, id)] = reg{kind: kClaim, ctx: c}
			pair[id] = c
		}
		s.contexts[h] = pair
	}
	return s
}

// Read32 implements plic.Bus. Unmapped registers read as zero.
func (s *PLIC) Read32(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[off]
	if !ok {
		return 0
	}
	switch r.kind {
	case kPriority:
		return s.priority[r.index]
	case kPending:
		return s.pending[r.index]
	case kEnable:
		return r.ctx.enable[r.index]
	case kThreshold:
		return r.ctx.threshold
	case kClaim:
		return uint32(s.claim(r.ctx))
	}
	return 0
}

// Write32 implements plic.Bus. Writes to unmapped or read-only registers are ignored.
func (s *PLIC) Write32(off uint32, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[off]
	if !ok {
		return
	}
	switch r.kind {
	case kPriority:
		// Source 0 is hardwired to zero.
		if r.index != 0 {
			s.priority[r.index] = v & PriorityMask
		}
	case kEnable:
		if r.index == 0 {
			v &^= 1
		}
		r.ctx.enable[r.index] = v
	case kThreshold:
		r.ctx.threshold = v & PriorityMask
	case kClaim:
		s.complete(r.ctx, plic.Source(v))
	}
}

// Raise signals an interrupt on source src through its gateway.
// While src is claimed and not completed, the request is held and
// becomes pending on completion.
func (s *PLIC) Raise(src plic.Source) {
	if !s.valid(src) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[src] {
		s.deferred[src] = true
		return
	}
	s.setPending(src, true)
}

// SetPending forces the pending bit of src, bypassing the gateway.
// It models state left behind by firmware.
func (s *PLIC) SetPending(src plic.Source, pending bool) {
	if !s.valid(src) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPending(src, pending)
}

// InFlight returns true if src has been claimed and not completed.
func (s *PLIC) InFlight(src plic.Source) bool {
	if !s.valid(src) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[src]
}

// Asserted returns true if the supervisor external interrupt line of
// hart h is raised, i.e a claim would return a source.
func (s *PLIC) Asserted(h plic.Hart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, ok := s.contexts[h]
	if !ok {
		return false
	}
	return s.best(pair[plic.SupervisorContext]) != 0
}

func (s *PLIC) valid(src plic.Source) bool {
	return src != 0 && int(src) <= s.platform.NumInterrupts
}

func (s *PLIC) setPending(src plic.Source, pending bool) {
	w, b := src/32, uint32(1)<<(src%32)
	if pending {
		s.pending[w] |= b
	} else {
		s.pending[w] &^= b
	}
}

// best returns the highest priority source that is pending, enabled for
// the context and above its threshold. Ties go to the lowest ID.
func (s *PLIC) best(c *context) plic.Source {
	var src plic.Source
	var prio uint32
	for i := 1; i <= s.platform.NumInterrupts; i++ {
		w, b := i/32, uint32(1)<<(i%32)
		if s.pending[w]&b == 0 || c.enable[w]&b == 0 {
			continue
		}
		if p := s.priority[i]; p > c.threshold && p > prio {
			prio = p
			src = plic.Source(i)
		}
	}
	return src
}

func (s *PLIC) claim(c *context) plic.Source {
	src := s.best(c)
	if src != 0 {
		s.setPending(src, false)
		s.inFlight[src] = true
	}
	return src
}

// complete ends the claim on src. The hardware ignores completions
// for sources not enabled for the context, and for sources not in flight.
func (s *PLIC) complete(c *context, src plic.Source) {
	if !s.valid(src) || !s.inFlight[src] {
		return
	}
	if c.enable[src/32]&(1<<(src%32)) == 0 {
		return
	}
	s.inFlight[src] = false
	if s.deferred[src] {
		s.deferred[src] = false
		s.setPending(src, true)
	}
}

var _ plic.Bus = (*PLIC)(nil)
