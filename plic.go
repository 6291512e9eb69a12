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
	"log/slog"
	"strings"
)

// DefaultPriority is the priority InitController gives every source.
// Priority 0 disables a source.
const DefaultPriority = 2

// PLIC is a handle on one platform-level interrupt controller.
//
// Per-hart operations take the hart explicitly. A hart may only call them
// with its own ID: enable words, threshold and claim registers are banked
// per hart and context, and the driver relies on that partitioning instead
// of locks.
type PLIC struct {
	bus       Bus
	window    *Window
	variant   Variant
	platform  Platform
	firstHart Hart
	cpu2hart  map[int]Hart
	log       *slog.Logger
}

// Single instance of the hardware mapped PLIC.
var hw *PLIC

// Open maps the PLIC register window described by the configuration.
// If c is nil, DefaultConfig is used.
func Open(c *Config) (*PLIC, error) {
	if hw != nil {
		return nil, fmt.Errorf("Device already open; must close it first")
	}
	if c == nil {
		c = DefaultConfig
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	w, err := MapWindow(c.device, c.base, c.size)
	if err != nil {
		return nil, err
	}
	p := New(w, c)
	p.window = w
	hw = p
	p.log.Info("plic: opened", "platform", p.variant, "base", fmt.Sprintf("0x%x", c.base), "size", c.size)
	return p, nil
}

// New creates a PLIC that accesses its registers through bus.
// If c is nil, DefaultConfig is used.
// New panics if the configuration names a hart with no supervisor
// context on the platform.
func New(bus Bus, c *Config) *PLIC {
	if c == nil {
		c = DefaultConfig
	}
	if err := c.checkHarts(); err != nil {
		panic("plic: " + err.Error())
	}
	p := &PLIC{
		bus:       bus,
		variant:   c.variant,
		platform:  c.variant.Platform(),
		firstHart: c.firstHart,
		cpu2hart:  make(map[int]Hart, len(c.cpu2hart)),
		log:       c.logger,
	}
	for cpu, h := range c.cpu2hart {
		p.cpu2hart[cpu] = h
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

func (c *Config) harts() []Hart {
	harts := []Hart{c.firstHart}
	for _, h := range c.cpu2hart {
		harts = append(harts, h)
	}
	return harts
}

// checkHarts verifies that every configured hart has a supervisor context.
func (c *Config) checkHarts() error {
	pl := c.variant.Platform()
	for _, h := range c.harts() {
		if h < pl.MinHart {
			return fmt.Errorf("hart %d has no supervisor context on %s", h, pl.Name)
		}
	}
	return nil
}

// check verifies the harts, and that their registers lie inside the window.
func (c *Config) check() error {
	if err := c.checkHarts(); err != nil {
		return err
	}
	pl := c.variant.Platform()
	for _, h := range c.harts() {
		if end := int(pl.ClaimOffset(h, SupervisorContext)) + bytesPerWord; end > c.size {
			return fmt.Errorf("hart %d registers end at 0x%x, beyond window size 0x%x", h, end, c.size)
		}
	}
	return nil
}

// Close releases the register window if it was mapped by Open.
func (p *PLIC) Close() error {
	if p.window == nil {
		return nil
	}
	err := p.window.Close()
	p.window = nil
	if hw == p {
		hw = nil
	}
	return err
}

// Platform returns the layout data in use.
func (p *PLIC) Platform() Platform {
	return p.platform
}

// NumInterrupts returns the highest source ID.
func (p *PLIC) NumInterrupts() int {
	return p.platform.NumInterrupts
}

// Hart returns the hart ID of the logical CPU. With no CPU mapping
// (single core) every CPU resolves to the first hart. Once a mapping is
// configured, an unmapped CPU would share another hart's context, so
// Hart panics.
func (p *PLIC) Hart(cpu int) Hart {
	if len(p.cpu2hart) == 0 {
		return p.firstHart
	}
	h, ok := p.cpu2hart[cpu]
	if !ok {
		panic(fmt.Sprintf("plic: cpu %d has no hart mapping", cpu))
	}
	return h
}

// FirstHart returns the boot hart.
func (p *PLIC) FirstHart() Hart {
	return p.firstHart
}

// Pending returns true if s is set in the global pending bitmap.
// This is informational; only Claim establishes ownership of a source.
func (p *PLIC) Pending(s Source) bool {
	return p.bus.Read32(PendingOffset(s))&bit(s) != 0
}

// Mask disables (disable == true) or enables s for the supervisor context of hart h.
// The read-modify-write is unsynchronised: each hart only writes its own
// enable words, and no two harts' enable words overlap.
func (p *PLIC) Mask(h Hart, disable bool, s Source) {
	addr := p.platform.EnableWordOffset(h, SupervisorContext, s)
	v := p.bus.Read32(addr)
	if disable {
		v &^= bit(s)
	} else {
		v |= bit(s)
	}
	p.bus.Write32(addr, v)
}

// Enabled returns true if s is enabled for the supervisor context of hart h.
func (p *PLIC) Enabled(h Hart, s Source) bool {
	return p.bus.Read32(p.platform.EnableWordOffset(h, SupervisorContext, s))&bit(s) != 0
}

// SetPriority sets the priority of s. The priority table is shared by all harts.
func (p *PLIC) SetPriority(s Source, prio uint32) {
	p.bus.Write32(PriorityOffset(s), prio)
}

// Priority returns the priority of s.
func (p *PLIC) Priority(s Source) uint32 {
	return p.bus.Read32(PriorityOffset(s))
}

// SetThreshold sets the priority threshold of the supervisor context of hart h.
// Only sources with a priority above the threshold are delivered.
func (p *PLIC) SetThreshold(h Hart, t uint32) {
	p.bus.Write32(p.platform.ThresholdOffset(h, SupervisorContext), t)
}

// Threshold returns the priority threshold of the supervisor context of hart h.
func (p *PLIC) Threshold(h Hart) uint32 {
	return p.bus.Read32(p.platform.ThresholdOffset(h, SupervisorContext))
}

// Claim reads the claim register of the supervisor context of hart h.
// The hardware returns the highest priority pending source enabled for
// the context and clears its pending bit; the context then owns that
// source until Complete is called. 0 means nothing is pending.
func (p *PLIC) Claim(h Hart) Source {
	return Source(p.bus.Read32(p.platform.ClaimOffset(h, SupervisorContext)))
}

// Complete hands s back to the hardware by writing it to the claim register.
// s must be the source returned by the preceding Claim on the same hart,
// and must be completed exactly once.
func (p *PLIC) Complete(h Hart, s Source) {
	p.bus.Write32(p.platform.ClaimOffset(h, SupervisorContext), uint32(s))
}

// Service claims and completes sources for hart h until none remain,
// calling f with each claimed source before completing it.
// It returns the number of sources serviced. At most NumInterrupts
// sources are serviced per call, so a source that keeps re-triggering
// cannot hold the hart.
func (p *PLIC) Service(h Hart, f func(Source)) int {
	n := 0
	for n < p.platform.NumInterrupts {
		s := p.Claim(h)
		if s == 0 {
			break
		}
		f(s)
		p.Complete(h, s)
		n++
	}
	return n
}

// InitHart disables every source for the supervisor context of hart h,
// and sets its threshold to 0 so that any enabled source with a non-zero
// priority is delivered.
// It must be run on hart h before the hart enables external interrupts.
func (p *PLIC) InitHart(h Hart) {
	for i := 1; i <= p.platform.NumInterrupts; i++ {
		p.Mask(h, true, Source(i))
	}
	p.SetThreshold(h, 0)
	p.log.Debug("plic: hart initialised", "hart", h)
}

// InitController drains interrupts left pending by firmware and gives
// every source DefaultPriority.
// It must run exactly once, on the first hart, before any hart relies on
// the controller. Nothing guards against concurrent calls; the boot
// sequence has to ensure it.
func (p *PLIC) InitController() {
	h := p.firstHart
	drained := 0
	for i := 1; i <= p.platform.NumInterrupts; i++ {
		s := Source(i)
		// A claim returns the highest priority source, not necessarily s,
		// so keep claiming until s itself has been taken. Bounded in case
		// a level triggered source re-asserts on every completion.
		for n := 0; n < p.platform.NumInterrupts && p.Pending(s); n++ {
			c := p.Claim(h)
			if c == 0 {
				break
			}
			p.Complete(h, c)
			drained++
			p.log.Debug("plic: drained stale interrupt", "pending", s, "claimed", c)
		}
	}
	for i := 1; i <= p.platform.NumInterrupts; i++ {
		p.SetPriority(Source(i), DefaultPriority)
	}
	p.log.Info("plic: controller initialised", "platform", p.variant, "sources", p.platform.NumInterrupts, "drained", drained)
}

// Description returns a human readable string describing the PLIC
func (p *PLIC) Description() string {
	var s strings.Builder
	fmt.Fprintf(&s, "PLIC %s", p.platform.Name)
	fmt.Fprintf(&s, " %d sources", p.platform.NumInterrupts)
	if p.platform.SkipContexts != 0 {
		fmt.Fprintf(&s, " (%d context omitted)", p.platform.SkipContexts)
	}
	fmt.Fprintf(&s, " first hart %d", p.firstHart)
	return s.String()
}
