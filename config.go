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
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Variant selects one of the known PLIC address layouts.
type Variant int

const (
	Generic Variant = iota // 511 sources, every context present
	HiFive                 // SiFive U54-MC: 53 sources, hart 0 has no S-mode context
)

// Default physical placement of the register window.
const (
	DefaultBase   = 0x0C000000
	DefaultSize   = 0x04000000
	DefaultDevice = "/dev/mem"
)

// Platform carries the per-variant layout data.
// SkipContexts is the number of contexts the hardware omits at the start of
// the context numbering; enable and threshold offsets are pulled back by
// that many context strides. Harts below MinHart have no context the
// adjusted layout can address.
type Platform struct {
	Name          string
	NumInterrupts int
	SkipContexts  uint32
	MinHart       Hart
}

var platforms = map[Variant]Platform{
	Generic: {Name: "generic", NumInterrupts: 511},
	HiFive:  {Name: "hifive", NumInterrupts: 53, SkipContexts: 1, MinHart: 1},
}

// Platform returns the layout data for the variant.
func (v Variant) Platform() Platform {
	p, ok := platforms[v]
	if !ok {
		panic(fmt.Sprintf("plic: unknown variant %d", int(v)))
	}
	return p
}

func (v Variant) String() string {
	if p, ok := platforms[v]; ok {
		return p.Name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps a platform name onto a Variant.
func ParseVariant(s string) (Variant, error) {
	for v, p := range platforms {
		if strings.EqualFold(p.Name, s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// Config contains the board configuration for the PLIC.
// A configuration is built through config methods on this structure e.g:
//
//	c := NewConfig()
//	c.Platform(plic.HiFive).FirstHart(1)
//	c.CPU2Hart(0, 1).CPU2Hart(1, 2)
//	p, err := plic.Open(c)
type Config struct {
	variant   Variant
	base      uintptr
	size      int
	device    string
	firstHart Hart
	cpu2hart  map[int]Hart
	logger    *slog.Logger
}

// The default config.
// The default configuration is the generic layout at the standard
// physical address, with hart 0 as the boot hart and no CPU mapping,
// so that every CPU resolves to hart 0.
var DefaultConfig *Config

func init() {
	DefaultConfig = NewConfig()
}

// NewConfig creates a Config holding the defaults.
func NewConfig() *Config {
	c := new(Config)
	c.Clear()
	return c
}

// Clear resets the configuration
func (c *Config) Clear() *Config {
	c.variant = Generic
	c.base = DefaultBase
	c.size = DefaultSize
	c.device = DefaultDevice
	c.firstHart = 0
	c.cpu2hart = make(map[int]Hart)
	c.logger = nil
	return c
}

// Platform selects the address layout variant.
func (c *Config) Platform(v Variant) *Config {
	c.variant = v
	return c
}

// Window sets the physical base address and length of the register window,
// and the device used to map it.
func (c *Config) Window(device string, base uintptr, size int) *Config {
	c.device = device
	c.base = base
	c.size = size
	return c
}

// FirstHart sets the hart that boots the system. It is the hart used
// by InitController, and the hart every CPU resolves to when no
// CPU mapping is present.
func (c *Config) FirstHart(h Hart) *Config {
	c.firstHart = h
	return c
}

// CPU2Hart maps a logical CPU index to its hart ID.
// Once any CPU is mapped, every CPU in use must be mapped.
func (c *Config) CPU2Hart(cpu int, h Hart) *Config {
	c.cpu2hart[cpu] = h
	return c
}

// Logger sets the logger used by the driver. The default is slog.Default().
func (c *Config) Logger(l *slog.Logger) *Config {
	c.logger = l
	return c
}

// boardFile is the on-disk form of a Config.
type boardFile struct {
	Platform  string         `yaml:"platform"`
	Device    string         `yaml:"device"`
	Base      *uint64        `yaml:"base"`
	Size      *int           `yaml:"size"`
	FirstHart uint32         `yaml:"first_hart"`
	Harts     map[int]uint32 `yaml:"harts"` // CPU index -> hart ID
}

// ParseConfig decodes a YAML board description e.g:
//
//	platform: hifive
//	base: 0x0c000000
//	size: 0x4000000
//	first_hart: 1
//	harts: {0: 1, 1: 2, 2: 3, 3: 4}
//
// Missing fields keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	var b boardFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("board config: %v", err)
	}
	c := NewConfig()
	if b.Platform != "" {
		v, err := ParseVariant(b.Platform)
		if err != nil {
			return nil, fmt.Errorf("board config: %v", err)
		}
		c.Platform(v)
	}
	if b.Device != "" {
		c.device = b.Device
	}
	if b.Base != nil {
		c.base = uintptr(*b.Base)
	}
	if b.Size != nil {
		if *b.Size <= 0 {
			return nil, fmt.Errorf("board config: invalid size %d", *b.Size)
		}
		c.size = *b.Size
	}
	c.FirstHart(Hart(b.FirstHart))
	for cpu, h := range b.Harts {
		c.CPU2Hart(cpu, Hart(h))
	}
	return c, nil
}

// LoadConfig reads a YAML board description from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return c, nil
}
