// Package loader reads an x86-64 ELF binary into the named, based byte
// sections the engine copies into its concrete memory image. It owns
// nothing about symbolic state — that is the engine's job once the bytes
// are in hand.
package loader

import (
	"debug/elf"
	"fmt"
	"sort"
)

// Section is one loadable ELF section, trimmed to what the engine needs:
// a name (for diagnostics and the ".plt.sec" skip rule), the address the
// section wants to live at, and its on-disk bytes.
type Section struct {
	Name  string
	Base  uint64
	Bytes []byte
}

// Image is a loaded ELF file: its sections (already filtered down to the
// ones with actual bytes — SHT_NOBITS sections like .bss carry no bytes
// and are skipped, per the external-interface contract) plus the binary's
// recorded entry point and a name->address symbol table.
type Image struct {
	Sections []Section
	Entry    uint64
	Symbols  map[string]uint64
}

// Load opens path as an ELF file and returns its loadable sections and
// entry point. The entry point is informational only — callers typically
// pick their own start address and call Swimmer.SetPC explicitly.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	img := &Image{Entry: f.Entry, Symbols: make(map[string]uint64)}
	for _, sec := range f.Sections {
		if sec.Type == elf.SHT_NOBITS {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("loader: reading section %s: %w", sec.Name, err)
		}
		img.Sections = append(img.Sections, Section{Name: sec.Name, Base: sec.Addr, Bytes: data})
	}
	sort.Slice(img.Sections, func(i, j int) bool { return img.Sections[i].Base < img.Sections[j].Base })

	for _, symSrc := range []func() ([]elf.Symbol, error){f.Symbols, f.DynamicSymbols} {
		syms, err := symSrc()
		if err != nil {
			continue
		}
		for _, sym := range syms {
			if sym.Name == "" || sym.Value == 0 {
				continue
			}
			img.Symbols[sym.Name] = sym.Value
		}
	}
	return img, nil
}
