package models

import (
	"fmt"
	"strings"
	"sync"
)

// BitCount is the size of the closed territory set
const BitCount = 8

var (
	bitsMu sync.RWMutex
	bits   []string
)

// SetBits installs the territory labels. It is called once at start-up.
func SetBits(labels []string) error {
	cleaned := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if seen[l] {
			return fmt.Errorf("duplicate bit %q", l)
		}
		seen[l] = true
		cleaned = append(cleaned, l)
	}
	if len(cleaned) != BitCount {
		return fmt.Errorf("expected %d bits, got %d", BitCount, len(cleaned))
	}

	bitsMu.Lock()
	bits = cleaned
	bitsMu.Unlock()
	return nil
}

// Bits returns a copy of the territory labels
func Bits() []string {
	bitsMu.RLock()
	defer bitsMu.RUnlock()
	out := make([]string, len(bits))
	copy(out, bits)
	return out
}

// ValidBit reports whether b belongs to the territory set
func ValidBit(b string) bool {
	bitsMu.RLock()
	defer bitsMu.RUnlock()
	for _, known := range bits {
		if known == b {
			return true
		}
	}
	return false
}
