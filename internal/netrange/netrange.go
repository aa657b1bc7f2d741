// Package netrange answers coverage questions about lists of CIDR ranges, such
// as whether an allow-list spans the whole IPv4 or IPv6 address space.
package netrange

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// Family selects an address family.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

var (
	// ErrInvalidCIDR is returned when a range cannot be parsed.
	ErrInvalidCIDR = errors.New("invalid CIDR range")
	// ErrFamilyMismatch is returned when a range belongs to the other address family.
	ErrFamilyMismatch = errors.New("CIDR range has the wrong address family")
)

// Parse parses raw CIDR strings and checks that each one belongs to family.
// Host bits are masked off.
func Parse(family Family, cidrs []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, raw := range cidrs {
		prefix, err := parsePrefix(raw)
		if err != nil {
			return nil, err
		}
		if familyOf(prefix) != family {
			return nil, fmt.Errorf("%w: %q is not %s", ErrFamilyMismatch, raw, family)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// ParseOne parses a single range of the given family.
func ParseOne(family Family, cidr string) (netip.Prefix, error) {
	prefixes, err := Parse(family, []string{cidr})
	if err != nil {
		return netip.Prefix{}, err
	}
	return prefixes[0], nil
}

// Covers reports whether the union of cidrs spans the entire address space of family.
func Covers(family Family, cidrs []string) (bool, error) {
	gap, err := FirstGap(family, cidrs)
	if err != nil {
		return false, err
	}
	return !gap.IsValid(), nil
}

// FirstGap returns the lowest address of family not covered by cidrs. The
// returned address is invalid when the ranges cover the whole space.
func FirstGap(family Family, cidrs []string) (netip.Addr, error) {
	prefixes, err := Parse(family, cidrs)
	if err != nil {
		return netip.Addr{}, err
	}

	sort.Slice(prefixes, func(i, j int) bool {
		return prefixes[i].Addr().Less(prefixes[j].Addr())
	})

	next := firstAddr(family)
	for _, prefix := range prefixes {
		start := prefix.Addr()
		if next.Less(start) {
			return next, nil
		}
		end := lastAddr(prefix)
		if end.Less(next) {
			continue
		}
		next = end.Next()
		if !next.IsValid() {
			// end was the highest address of the family
			return netip.Addr{}, nil
		}
	}
	return next, nil
}

func parsePrefix(raw string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, raw)
	}
	return prefix, nil
}

func familyOf(prefix netip.Prefix) Family {
	if prefix.Addr().Is4() {
		return IPv4
	}
	return IPv6
}

func firstAddr(family Family) netip.Addr {
	if family == IPv4 {
		return netip.AddrFrom4([4]byte{})
	}
	return netip.AddrFrom16([16]byte{})
}

func lastAddr(prefix netip.Prefix) netip.Addr {
	bits := prefix.Bits()
	if prefix.Addr().Is4() {
		raw := prefix.Addr().As4()
		setHostBits(raw[:], bits)
		return netip.AddrFrom4(raw)
	}
	raw := prefix.Addr().As16()
	setHostBits(raw[:], bits)
	return netip.AddrFrom16(raw)
}

func setHostBits(raw []byte, prefixBits int) {
	for i := range raw {
		switch {
		case prefixBits >= 8:
			prefixBits -= 8
		case prefixBits > 0:
			raw[i] |= 0xff >> prefixBits
			prefixBits = 0
		default:
			raw[i] = 0xff
		}
	}
}
