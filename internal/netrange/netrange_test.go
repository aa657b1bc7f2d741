package netrange

import (
	"errors"
	"testing"
)

func TestCovers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		family Family
		cidrs  []string
		want   bool
	}{
		{
			name:   "IPv4HalvesCoverEverything",
			family: IPv4,
			cidrs:  []string{"0.0.0.0/1", "128.0.0.0/1"},
			want:   true,
		},
		{
			name:   "IPv4HalvesInReverseOrder",
			family: IPv4,
			cidrs:  []string{"128.0.0.0/1", "0.0.0.0/1"},
			want:   true,
		},
		{
			name:   "IPv4SingleDefaultRoute",
			family: IPv4,
			cidrs:  []string{"0.0.0.0/0"},
			want:   true,
		},
		{
			name:   "IPv4MissingUpperHalf",
			family: IPv4,
			cidrs:  []string{"0.0.0.0/1"},
			want:   false,
		},
		{
			name:   "IPv4OverlappingRanges",
			family: IPv4,
			cidrs:  []string{"0.0.0.0/2", "0.0.0.0/1", "64.0.0.0/2", "128.0.0.0/1"},
			want:   true,
		},
		{
			name:   "IPv4Empty",
			family: IPv4,
			cidrs:  nil,
			want:   false,
		},
		{
			name:   "IPv6ExpandedHalves",
			family: IPv6,
			cidrs: []string{
				"0000:0000:0000:0000:0000:0000:0000:0000/1",
				"8000:0000:0000:0000:0000:0000:0000:0000/1",
			},
			want: true,
		},
		{
			name:   "IPv6GapInMiddle",
			family: IPv6,
			cidrs:  []string{"::/2", "8000::/1"},
			want:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Covers(tc.family, tc.cidrs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFirstGapReportsLowestUncoveredAddress(t *testing.T) {
	t.Parallel()

	gap, err := FirstGap(IPv4, []string{"0.0.0.0/2", "128.0.0.0/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gap.String() != "64.0.0.0" {
		t.Fatalf("expected gap at 64.0.0.0, got %s", gap)
	}

	gap, err = FirstGap(IPv6, []string{"::/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gap.String() != "8000::" {
		t.Fatalf("expected gap at 8000::, got %s", gap)
	}
}

func TestParseRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := Parse(IPv4, []string{"300.0.0.0/1"}); !errors.Is(err, ErrInvalidCIDR) {
		t.Fatalf("expected ErrInvalidCIDR, got %v", err)
	}
	if _, err := Parse(IPv4, []string{"10.0.0.0"}); !errors.Is(err, ErrInvalidCIDR) {
		t.Fatalf("expected ErrInvalidCIDR for missing prefix length, got %v", err)
	}
	if _, err := Parse(IPv4, []string{"::/1"}); !errors.Is(err, ErrFamilyMismatch) {
		t.Fatalf("expected ErrFamilyMismatch, got %v", err)
	}
	if _, err := Parse(IPv6, []string{"0.0.0.0/1"}); !errors.Is(err, ErrFamilyMismatch) {
		t.Fatalf("expected ErrFamilyMismatch, got %v", err)
	}
}

func TestParseMasksHostBits(t *testing.T) {
	t.Parallel()

	prefix, err := ParseOne(IPv4, "10.1.2.3/8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix.String() != "10.0.0.0/8" {
		t.Fatalf("expected masked prefix, got %s", prefix)
	}
}
