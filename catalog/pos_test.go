package catalog

import "testing"

func TestVColPosRoundTrip(t *testing.T) {
	cases := []struct{ v, i uint16 }{
		{0, 0},
		{1, 0},
		{0, 1},
		{5, 200},
		{0xFFFF, 0xFFFF},
	}
	for _, c := range cases {
		pos := EncodeVColPos(c.v, c.i)
		gotV, gotI := DecodeVColPos(pos)
		if gotV != c.v || gotI != c.i {
			t.Errorf("EncodeVColPos(%d,%d)=%#x decoded to (%d,%d)", c.v, c.i, pos, gotV, gotI)
		}
	}
}

func TestFieldsPosLegacyRoundTrip(t *testing.T) {
	for ordinal := 0; ordinal < 20; ordinal++ {
		pos := EncodeFieldsPosLegacy(ordinal)
		if IsWideFieldsPos(pos) {
			t.Fatalf("legacy pos %#x for ordinal %d reported wide", pos, ordinal)
		}
		if got := DecodeFieldsPosLegacy(pos); got != ordinal {
			t.Errorf("DecodeFieldsPosLegacy(%#x) = %d, want %d", pos, got, ordinal)
		}
	}
}

func TestFieldsPosWideRoundTrip(t *testing.T) {
	cases := []struct {
		ordinal    int
		descending bool
		prefixLen  int
	}{
		{0, false, 0},
		{1, true, 0},
		{3, false, 255},
		{7, true, 100},
	}
	for _, c := range cases {
		pos := EncodeFieldsPosWide(c.ordinal, c.descending, c.prefixLen)
		if c.ordinal != 0 || c.descending || c.prefixLen != 0 {
			if !IsWideFieldsPos(pos) {
				t.Fatalf("wide pos %#x for %+v not detected as wide", pos, c)
			}
		}
		gotOrdinal, gotDesc, gotPrefix := DecodeFieldsPosWide(pos)
		if gotOrdinal != c.ordinal || gotDesc != c.descending || gotPrefix != c.prefixLen {
			t.Errorf("round trip of %+v = (%d,%v,%d)", c, gotOrdinal, gotDesc, gotPrefix)
		}
	}
}

func TestEncodeNColRoundTrip(t *testing.T) {
	cases := []struct {
		nUserCols, nVCols int
		compact           bool
	}{
		{0, 0, false},
		{3, 0, true},
		{10, 2, true},
		{0xFFFF, 0x7FFF, false},
	}
	for _, c := range cases {
		v := EncodeNCol(c.nUserCols, c.nVCols, c.compact)
		gotUser, gotV, gotCompact := DecodeNCol(v)
		if gotUser != c.nUserCols || gotV != c.nVCols || gotCompact != c.compact {
			t.Errorf("EncodeNCol(%d,%d,%v)=%#x decoded to (%d,%d,%v)",
				c.nUserCols, c.nVCols, c.compact, v, gotUser, gotV, gotCompact)
		}
	}
}
