package dict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldMapOrdinaryEntryRoundTrip(t *testing.T) {
	for ordinal := 0; ordinal < 100; ordinal++ {
		entry := EncodeFieldMapEntry(ordinal)
		dropped, notNull, hint := DecodeFieldMapEntry(entry)
		require.False(t, dropped)
		require.False(t, notNull)
		require.EqualValues(t, ordinal, hint)
	}
}

func TestFieldMapDroppedEntryRoundTrip(t *testing.T) {
	cases := []struct {
		fixedLen   int
		notNull    bool
		wantedHint uint16
	}{
		{0, false, BigFieldHint},
		{0, true, BigFieldHint},
		{8, false, 9},
		{8, true, 9},
		{int(BigFieldHint), true, BigFieldHint},
	}
	for _, c := range cases {
		entry := EncodeDroppedFieldMapEntry(c.fixedLen, c.notNull)
		dropped, notNull, hint := DecodeFieldMapEntry(entry)
		require.True(t, dropped)
		require.Equal(t, c.notNull, notNull)
		require.Equal(t, c.wantedHint, hint)
	}
}

func TestFieldMapHintSaturatesAtBigFieldHint(t *testing.T) {
	entry := EncodeDroppedFieldMapEntry(1<<20, false)
	_, _, hint := DecodeFieldMapEntry(entry)
	require.EqualValues(t, BigFieldHint, hint)
}
