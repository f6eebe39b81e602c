package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVATRateAliases(t *testing.T) {
	v := DefaultVocabulary()

	cases := map[string]float64{
		"isento":         0,
		"Isento":         0,
		"IVA isento":     0,
		"Taxa normal":    23,
		"reduzida":       6,
		"intermédia":     13,
		"autoliquidação": 0,
	}
	for in, want := range cases {
		got := v.ParseVATRate(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
}

func TestParseVATRateNumeric(t *testing.T) {
	v := DefaultVocabulary()

	cases := map[string]float64{
		"23%":     23,
		"IVA 13%": 13,
		"6":       6,
		"13,5":    13.5,
		"13.5%":   13.5,
		"0":       0,
	}
	for in, want := range cases {
		got := v.ParseVATRate(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
}

func TestParseVATRateNoMatch(t *testing.T) {
	v := DefaultVocabulary()

	assert.Nil(t, v.ParseVATRate("xyz"))
	assert.Nil(t, v.ParseVATRate(""))
	assert.Nil(t, v.ParseVATRate("   "))
	// out of range
	assert.Nil(t, v.ParseVATRate("230"))
}

func TestParseVATRateIdempotent(t *testing.T) {
	v := DefaultVocabulary()

	for _, in := range []string{"23%", "13,5", "isento", "6"} {
		first := v.ParseVATRate(in)
		require.NotNil(t, first)
		again := v.ParseVATRate(fmt.Sprintf("%g", *first))
		require.NotNil(t, again)
		assert.Equal(t, *first, *again)
	}
}

func TestParseVATRateStrict(t *testing.T) {
	v := DefaultVocabulary()

	got := v.ParseVATRateStrict("23%")
	require.NotNil(t, got)
	assert.Equal(t, 23.0, *got)

	// near-miss within tolerance snaps to the legal rate
	got = v.ParseVATRateStrict("22.999")
	require.NotNil(t, got)
	assert.Equal(t, 23.0, *got)

	// mid-range value is not a legal rate
	assert.Nil(t, v.ParseVATRateStrict("17%"))
	assert.Nil(t, v.ParseVATRateStrict("xyz"))
}
