package saccr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionDelta_DegenerateAtZeroExpiry(t *testing.T) {
	// T=0: Φ is replaced by sign(callPut*ln(P/K)).
	d, err := optionDelta(1, 1, 110, 100, 0, supervisoryVolFX) // in the money call
	assert.NoError(t, err)
	assert.Equal(t, 1.0, d)

	d, err = optionDelta(1, 1, 90, 100, 0, supervisoryVolFX) // out of the money call
	assert.NoError(t, err)
	assert.Equal(t, -1.0, d)
}

func TestOptionDelta_SignFlipsWithBoughtSoldAndCallPut(t *testing.T) {
	long, err := optionDelta(1, 1, 100, 100, 1, supervisoryVolEquityIndex)
	assert.NoError(t, err)
	short, err := optionDelta(1, -1, 100, 100, 1, supervisoryVolEquityIndex)
	assert.NoError(t, err)
	assert.Equal(t, -long, short)

	call, err := optionDelta(1, 1, 100, 100, 1, supervisoryVolEquityIndex)
	assert.NoError(t, err)
	put, err := optionDelta(-1, 1, 100, 100, 1, supervisoryVolEquityIndex)
	assert.NoError(t, err)
	assert.InDelta(t, call-1, put, 1e-12) // put delta = -Φ(-x) = Φ(x) - 1
}

func TestOptionDelta_ZeroStrikeIsAnError(t *testing.T) {
	_, err := optionDelta(1, 1, 100, 0, 1, supervisoryVolFX)
	assert.Error(t, err)
}

func TestOptionDelta_ZeroVolIsAnError(t *testing.T) {
	_, err := optionDelta(1, 1, 100, 100, 1, 0)
	assert.Error(t, err)
}

func TestOptionDelta_NegativeTimeIsAnError(t *testing.T) {
	_, err := optionDelta(1, 1, 100, 100, -1, supervisoryVolFX)
	assert.Error(t, err)
}

func TestOptionDelta_NullExpiryIsAnError(t *testing.T) {
	_, err := optionDelta(1, 1, 100, 100, math.NaN(), supervisoryVolFX)
	assert.Error(t, err)
}

func TestOptionDelta_NullPriceOrStrikeIsAnError(t *testing.T) {
	_, err := optionDelta(1, 1, math.NaN(), 100, 1, supervisoryVolFX)
	assert.Error(t, err)

	_, err = optionDelta(1, 1, 100, math.NaN(), 1, supervisoryVolFX)
	assert.Error(t, err)
}

func TestOptionDelta_BoundedByOne(t *testing.T) {
	d, err := optionDelta(1, 1, 1_000_000, 1, 5, supervisoryVolEquitySingle)
	assert.NoError(t, err)
	assert.LessOrEqual(t, math.Abs(d), 1.0)
}

func TestPhi_StandardNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, Phi(0), 1e-9)
	assert.InDelta(t, 1.0, Phi(10), 1e-6)
	assert.InDelta(t, 0.0, Phi(-10), 1e-6)
}
