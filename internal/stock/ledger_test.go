package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvert(t *testing.T) {
	deltas := []Delta{
		{ProductID: 1, Quantity: -3},
		{ProductID: 2, Quantity: 5},
		{ProductID: 1, Quantity: -2},
	}

	inverted := Invert(deltas)

	require.Equal(t, []Delta{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: -5},
		{ProductID: 1, Quantity: 2},
	}, inverted)

	// Original slice is untouched.
	require.Equal(t, int64(-3), deltas[0].Quantity)
}

func TestInvertRoundTrip(t *testing.T) {
	deltas := []Delta{{ProductID: 7, Quantity: 4}, {ProductID: 9, Quantity: -1}}
	require.Equal(t, deltas, Invert(Invert(deltas)))
}

func TestInvertEmpty(t *testing.T) {
	require.Empty(t, Invert(nil))
}
