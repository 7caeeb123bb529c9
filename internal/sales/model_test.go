package sales

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name     string
		total    float64
		payments float64
		want     PaymentStatus
	}{
		{"nothing paid", 100, 0, PaymentStatusUnpaid},
		{"partially paid", 100, 40, PaymentStatusPartial},
		{"fully paid", 100, 100, PaymentStatusPaid},
		{"overshoot within tolerance", 100, 100.00005, PaymentStatusPaid},
		{"just under total within tolerance", 100, 99.99995, PaymentStatusPaid},
		{"just under total outside tolerance", 100, 99.99, PaymentStatusPartial},
		{"zero total with zero payments", 0, 0, PaymentStatusPaid},
		{"tiny payment", 100, 0.01, PaymentStatusPartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DerivePaymentStatus(tc.total, tc.payments))
		})
	}
}

func TestOutboundDeltasNegateQuantities(t *testing.T) {
	items := []SaleItem{
		{ProductID: 1, Quantity: 3, Price: 10},
		{ProductID: 2, Quantity: 5, Price: 2},
	}
	deltas := outboundDeltas(items)
	require.Len(t, deltas, 2)
	require.Equal(t, int64(-3), deltas[0].Quantity)
	require.Equal(t, int64(-5), deltas[1].Quantity)

	reversed := inboundDeltas(items)
	require.Equal(t, int64(3), reversed[0].Quantity)
	require.Equal(t, int64(5), reversed[1].Quantity)
}
