package numbering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatZeroPadding(t *testing.T) {
	require.Equal(t, "INV-0007", Format("INV-", 7))
	require.Equal(t, "CB-0001", Format("CB-", 1))
	require.Equal(t, "INV-9999", Format("INV-", 9999))
	// Past four digits the number keeps growing without truncation.
	require.Equal(t, "INV-10000", Format("INV-", 10000))
}

func TestKindValidation(t *testing.T) {
	require.True(t, KindInvoice.Valid())
	require.True(t, KindCashBill.Valid())
	require.False(t, Kind("purchase").Valid())
}

func TestDefaultPrefixes(t *testing.T) {
	require.Equal(t, "INV-", KindInvoice.DefaultPrefix())
	require.Equal(t, "CB-", KindCashBill.DefaultPrefix())
}

func TestDocumentNumberString(t *testing.T) {
	n := DocumentNumber{Prefix: "INV-", Number: 42}
	require.Equal(t, "INV-0042", n.String())
}
