package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLines_DropsZeroAmount(t *testing.T) {
	lines, err := buildLines(42, []OrderLineRequest{
		{ProductID: 1, Amount: 3, PerPrice: decimal.NewFromInt(5)},
		{ProductID: 2, Amount: 0, PerPrice: decimal.NewFromInt(9)},
		{ProductID: 3, Amount: 1, PerPrice: decimal.Zero},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, int64(3), lines[1].ProductID)
	for _, l := range lines {
		assert.Equal(t, int64(42), l.OrderID)
	}
}

func TestBuildLines_RejectsNegativeAmount(t *testing.T) {
	_, err := buildLines(1, []OrderLineRequest{
		{ProductID: 1, Amount: -2, PerPrice: decimal.NewFromInt(5)},
	})
	require.ErrorIs(t, err, ErrNegativeOrderLine)
}

func TestBuildLines_RejectsNegativePrice(t *testing.T) {
	_, err := buildLines(1, []OrderLineRequest{
		{ProductID: 1, Amount: 2, PerPrice: decimal.NewFromInt(-5)},
	})
	require.ErrorIs(t, err, ErrNegativeOrderLine)
}

func TestBuildLines_RejectsDuplicateProduct(t *testing.T) {
	_, err := buildLines(1, []OrderLineRequest{
		{ProductID: 1, Amount: 2, PerPrice: decimal.NewFromInt(5)},
		{ProductID: 1, Amount: 3, PerPrice: decimal.NewFromInt(6)},
	})
	require.ErrorIs(t, err, ErrDuplicateOrderLine)
}

func TestBuildLines_Empty(t *testing.T) {
	lines, err := buildLines(1, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
