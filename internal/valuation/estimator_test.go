package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWalkEstimator(t *testing.T) {
	e := NewWalkEstimator()
	anchor := dec("50000")
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("deterministic per symbol and date", func(t *testing.T) {
		a := e.Estimate("BTC", date, anchor)
		b := e.Estimate("BTC", date, anchor)
		assert.True(t, a.Equal(b))
	})

	t.Run("varies across dates and symbols", func(t *testing.T) {
		a := e.Estimate("BTC", date, anchor)
		b := e.Estimate("BTC", date.AddDate(0, 0, 1), anchor)
		c := e.Estimate("ETH", date, anchor)
		assert.False(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})

	t.Run("stays within the drift bound", func(t *testing.T) {
		low := dec("45000")
		high := dec("55000")
		for i := 0; i < 60; i++ {
			p := e.Estimate("BTC", date.AddDate(0, 0, i), anchor)
			assert.True(t, p.GreaterThanOrEqual(low) && p.LessThanOrEqual(high), "estimate %s out of bounds", p)
		}
	})

	t.Run("zero anchor yields zero", func(t *testing.T) {
		assert.True(t, e.Estimate("BTC", date, decimal.Zero).IsZero())
		assert.True(t, e.Estimate("BTC", date, dec("-1")).IsZero())
	})
}
