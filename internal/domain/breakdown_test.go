package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolBreakdown_Derivation(t *testing.T) {
	b, err := NewPoolBreakdown("acc-1", "BRL", dec("500"), dec("50"), dec("20"), dec("120"))
	require.NoError(t, err)

	assert.True(t, b.Available.Equal(dec("380")), "available = real - exposure")
	assert.True(t, b.Operable.Equal(dec("450")), "operable = available + freebet + bonus")
	assert.Equal(t, Currency("BRL"), b.Currency)
}

func TestNewPoolBreakdown_NegativeAvailableIsFault(t *testing.T) {
	// exposure > real: doble gasto o settlement perdido — nunca se recorta
	_, err := NewPoolBreakdown("acc-1", "BRL", dec("100"), dec("0"), dec("0"), dec("150"))

	var fault *BalanceIntegrityFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "acc-1", fault.AccountID)
	assert.Contains(t, fault.Error(), "available")
}

func TestNewPoolBreakdown_NegativePoolIsFault(t *testing.T) {
	_, err := NewPoolBreakdown("acc-1", "BRL", dec("100"), dec("-5"), dec("0"), dec("0"))

	var fault *BalanceIntegrityFault
	require.True(t, errors.As(err, &fault))
	assert.Contains(t, fault.Error(), "FREEBET")
}

func TestNewPoolBreakdown_ZeroIsValid(t *testing.T) {
	b, err := NewPoolBreakdown("acc-1", "BRL", decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, b.Operable.IsZero())
}

func TestNewPoolBreakdown_AvailableExactlyZero(t *testing.T) {
	// Exposición igual al real es válido: available = 0, no es fault
	b, err := NewPoolBreakdown("acc-1", "BRL", dec("100"), dec("10"), dec("0"), dec("100"))
	require.NoError(t, err)
	assert.True(t, b.Available.IsZero())
	assert.True(t, b.Operable.Equal(dec("10")))
}
