package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

type scheduleCommand struct {
	Name     string    `validate:"required,max=5"`
	Start    time.Time `validate:"required"`
	End      time.Time `validate:"required,gtfield=Start"`
	Progress int       `validate:"gte=0,lte=100"`
}

func TestRules(t *testing.T) {
	rules := Rules[scheduleCommand](nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	failures, err := rules.Validate(context.Background(), scheduleCommand{
		Name: "ok", Start: start, End: start.Add(time.Hour), Progress: 50,
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	failures, err = rules.Validate(context.Background(), scheduleCommand{
		Name: "too long", Start: start, End: start, Progress: 101,
	})
	require.NoError(t, err)

	byField := map[string]string{}
	for _, f := range failures {
		byField[f.Property] = f.Message
	}
	assert.Equal(t, map[string]string{
		"Name":     "Name must not exceed 5 characters.",
		"End":      "End must be after Start.",
		"Progress": "Progress must be less than or equal to 100.",
	}, byField)
}

type priceCommand struct {
	Amount decimal.Decimal `validate:"gt=0"`
}

func TestRules_DecimalAmounts(t *testing.T) {
	rules := Rules[priceCommand](nil)

	failures, err := rules.Validate(context.Background(), priceCommand{Amount: decimal.RequireFromString("0.01")})
	require.NoError(t, err)
	assert.Empty(t, failures)

	failures, err = rules.Validate(context.Background(), priceCommand{})
	require.NoError(t, err)
	assert.Equal(t, []apperr.Failure{{Property: "Amount", Message: "Amount must be greater than 0."}}, failures)
}
