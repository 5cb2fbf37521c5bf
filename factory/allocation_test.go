package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/factory"
)

func TestParseSet(t *testing.T) {
	raw := `{
		"poolAmount": 150000000,
		"periodMonth": 3,
		"periodYear": 2025,
		"records": [
			{"recipientId": "bu-001", "method": "percentage", "value": 30},
			{"recipientId": "bu-002", "method": "fixed_amount", "value": "25000000.50"},
			{"recipientId": "bu-003", "method": "day_count", "value": 5}
		]
	}`

	set, err := factory.ParseSet([]byte(raw))
	require.NoError(t, err)

	assert.True(t, set.PoolAmount.Equal(decimal.NewFromInt(150000000)))
	assert.Equal(t, allocation.NewPeriod(2025, 3), set.Period())
	require.Len(t, set.Records, 3)
	assert.Equal(t, allocation.RecipientID("bu-002"), set.Records[1].RecipientID)
	assert.Equal(t, allocation.FixedAmount, set.Records[1].Method)
	assert.True(t, set.Records[1].Value.Equal(decimal.RequireFromString("25000000.5")))
	assert.Equal(t, allocation.DayCount, set.Records[2].Method)
}

func TestParseSet_Empty(t *testing.T) {
	set, err := factory.ParseSet(nil)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
	assert.NotNil(t, set.Records)
}

func TestParseSet_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"malformed", `{"records": [`, factory.ErrInvalidJSON},
		{"unknown method", `{"records": [{"recipientId": "bu-001", "method": "shares", "value": 1}]}`, allocation.ErrUnknownMethod},
		{"negative value", `{"records": [{"recipientId": "bu-001", "method": "percentage", "value": -5}]}`, allocation.ErrNegativeValue},
		{"negative pool", `{"poolAmount": -1, "records": []}`, allocation.ErrNegativeValue},
		{"bad month", `{"periodMonth": 13, "periodYear": 2025, "records": []}`, factory.ErrInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.ParseSet([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMarshalSet_NumericValues(t *testing.T) {
	set := allocation.Set{
		PoolAmount:  decimal.NewFromInt(80000000),
		PeriodMonth: 3,
		PeriodYear:  2025,
		Records: []allocation.Record{
			{RecipientID: "bu-001", RecipientName: "Retail", Method: allocation.Percentage, Value: decimal.RequireFromString("12.5")},
		},
	}

	raw, err := factory.MarshalSet(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"poolAmount": 80000000,
		"periodMonth": 3,
		"periodYear": 2025,
		"records": [{"recipientId": "bu-001", "method": "percentage", "value": 12.5}]
	}`, string(raw))

	back, err := factory.ParseSet(raw)
	require.NoError(t, err)
	assert.Empty(t, back.Records[0].RecipientName, "display names are not persisted")
	assert.True(t, back.Records[0].Value.Equal(set.Records[0].Value))
}

func TestMarshalSet_EmptyRecordsIsArray(t *testing.T) {
	raw, err := factory.MarshalSet(allocation.Set{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"poolAmount": 0, "periodMonth": 0, "periodYear": 0, "records": []}`, string(raw))
}
