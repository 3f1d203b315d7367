package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
)

func TestDisplayScalars(t *testing.T) {
	assert.Equal(t, "42", interp.Display(interp.IntValue(42)))
	assert.Equal(t, "true", interp.Display(interp.BoolValue(true)))
	assert.Equal(t, "nothing", interp.Display(interp.NothingValue{}))
	assert.Equal(t, "3.5", interp.Display(interp.FloatValue(3.5)))
}

func TestDisplayListAndSet(t *testing.T) {
	items := []interp.Value{interp.IntValue(1), interp.IntValue(2)}
	assert.Equal(t, "[1, 2]", interp.Display(interp.ListValue{Items: &items}))
	assert.Equal(t, "{1, 2}", interp.Display(interp.SetValue{Items: &items}))
}

func TestDisplayDurationBuckets(t *testing.T) {
	assert.Equal(t, "500ns", interp.Display(interp.DurationValue(500)))
	assert.Equal(t, "2μs", interp.Display(interp.DurationValue(2_000)))
	assert.Equal(t, "3ms", interp.Display(interp.DurationValue(3_000_000)))
	assert.Equal(t, "4s", interp.Display(interp.DurationValue(4_000_000_000)))
	assert.Equal(t, "5min", interp.Display(interp.DurationValue(5*60_000_000_000)))
	assert.Equal(t, "2h", interp.Display(interp.DurationValue(2*3_600_000_000_000)))
	assert.Equal(t, "-3ms", interp.Display(interp.DurationValue(-3_000_000)))
}

func TestDisplaySpanPluralization(t *testing.T) {
	assert.Equal(t, "1 year", interp.Display(interp.SpanValue{Months: 12, Days: 0}))
	assert.Equal(t, "2 years and 1 month", interp.Display(interp.SpanValue{Months: 25, Days: 0}))
	assert.Equal(t, "0 days", interp.Display(interp.SpanValue{Months: 0, Days: 0}))
}

func TestDeepCloneProducesIndependentList(t *testing.T) {
	items := []interp.Value{interp.IntValue(1)}
	original := interp.ListValue{Items: &items}
	cloned := interp.DeepClone(original).(interp.ListValue)

	*cloned.Items = append(*cloned.Items, interp.IntValue(2))
	assert.Len(t, *original.Items, 1, "deep clone must not alias the original's backing slice")
	assert.Len(t, *cloned.Items, 2)
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, interp.IsTruthy(interp.IntValue(1)))
	assert.False(t, interp.IsTruthy(interp.IntValue(0)))
	assert.False(t, interp.IsTruthy(interp.NothingValue{}))
	assert.True(t, interp.IsTruthy(interp.TextValue("")))
}
