package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"makersight/internal/events"
)

func TestParamReadsTypedValues(t *testing.T) {
	e := events.Event{ParamsJSON: `[
		{"key":"search_term","value":{"string_value":"walnut board"}},
		{"key":"engagement_time_msec","value":{"int_value":4500}},
		{"key":"score","value":{"double_value":1.5}}
	]`}

	assert.Equal(t, "walnut board", e.Param(events.ParamSearchTerm))
	assert.Equal(t, "4500", e.Param(events.ParamEngagementMsec))
	assert.Equal(t, "1.5", e.Param("score"))
	assert.Empty(t, e.Param("missing"))
}

func TestParamToleratesBadBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"empty", ""},
		{"not json", "{{{"},
		{"wrong shape", `{"key":"x"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := events.Event{ParamsJSON: tc.blob}
			assert.Empty(t, e.Param(events.ParamSearchTerm))
		})
	}
}

func TestNumericParam(t *testing.T) {
	e := events.Event{ParamsJSON: `[{"key":"engagement_time_msec","value":{"int_value":4500}}]`}

	v, ok := e.NumericParam(events.ParamEngagementMsec)
	assert.True(t, ok)
	assert.Equal(t, 4500.0, v)

	_, ok = e.NumericParam("missing")
	assert.False(t, ok)
}

func TestEncodeParamsRoundTrips(t *testing.T) {
	e := events.Event{ParamsJSON: events.EncodeParams(map[string]string{
		events.ParamFAQQuestion: "care instructions",
	})}
	assert.Equal(t, "care instructions", e.Param(events.ParamFAQQuestion))
}
