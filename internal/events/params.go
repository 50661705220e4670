package events

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Well-known event parameter keys.
const (
	ParamSearchTerm     = "search_term"
	ParamFAQQuestion    = "faq_question"
	ParamProductID      = "ecomm_prodid"
	ParamEngagementMsec = "engagement_time_msec"
)

// eventParam mirrors the export's param encoding: a list of key/value pairs
// where the value carries exactly one of several typed fields.
type eventParam struct {
	Key   string `json:"key"`
	Value struct {
		StringValue *string  `json:"string_value"`
		IntValue    *int64   `json:"int_value"`
		FloatValue  *float64 `json:"float_value"`
		DoubleValue *float64 `json:"double_value"`
	} `json:"value"`
}

// Param returns the string form of the named event parameter, or "" when the
// parameter is absent or the JSON is unparseable. Parameter blobs are an open
// extension map; only the boundary reads them.
func (e *Event) Param(key string) string {
	if e.ParamsJSON == "" {
		return ""
	}

	var params []eventParam
	if err := json.Unmarshal([]byte(e.ParamsJSON), &params); err != nil {
		return ""
	}

	for _, p := range params {
		if p.Key != key {
			continue
		}
		switch {
		case p.Value.StringValue != nil:
			return *p.Value.StringValue
		case p.Value.IntValue != nil:
			return strconv.FormatInt(*p.Value.IntValue, 10)
		case p.Value.FloatValue != nil:
			return strconv.FormatFloat(*p.Value.FloatValue, 'f', -1, 64)
		case p.Value.DoubleValue != nil:
			return strconv.FormatFloat(*p.Value.DoubleValue, 'f', -1, 64)
		}
	}
	return ""
}

// NumericParam returns the named parameter as a float, with ok=false when the
// parameter is absent or not numeric.
func (e *Event) NumericParam(key string) (float64, bool) {
	raw := e.Param(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EncodeParams builds a params JSON blob in the export's format. Used by the
// seeder and tests; ingestion always stores the blob exactly as exported.
func EncodeParams(values map[string]string) string {
	params := make([]eventParam, 0, len(values))
	for k, v := range values {
		p := eventParam{Key: k}
		s := v
		p.Value.StringValue = &s
		params = append(params, p)
	}
	out, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(out)
}
