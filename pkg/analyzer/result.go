package analyzer

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Bottleneck is a read-only summary of one directly-follows transition:
// the slowest edges of the graph surface at the top of the ranking.
type Bottleneck struct {
	FromActivity string  `json:"from_activity"`
	ToActivity   string  `json:"to_activity"`
	AvgWaitHours float64 `json:"avg_wait_hours"`
	Frequency    int     `json:"frequency"`
}

// AnalysisResult is the engine's sole output: one immutable aggregate
// per analysis call. Consumers must treat it as read-only; it is safe
// to share across concurrent readers.
type AnalysisResult struct {
	NumCases      int `json:"n_cases"`
	NumEvents     int `json:"n_events"`
	NumActivities int `json:"n_activities"`
	NumVariants   int `json:"n_variants"`

	MedianDurationHours float64 `json:"median_duration_hours"`
	MeanDurationHours   float64 `json:"mean_duration_hours"`
	P90DurationHours    float64 `json:"p90_duration_hours"`
	MinDurationHours    float64 `json:"min_duration_hours"`
	MaxDurationHours    float64 `json:"max_duration_hours"`

	TopVariant          []string `json:"top_variant"`
	TopVariantFrequency float64  `json:"top_variant_frequency"`

	Bottlenecks []Bottleneck `json:"bottlenecks"`

	ReworkActivities []string `json:"rework_activities"`
	ReworkRate       float64  `json:"rework_rate"`

	ActivityFrequencies map[string]int `json:"activity_frequencies"`
}

// floatPrecision is the fixed decimal precision of the canonical form.
const floatPrecision = 6

// CanonicalJSON renders the result in its canonical textual form:
// fixed field order, floats at six decimal places, map keys sorted.
// Two analyses over identical input produce byte-identical output, so
// downstream rendering and comparison logic can diff results directly.
func (r *AnalysisResult) CanonicalJSON() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeInt(&buf, "n_cases", r.NumCases, true)
	writeInt(&buf, "n_events", r.NumEvents, false)
	writeInt(&buf, "n_activities", r.NumActivities, false)
	writeInt(&buf, "n_variants", r.NumVariants, false)

	writeFloat(&buf, "median_duration_hours", r.MedianDurationHours)
	writeFloat(&buf, "mean_duration_hours", r.MeanDurationHours)
	writeFloat(&buf, "p90_duration_hours", r.P90DurationHours)
	writeFloat(&buf, "min_duration_hours", r.MinDurationHours)
	writeFloat(&buf, "max_duration_hours", r.MaxDurationHours)

	writeStrings(&buf, "top_variant", r.TopVariant)
	writeFloat(&buf, "top_variant_frequency", r.TopVariantFrequency)

	buf.WriteString(`,"bottlenecks":[`)
	for i, b := range r.Bottlenecks {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"from_activity":`)
		writeString(&buf, b.FromActivity)
		buf.WriteString(`,"to_activity":`)
		writeString(&buf, b.ToActivity)
		buf.WriteString(`,"avg_wait_hours":`)
		buf.WriteString(formatFloat(b.AvgWaitHours))
		buf.WriteString(`,"frequency":`)
		buf.WriteString(strconv.Itoa(b.Frequency))
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	writeStrings(&buf, "rework_activities", r.ReworkActivities)
	writeFloat(&buf, "rework_rate", r.ReworkRate)

	buf.WriteString(`,"activity_frequencies":{`)
	keys := make([]string, 0, len(r.ActivityFrequencies))
	for k := range r.ActivityFrequencies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(r.ActivityFrequencies[k]))
	}
	buf.WriteString("}}")

	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', floatPrecision, 64)
}

func writeInt(buf *bytes.Buffer, field string, v int, first bool) {
	if !first {
		buf.WriteByte(',')
	}
	writeString(buf, field)
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(v))
}

func writeFloat(buf *bytes.Buffer, field string, v float64) {
	buf.WriteByte(',')
	writeString(buf, field)
	buf.WriteByte(':')
	buf.WriteString(formatFloat(v))
}

func writeStrings(buf *bytes.Buffer, field string, vals []string) {
	buf.WriteByte(',')
	writeString(buf, field)
	buf.WriteString(":[")
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, v)
	}
	buf.WriteByte(']')
}

// writeString writes a JSON-escaped string. json.Marshal on a string
// cannot fail, so the error is discarded.
func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
