package telemetry

import (
	"context"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	LabelOperation = "operation"
	LabelJob       = "job"
	LabelRoute     = "route"
	LabelMethod    = "method"
	LabelArea      = "area"
)

// maxLabelValueLength bounds label values
const maxLabelValueLength = 128

// unlabelled keys would give every request its own profile series
var unlabelled = map[string]bool{
	"request_id": true,
	"trace_id":   true,
	"span_id":    true,
	"tenant_id":  true,
	"receipt":    true,
}

// WithProfilingLabels runs fn with pprof labels that Pyroscope uses to
// slice profiles. Empty and per-request keys are dropped and long values
// truncated.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into sorted key, value pairs
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "" || v == "" || unlabelled[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := labels[k]
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
