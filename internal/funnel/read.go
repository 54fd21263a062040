package funnel

import (
	"github.com/roach88/druidkit/internal/result"
	"github.com/roach88/druidkit/internal/value"
)

// StepCount is the number of entities that reached one step.
type StepCount struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Count float64 `json:"count"`
	// Conversion is Count relative to step 0, or 0 when step 0 is empty.
	Conversion float64 `json:"conversion"`
}

// Report holds the step counts of one time bucket.
type Report struct {
	Timestamp value.Timestamp `json:"timestamp"`
	Steps     []StepCount     `json:"steps"`
}

// Read extracts the step counts of every row of a compiled funnel's result.
//
// A missing or null output counts as 0. Counts never increase along the
// funnel: sketch estimates of nested intersections can drift above the
// previous step, so each count is capped by the one before it. A step that
// matched nothing is therefore 0 for every later step as well.
func Read(spec *Spec, res *result.GroupBy) []Report {
	reports := make([]Report, len(res.Rows))
	for r, row := range res.Rows {
		steps := make([]StepCount, len(spec.Steps))
		for i, step := range spec.Steps {
			count, _ := row.Event.Float(OutputName(i, step.Name))
			if i > 0 && count > steps[i-1].Count {
				count = steps[i-1].Count
			}
			steps[i] = StepCount{Index: i, Name: step.Name, Count: count}
			if first := steps[0].Count; first > 0 {
				steps[i].Conversion = count / first
			}
		}
		reports[r] = Report{Timestamp: row.Timestamp, Steps: steps}
	}
	return reports
}
