package funnel

import (
	"fmt"
	"slices"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
)

// Step is one stage of a funnel. A nil Filter matches every row.
type Step struct {
	Name   string       `json:"name"`
	Filter query.Filter `json:"filter,omitempty"`
}

// Spec describes a funnel over one data source.
//
// Step names are not required to be unique, but repeated names at different
// indexes still produce distinct output names because the index prefixes
// them.
type Spec struct {
	ID          string
	DataSource  string
	Intervals   []value.Interval
	Granularity query.Granularity // nil means "all"
	EntityField string            // column holding the entity id counted by the sketches
	Filter      query.Filter      // base filter applied to every step, may be nil
	Steps       []Step
	SketchSize  int // 0 leaves the engine default
	Context     *query.Context
}

// StepAggregator returns the name of the sketch aggregator of step i.
func StepAggregator(i int) string {
	return fmt.Sprintf("_funnel_step_%d", i)
}

// IntersectionName returns the name of the set operation feeding the
// estimate of step i. Step 0 has none.
func IntersectionName(i int) string {
	return fmt.Sprintf("_funnel_intersect_%d", i)
}

// OutputName returns the output column of step i.
func OutputName(i int, name string) string {
	return fmt.Sprintf("%d_%s", i, name)
}

// Compile lowers spec into a groupBy query. The only error is a spec with
// no steps. Intervals and context are copied; step and base filters are
// shared with spec.
func Compile(spec *Spec) (*query.GroupBy, error) {
	if len(spec.Steps) == 0 {
		return nil, &CompileError{Code: ErrCodeMissingSteps, Field: "steps", Message: "a funnel needs at least one step"}
	}

	n := len(spec.Steps)
	aggs := make(query.AggregatorList, n)
	posts := make(query.PostAggregatorList, n)
	stepFilters := make([]query.Filter, n)

	for i, step := range spec.Steps {
		f := step.Filter
		if f == nil {
			f = &query.TrueFilter{}
		}
		stepFilters[i] = f

		aggs[i] = &query.FilteredAggregator{
			Filter: f,
			Aggregator: &query.ThetaSketchAggregator{
				Name:      StepAggregator(i),
				FieldName: spec.EntityField,
				Size:      spec.SketchSize,
			},
		}
		posts[i] = estimate(i, step.Name, spec.SketchSize)
	}

	var where query.Filter = query.Or(stepFilters...)
	if spec.Filter != nil {
		where = query.And(spec.Filter, where)
	}

	var granularity query.Granularity = query.Simple("all")
	if spec.Granularity != nil {
		granularity = spec.Granularity
	}

	gb := &query.GroupBy{
		DataSource:       query.Table(spec.DataSource),
		Intervals:        slices.Clone(spec.Intervals),
		Granularity:      granularity,
		Filter:           where,
		Aggregations:     aggs,
		PostAggregations: posts,
	}
	if spec.Context != nil {
		gb.Context = spec.Context.Merge(nil)
	}
	return gb, nil
}

// estimate builds the post-aggregation for step i: the estimate of sketch 0
// for the first step, otherwise the estimate of the intersection of sketches
// 0 through i.
func estimate(i int, name string, size int) query.PostAggregator {
	if i == 0 {
		return &query.ThetaSketchEstimatePostAggregator{
			Name:  OutputName(0, name),
			Field: query.FieldAccess(StepAggregator(0)),
		}
	}

	fields := make(query.PostAggregatorList, i+1)
	for j := range fields {
		fields[j] = query.FieldAccess(StepAggregator(j))
	}
	return &query.ThetaSketchEstimatePostAggregator{
		Name: OutputName(i, name),
		Field: &query.ThetaSketchSetOpPostAggregator{
			Name:   IntersectionName(i),
			Func:   query.SetOpIntersect,
			Size:   size,
			Fields: fields,
		},
	}
}
