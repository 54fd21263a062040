package funnel

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/value"
)

// LoadFile reads the funnels declared in one CUE file:
//
//	funnel: signup: {
//		dataSource:  "events"
//		intervals:   ["2024-01-01T00:00:00+0000/2024-02-01T00:00:00+0000"]
//		entityField: "user_id"
//		steps: [
//			{name: "visit", filter: {type: "selector", dimension: "event", value: "visit"}},
//			{name: "signup", filter: {type: "selector", dimension: "event", value: "signup"}},
//		]
//	}
func LoadFile(path string) ([]*Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompileError{Code: ErrCodeLoad, Message: err.Error()}
	}
	v := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileAll(v)
}

// LoadDir reads the funnels of the CUE package in dir.
func LoadDir(dir string) ([]*Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &CompileError{Code: ErrCodeLoad, Message: err.Error()}
	}
	if !info.IsDir() {
		return nil, &CompileError{Code: ErrCodeLoad, Message: "not a directory: " + dir}
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &CompileError{Code: ErrCodeLoad, Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &CompileError{Code: ErrCodeLoad, Message: "no CUE files found in " + dir}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Code: ErrCodeLoad, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &CompileError{Code: ErrCodeLoad, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileAll(v)
}

func compileAll(root cue.Value) ([]*Spec, error) {
	funnels := root.LookupPath(cue.ParsePath("funnel"))
	if !funnels.Exists() {
		return nil, &CompileError{Code: ErrCodeLoad, Message: "no funnel declarations found"}
	}
	iter, err := funnels.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []*Spec
	for iter.Next() {
		spec, err := CompileSpec(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CompileSpec reads one funnel declaration. The id is the struct label.
func CompileSpec(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		spec.ID = sels[len(sels)-1].String()
	}

	var err error
	if spec.DataSource, err = requiredString(v, "dataSource"); err != nil {
		return nil, err
	}
	if spec.EntityField, err = requiredString(v, "entityField"); err != nil {
		return nil, err
	}
	if spec.Intervals, err = intervals(v); err != nil {
		return nil, err
	}

	if g := v.LookupPath(cue.ParsePath("granularity")); g.Exists() {
		data, err := g.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if spec.Granularity, err = query.Granularities.Decode(data); err != nil {
			return nil, invalid("granularity", g, err)
		}
	}

	if spec.Filter, err = filter(v); err != nil {
		return nil, err
	}

	if size := v.LookupPath(cue.ParsePath("sketchSize")); size.Exists() {
		n, err := size.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.SketchSize = int(n)
	}

	if c := v.LookupPath(cue.ParsePath("context")); c.Exists() {
		spec.Context = &query.Context{}
		if err := c.Decode(spec.Context); err != nil {
			return nil, invalid("context", c, err)
		}
	}

	if spec.Steps, err = steps(v); err != nil {
		return nil, err
	}
	return spec, nil
}

func steps(v cue.Value) ([]Step, error) {
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{Code: ErrCodeMissingSteps, Field: "steps", Message: "steps is required", Pos: v.Pos()}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Step
	for iter.Next() {
		sv := iter.Value()
		name, err := requiredString(sv, "name")
		if err != nil {
			return nil, err
		}
		f, err := filter(sv)
		if err != nil {
			return nil, err
		}
		out = append(out, Step{Name: name, Filter: f})
	}
	if len(out) == 0 {
		return nil, &CompileError{Code: ErrCodeMissingSteps, Field: "steps", Message: "a funnel needs at least one step", Pos: stepsVal.Pos()}
	}
	return out, nil
}

// filter decodes the optional "filter" field of v through the filter family.
func filter(v cue.Value) (query.Filter, error) {
	fv := v.LookupPath(cue.ParsePath("filter"))
	if !fv.Exists() {
		return nil, nil
	}
	data, err := fv.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	f, err := query.Filters.Decode(data)
	if err != nil {
		return nil, invalid("filter", fv, err)
	}
	return f, nil
}

func intervals(v cue.Value) ([]value.Interval, error) {
	list := v.LookupPath(cue.ParsePath("intervals"))
	if !list.Exists() {
		return nil, &CompileError{Code: ErrCodeInvalidField, Field: "intervals", Message: "intervals is required", Pos: v.Pos()}
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []value.Interval
	for iter.Next() {
		text, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		iv, err := value.ParseInterval(text)
		if err != nil {
			return nil, invalid("intervals", iter.Value(), err)
		}
		out = append(out, iv)
	}
	if len(out) == 0 {
		return nil, &CompileError{Code: ErrCodeInvalidField, Field: "intervals", Message: "at least one interval is required", Pos: list.Pos()}
	}
	return out, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Code: ErrCodeInvalidField, Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Code: ErrCodeInvalidField, Field: field, Message: field + " must not be empty", Pos: fv.Pos()}
	}
	return s, nil
}

func invalid(field string, v cue.Value, err error) *CompileError {
	return &CompileError{Code: ErrCodeInvalidField, Field: field, Message: err.Error(), Pos: v.Pos()}
}
