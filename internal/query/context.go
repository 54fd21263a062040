package query

// Context carries per-query execution settings. Zero fields are omitted so
// the engine applies its own defaults.
type Context struct {
	QueryID                  string `json:"queryId,omitempty"`
	Timeout                  int64  `json:"timeout,omitempty"`
	Priority                 int    `json:"priority,omitempty"`
	Lane                     string `json:"lane,omitempty"`
	UseCache                 *bool  `json:"useCache,omitempty"`
	PopulateCache            *bool  `json:"populateCache,omitempty"`
	UseResultLevelCache      *bool  `json:"useResultLevelCache,omitempty"`
	PopulateResultLevelCache *bool  `json:"populateResultLevelCache,omitempty"`
	Finalize                 *bool  `json:"finalize,omitempty"`
	SkipEmptyBuckets         bool   `json:"skipEmptyBuckets,omitempty"`
	MinTopNThreshold         int    `json:"minTopNThreshold,omitempty"`
	MaxScatterGatherBytes    int64  `json:"maxScatterGatherBytes,omitempty"`
	SQLTimeZone              string `json:"sqlTimeZone,omitempty"`
}

// Merge returns c with every non-zero field of other applied on top.
// Either side may be nil.
func (c *Context) Merge(other *Context) *Context {
	var out Context
	if c != nil {
		out = *c
	}
	if other == nil {
		return &out
	}
	if other.QueryID != "" {
		out.QueryID = other.QueryID
	}
	if other.Timeout != 0 {
		out.Timeout = other.Timeout
	}
	if other.Priority != 0 {
		out.Priority = other.Priority
	}
	if other.Lane != "" {
		out.Lane = other.Lane
	}
	if other.UseCache != nil {
		out.UseCache = other.UseCache
	}
	if other.PopulateCache != nil {
		out.PopulateCache = other.PopulateCache
	}
	if other.UseResultLevelCache != nil {
		out.UseResultLevelCache = other.UseResultLevelCache
	}
	if other.PopulateResultLevelCache != nil {
		out.PopulateResultLevelCache = other.PopulateResultLevelCache
	}
	if other.Finalize != nil {
		out.Finalize = other.Finalize
	}
	if other.SkipEmptyBuckets {
		out.SkipEmptyBuckets = true
	}
	if other.MinTopNThreshold != 0 {
		out.MinTopNThreshold = other.MinTopNThreshold
	}
	if other.MaxScatterGatherBytes != 0 {
		out.MaxScatterGatherBytes = other.MaxScatterGatherBytes
	}
	if other.SQLTimeZone != "" {
		out.SQLTimeZone = other.SQLTimeZone
	}
	return &out
}
