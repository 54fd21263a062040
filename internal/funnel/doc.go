// Package funnel lowers a conversion funnel into a native groupBy query.
//
// A funnel is an ordered list of steps, each selecting rows with a filter.
// An entity has "reached step i" when it appears in the rows of every step
// from 0 through i. Compile expresses this with one theta sketch per step
// and, for every step after the first, an estimate over the intersection of
// the sketches up to it:
//
//	aggregations:      _funnel_step_0  _funnel_step_1  _funnel_step_2
//	postAggregations:  0_visit = |s0|
//	                   1_signup = |s0 ∩ s1|
//	                   2_purchase = |s0 ∩ s1 ∩ s2|
//
// The query filter is the funnel's base filter AND the OR of every step
// filter, so rows that match no step are never scanned.
//
// Funnels can be written in CUE (see LoadFile and LoadDir), and Read turns
// the engine's groupBy rows back into per-step counts.
package funnel
