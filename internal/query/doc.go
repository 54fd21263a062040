// Package query models the engine's native JSON query language.
//
// Every polymorphic part of a query is a tagged family built on wire.Family:
// filters, extraction functions, aggregators, post-aggregators, virtual
// columns, dimension specs, granularities, data sources, having specs, limit
// specs, topN metric specs and the queries themselves. Each variant is a
// pointer to a payload struct whose Type method returns its wire tag.
//
// VARIANTS
//
// Variant payloads encode through wire.MarshalTagged, so the "type" key sits
// next to the payload fields. Queries themselves are keyed by "queryType".
// Fields that hold another family are decoded
// through that family, which means an unknown tag anywhere in a nested tree
// fails the whole decode with UNKNOWN_VARIANT naming the inner family.
//
// Several families accept a bare string instead of an object:
//
//	"dataSource": "wikipedia"          table data source
//	"granularity": "day"               simple granularity
//	"dimension": "country"             default dimension spec
//	"metric": "edits"                  numeric topN metric
//
// The decoded value remembers which form it came from, and encoding writes
// the same form back.
//
// LISTS
//
// Fields holding several variants use the List types (FilterList,
// AggregatorList, ...). A plain []Aggregator literal is assignable to them.
package query
