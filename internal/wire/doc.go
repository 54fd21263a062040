// Package wire is the JSON layer shared by every protocol object in druidkit.
//
// This package contains the codec machinery only. Protocol types live in
// query, ingest, value and result; they all import wire, and wire imports
// nothing internal.
//
// TAGGED FAMILIES:
//
// Every polymorphic protocol object (filters, aggregators, tasks, ...) is a
// closed set of variants sharing one JSON object: a "type" discriminator plus
// the variant's fields flattened next to it.
//
//	{"type":"selector","dimension":"country","value":"SanSeriffe"}
//
// Native queries are the one family keyed by "queryType" instead; see
// WithTagField.
//
// A family is declared once with NewFamily and the constructors of its
// variants. The tag of each variant comes from its Type method, so encode and
// decode can never disagree about the wire string:
//
//	var Filters = wire.NewFamily[Filter]("filter",
//	    func() Filter { return new(SelectorFilter) },
//	    func() Filter { return new(AndFilter) },
//	)
//
// Each variant encodes itself through MarshalTagged, which writes the
// discriminator first and the payload fields into the same object.
//
// CANONICAL OUTPUT:
//
// Marshal produces the byte-stable form sent to the engine: object keys
// sorted, no HTML escaping, '/' left alone, numbers copied textually.
// Identical values always produce identical bytes, which makes the output
// safe to hash (see Hash).
//
// ERRORS:
//
// Decode failures are *DecodeError values with a Code. None of them are
// recovered locally and none of them panic: an unknown tag is an error, never
// a fallback variant.
package wire
