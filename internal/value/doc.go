// Package value holds the scalar codecs whose JSON shape depends on content
// rather than on a static schema.
//
//   - Interval: a half-open time range written as one "start/end" string.
//   - OneOrMany: a value that is either a bare scalar or an array of it;
//     the decoded shape is kept and re-emitted as-is.
//   - Real: a float64 that also carries +Inf and -Inf as the strings
//     "Infinity" and "-Infinity".
//   - Item: a result row with no fixed keys, split by trial decoding into
//     dimensions, metrics and nulls.
//
// Where a decode tries several candidate shapes, the order is part of the
// contract and is documented on the type. Swapping the order changes what
// ambiguous input decodes to.
//
// All formatting configuration in this package is fixed at init and never
// mutated, so every codec is safe for concurrent use.
package value
