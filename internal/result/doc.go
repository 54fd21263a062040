// Package result models the rows the engine returns for native queries.
//
// Responses carry no discriminator: the shape is selected by the type of the
// query that produced them, so Decode takes the query type alongside the
// body. Every row value that has no fixed schema is a value.Item.
//
// For storage the same results are written in tagged form,
//
//	{"type":"groupBy","rows":[{"version":"v1","timestamp":"...","event":{...}}]}
//
// and read back through Family.
package result
