// Package ingest models ingestion task specs submitted to the overlord.
//
// A task spec nests several tagged families: the task itself, its I/O
// config (input source and input format), its tuning config (with a
// partitions spec), and the data schema (dimension schemas, metric
// aggregators and a granularity spec). All of them decode through
// wire.Family, so an unknown tag at any depth rejects the whole spec.
//
// Input sources are descriptors only. The engine reads the data; nothing
// in this package touches S3, HTTP or local files.
package ingest
