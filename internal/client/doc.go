// Package client sends druidkit's typed requests to a running engine.
//
// Transport is the seam between the typed Client and the network: Client
// encodes queries, SQL requests and tasks canonically, hands the bytes to
// Transport, and decodes whatever comes back through the result, sqlapi and
// ingest codecs. HTTPTransport is the production implementation; tests
// substitute their own.
//
// Retries, authentication and connection pool tuning are left to the
// *http.Client passed in HTTPConfig.
package client
