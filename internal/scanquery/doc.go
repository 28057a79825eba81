// Package scanquery implements the scan query stage: it pairs radar
// identifiers with time windows and asks an archive client for the scans in
// each pair, flattening the results.
//
// A failed pair never aborts the query. It is logged with the radar and
// window, recorded in the per-request outcomes, and contributes no scans.
package scanquery
