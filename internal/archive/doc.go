// Package archive looks up NEXRAD Level II scans in the public AWS archive.
//
// The archive stores one object per radar volume under keys of the form
// YYYY/MM/DD/RADAR/RADARYYYYMMDD_HHMMSS[_V06|.gz|_MDM]. A Client answers the
// single question the rest of the module asks of it: which scans exist for a
// radar between two instants. S3Client answers it by listing one day prefix at
// a time and filtering on the scan time encoded in each object name.
//
// An empty window is reported as ErrNoData rather than an empty slice so
// callers can tell "nothing archived" apart from transport or input failures.
package archive
