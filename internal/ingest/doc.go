// Package ingest turns the input directory into raw rows.
//
// The expected layout is
//
//	<input>/hr/*.xlsx|*.csv
//	<input>/organizations/<org>/Roles/*.xlsx|*.csv
//	<input>/organizations/<org>/Status/*.xlsx|*.csv
//
// The header of each file is its first non-blank row. Cells are passed on
// as text without interpretation, except that Roles rows without an
// organization get the name of their organization folder.
package ingest
