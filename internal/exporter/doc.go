// Package exporter writes report tables to disk.
//
// Every table becomes a UTF-8 CSV file (with a byte order mark so Excel
// detects the encoding) and a worksheet of a single workbook. Output is a
// pure function of the tables: two runs over the same snapshot produce the
// same bytes.
//
// Usage:
//
//	exp := exporter.New(paths, cfg.Export, logger)
//	files, err := exp.Export(ctx, tables, evaluationDate)
package exporter
