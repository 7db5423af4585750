// Package shared holds code used across packages that belongs to no
// single layer. Today that is testutil: fixture snapshots, sample input
// workbooks and a buffered slog handler for asserting on logs.
package shared
