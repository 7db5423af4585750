// Package files finds input files on disk.
//
// Discovery lists workbooks and CSV files of a directory in name order and
// enumerates organization folders. Hidden files and Excel lock files are
// ignored.
//
//	discovery := files.NewDiscovery(paths.InputDir)
//	sources, err := discovery.FindSourceFiles("hr")
package files
