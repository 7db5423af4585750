package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind of a tabular input file
type Kind string

const (
	KindExcel Kind = "xlsx"
	KindCSV   Kind = "csv"
)

var extensions = map[string]Kind{
	".xlsx": KindExcel,
	".xlsm": KindExcel,
	".csv":  KindCSV,
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Kind    Kind
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindExcelFiles finds all workbooks in dir
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	return d.find(dir, KindExcel)
}

// FindCSVFiles finds all CSV files in dir
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.find(dir, KindCSV)
}

// FindSourceFiles finds workbooks and CSV files in dir, sorted by name.
// A missing directory yields no files and no error.
func (d *Discovery) FindSourceFiles(dir string) ([]FileInfo, error) {
	files, err := d.find(dir, KindExcel, KindCSV)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

func (d *Discovery) find(dir string, kinds ...Kind) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		kind, ok := extensions[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok || !hasKind(kinds, kind) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// name order keeps row numbering stable between runs
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ListDirectories lists the subdirectories of dir, sorted by name
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Name < dirs[j].Name
	})
	return dirs, nil
}

// skipName filters hidden files and Excel lock files (~$book.xlsx)
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
