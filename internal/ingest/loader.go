package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"

	"trainingtracker/internal/config"
	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/files"
	"trainingtracker/internal/normalize"
	"trainingtracker/pkg/contracts/domain"
)

// orgColumn is the raw column filled from the organization folder name
const orgColumn = "org_id"

// Loader reads the input directory into a snapshot of raw rows
type Loader struct {
	paths     *config.Paths
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewLoader creates a loader for paths.InputDir
func NewLoader(paths *config.Paths, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		paths:     paths,
		discovery: files.NewDiscovery(paths.InputDir),
		logger:    logger.With(slog.String("component", "ingest")),
	}
}

// Load reads HR, Roles and Status files. A source without any file is
// returned as a nil batch; deciding whether that is fatal is left to
// normalization. Unreadable files fail the load.
func (l *Loader) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot

	hr, err := l.loadDir(ctx, domain.SourceHR, l.paths.HRDir(), "")
	if err != nil {
		return snap, err
	}
	snap.HR = hr

	orgs, err := l.organizations()
	if err != nil {
		return snap, err
	}
	for _, org := range orgs {
		roles, err := l.loadDir(ctx, domain.SourceRoles, l.paths.RolesDir(org), org)
		if err != nil {
			return snap, err
		}
		snap.Roles = merge(snap.Roles, roles)

		status, err := l.loadDir(ctx, domain.SourceStatus, l.paths.StatusDir(org), "")
		if err != nil {
			return snap, err
		}
		snap.Status = merge(snap.Status, status)
	}
	for _, b := range []*domain.Batch{snap.Roles, snap.Status} {
		if b != nil {
			b.Origin = l.relative(l.paths.OrganizationsDir())
		}
	}

	l.logger.InfoContext(ctx, "input loaded",
		slog.Int("hr_rows", snap.HR.Len()),
		slog.Int("role_rows", snap.Roles.Len()),
		slog.Int("status_rows", snap.Status.Len()),
		slog.Int("organizations", len(orgs)))
	return snap, nil
}

func (l *Loader) organizations() ([]string, error) {
	dir := l.paths.OrganizationsDir()
	if !config.FileExists(dir) {
		l.logger.Warn("organizations folder not found", slog.String("path", dir))
		return nil, nil
	}
	dirs, err := l.discovery.ListDirectories(dir)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to list organizations", err).
			WithContext("path", dir)
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.Name
	}
	return out, nil
}

// loadDir reads every source file of dir into one batch. org, when set,
// fills the organization column of rows lacking one.
func (l *Loader) loadDir(ctx context.Context, source domain.Source, dir, org string) (*domain.Batch, error) {
	found, err := l.discovery.FindSourceFiles(dir)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to list input files", err).
			WithContext("path", dir)
	}
	if len(found) == 0 {
		return nil, nil
	}

	batch := &domain.Batch{Source: source, Origin: l.relative(dir)}
	for _, file := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := ReadFile(file)
		if err != nil {
			return nil, apierrors.NewParsingError("failed to read input file", err).
				WithContext("file", file.Path).
				WithContext("source", string(source))
		}
		appendRows(batch, table, l.relative(file.Path), org)

		l.logger.DebugContext(ctx, "input file read",
			slog.String("source", string(source)),
			slog.String("file", file.Path),
			slog.Int("rows", len(table.Records)))
	}
	return batch, nil
}

func (l *Loader) relative(path string) string {
	if rel, err := filepath.Rel(l.paths.InputDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// appendRows converts records into raw rows, numbered after the rows
// already in the batch
func appendRows(batch *domain.Batch, table *Table, origin, org string) {
	for i, record := range table.Records {
		fields := make(map[string]string, len(table.Header)+1)
		for c, name := range table.Header {
			if name == "" {
				continue
			}
			if _, dup := fields[name]; dup {
				continue
			}
			fields[name] = record[c]
		}
		if org != "" && normalize.CanonicalFields(fields)[orgColumn] == "" {
			fields[orgColumn] = org
		}
		batch.Rows = append(batch.Rows, domain.RawRow{
			Position: len(batch.Rows) + 1,
			Origin:   origin + ":" + strconv.Itoa(table.Line[i]),
			Fields:   fields,
		})
	}
}

// merge appends b to a, renumbering positions
func merge(a, b *domain.Batch) *domain.Batch {
	if b == nil {
		return a
	}
	if a == nil {
		return b
	}
	for _, row := range b.Rows {
		row.Position = len(a.Rows) + 1
		a.Rows = append(a.Rows, row)
	}
	return a
}
