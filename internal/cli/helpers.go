package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/rowedit/internal/paths"
	"github.com/mesh-intelligence/rowedit/internal/remote"
	"github.com/mesh-intelligence/rowedit/internal/sqlite"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// resolveDataDir applies --data-dir > config.yaml data_dir >
// ROWEDIT_DATA_DIR > $(CWD)/.rowedit-db.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDir, a.v.GetString(cfgKeyDataDir))
}

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: a.v.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// client returns a remote client for remote.base_url.
func (a *app) client() (*remote.Client, error) {
	c, err := remote.New(a.v.GetString(cfgKeyRemoteBaseURL), a.remoteTimeout(), remote.WithLogger(a.logger))
	if err != nil {
		return nil, userError(fmt.Errorf("config: %w", err))
	}
	return c, nil
}

// parseAssignments turns name=value arguments into a field map.
func parseAssignments(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("field %q assigned twice", name)
		}
		fields[name] = value
	}
	return fields, nil
}

// orderedAssignments keeps the argument order of name=value pairs.
func orderedAssignments(args []string) ([][2]string, error) {
	if _, err := parseAssignments(args); err != nil {
		return nil, err
	}
	out := make([][2]string, len(args))
	for i, arg := range args {
		name, value, _ := strings.Cut(arg, "=")
		out[i] = [2]string{name, value}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// columns returns the schema followed by any other field names present in
// records, sorted.
func columns(schema types.Schema, records []types.Record) []string {
	cols := append([]string{}, schema...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	var extra []string
	for _, r := range records {
		for name := range r.Fields {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

var headerCell = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var bodyCell = lipgloss.NewStyle().Padding(0, 1)

// printRecords writes records as a bordered table or, in JSON mode, an array.
func (a *app) printRecords(w io.Writer, schema types.Schema, records []types.Record) error {
	if a.jsonMode {
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return nil
	}
	cols := columns(schema, records)
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, 0, len(cols)+1)
		row = append(row, r.ID)
		for _, c := range cols {
			row = append(row, r.Get(c))
		}
		rows[i] = row
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{"id"}, cols...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return bodyCell
		})
	fmt.Fprintln(w, t.String())
	return nil
}

// printRecord writes one record as aligned name: value lines.
func (a *app) printRecord(w io.Writer, schema types.Schema, r types.Record) error {
	if a.jsonMode {
		return writeJSON(w, r)
	}
	cols := columns(schema, []types.Record{r})
	width := len("id")
	for _, c := range cols {
		width = max(width, len(c))
	}
	fmt.Fprintf(w, "%-*s  %s\n", width, "id", r.ID)
	for _, c := range cols {
		fmt.Fprintf(w, "%-*s  %s\n", width, c, r.Get(c))
	}
	return nil
}
