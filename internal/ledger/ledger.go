// Package ledger writes and reads the CSV audit ledger that records what a
// run saw and decided before anything is deleted.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// ErrMissing marks a read of a ledger that does not exist (or is empty,
// which no completed scan ever produces).
var ErrMissing = errors.New("audit ledger not found")

// Column layouts. The reconcile ledger snapshots the scan verdicts; the seed
// ledger records created fixtures for later cleanup.
var (
	ReconcileHeader = []string{"identity", "user", "excluded"}
	SeedHeader      = []string{"identity", "user", "provider"}
)

// ReconcileRow is one scanned identity with its exclusion verdict. User is
// empty for unlinked identities.
type ReconcileRow struct {
	Identity string
	User     string
	Excluded bool
}

// Fields returns the CSV representation in ReconcileHeader order.
func (r ReconcileRow) Fields() []string {
	return []string{r.Identity, r.User, strconv.FormatBool(r.Excluded)}
}

// SeedRow is one created fixture pair.
type SeedRow struct {
	Identity string
	User     string
	Provider string
}

// Fields returns the CSV representation in SeedHeader order.
func (r SeedRow) Fields() []string {
	return []string{r.Identity, r.User, r.Provider}
}

// Writer appends rows to a ledger file, flushing after every row so an
// interrupted run leaves a readable prefix of complete rows.
type Writer struct {
	path   string
	f      *os.File
	csv    *csv.Writer
	header []string
	rows   int
}

// BeginWrite truncates (or creates) the ledger at path and writes the
// header row. Every run starts from a fresh ledger.
func BeginWrite(path string, header []string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit ledger %q: %w", path, err)
	}

	w := &Writer{
		path:   path,
		f:      f,
		csv:    csv.NewWriter(f),
		header: header,
	}
	if err := w.write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write ledger header: %w", err)
	}
	return w, nil
}

func (w *Writer) write(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Append writes one data row and flushes it to disk.
func (w *Writer) Append(fields ...string) error {
	if len(fields) != len(w.header) {
		return fmt.Errorf("ledger row has %d fields, header has %d", len(fields), len(w.header))
	}
	if err := w.write(fields); err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows appended so far (header excluded).
func (w *Writer) Rows() int {
	return w.rows
}

// Path returns the ledger file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes pending output and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadReconcile loads a reconcile ledger. A missing file is an ErrMissing
// error: the delete phase must never invent work without a scan snapshot.
func ReadReconcile(path string) ([]ReconcileRow, error) {
	records, err := readAll(path, ReconcileHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]ReconcileRow, 0, len(records))
	for i, rec := range records {
		excluded, err := strconv.ParseBool(rec[2])
		if err != nil {
			return nil, fmt.Errorf("ledger %q row %d: invalid excluded value %q", path, i+1, rec[2])
		}
		rows = append(rows, ReconcileRow{Identity: rec[0], User: rec[1], Excluded: excluded})
	}
	return rows, nil
}

// ReadSeed loads a seed ledger.
func ReadSeed(path string) ([]SeedRow, error) {
	records, err := readAll(path, SeedHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]SeedRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, SeedRow{Identity: rec[0], User: rec[1], Provider: rec[2]})
	}
	return rows, nil
}

func readAll(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("audit ledger %q: %w", path, ErrMissing)
		}
		return nil, fmt.Errorf("failed to open audit ledger %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("audit ledger %q is empty: %w", path, ErrMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("ledger %q has header %v, expected %v", path, got, header)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}
	return records, nil
}

// Remove deletes the ledger file. A ledger that is already gone is not an
// error: removal means "no ledger remains", whichever run got there first.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove audit ledger %q: %w", path, err)
	}
	return nil
}
