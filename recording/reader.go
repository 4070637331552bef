package recording

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/vmsim/vm"
)

// A Reader reads recorded events back from a SQLite file.
type Reader struct {
	db *sql.DB
}

// NewReader opens the database at path (without the ".sqlite3" suffix).
func NewReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", path+".sqlite3")
	if err != nil {
		return nil, fmt.Errorf("opening %s.sqlite3: %w", path, err)
	}

	return &Reader{db: db}, nil
}

// NewReaderWithDB creates a Reader over an already-open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Events returns all recorded outcome events in time order. Forced
// evictions share a timestamp with the access that triggered them, so the
// rowid breaks ties in insertion order.
func (r *Reader) Events() ([]EventRow, error) {
	rows, err := r.db.Query(
		"SELECT Time, Kind, PID, VPN, FrameIndex, EvictedPID, EvictedVPN, " +
			"Evicted, Reason FROM " + eventTable + " ORDER BY Time, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		err := rows.Scan(&e.Time, &e.Kind, &e.PID, &e.VPN, &e.FrameIndex,
			&e.EvictedPID, &e.EvictedVPN, &e.Evicted, &e.Reason)
		if err != nil {
			return nil, err
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// CountKind returns how many recorded events have the given kind.
func (r *Reader) CountKind(kind vm.Kind) (int, error) {
	row := r.db.QueryRow(
		"SELECT COUNT(*) FROM "+eventTable+" WHERE Kind = ?", kind.String())

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

// Runs returns all recorded run summaries.
func (r *Reader) Runs() ([]RunRow, error) {
	rows, err := r.db.Query(
		"SELECT RunID, Policy, PageSizeKB, FrameCount, Accesses, Hits, " +
			"Faults, Evictions, ForcedEvictions, FaultRate FROM runs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRow
	for rows.Next() {
		var run RunRow
		err := rows.Scan(&run.RunID, &run.Policy, &run.PageSizeKB,
			&run.FrameCount, &run.Accesses, &run.Hits, &run.Faults,
			&run.Evictions, &run.ForcedEvictions, &run.FaultRate)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the underlying database.
func (r *Reader) Close() error {
	return r.db.Close()
}
