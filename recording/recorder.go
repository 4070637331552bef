// Package recording persists the engine's event stream into SQLite so
// that runs can be inspected after the fact. The Recorder is a generic
// struct-to-table writer; EventSink adapts it to the engine's hook
// contract.
package recording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Recorder is a backend that can record and store data.
type Recorder interface {
	// CreateTable creates a new table shaped after the sample entry's
	// struct fields.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a same-type entry into an existing table.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// NewRecorder creates a Recorder backed by a SQLite file at path (the
// ".sqlite3" suffix is appended). An empty path picks a unique name.
func NewRecorder(path string) Recorder {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 4096,
		tables:    make(map[string]*table),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewRecorderWithDB creates a Recorder over an already-open database.
func NewRecorderWithDB(db *sql.DB) Recorder {
	return &sqliteWriter{
		db:        db,
		batchSize: 4096,
		tables:    make(map[string]*table),
	}
}

type table struct {
	fields  []string
	entries []any
}

type sqliteWriter struct {
	db *sql.DB

	dbName     string
	tables     map[string]*table
	entryCount int
	batchSize  int
}

func (w *sqliteWriter) init() {
	if w.dbName == "" {
		w.dbName = "vmsim_" + xid.New().String()
	}

	filename := w.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.db = db
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	fields := fieldNames(sampleEntry)

	createTableSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(fields, ",\n\t") + "\n);"
	w.mustExecute(createTableSQL)

	w.tables[tableName] = &table{fields: fields}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if got := fieldNames(entry); !equalFields(got, t.fields) {
		panic(fmt.Sprintf("entry %v does not match the shape of table %s",
			got, tableName))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	tables := make([]string, 0, len(w.tables))
	for name := range w.tables {
		tables = append(tables, name)
	}

	return tables
}

func (w *sqliteWriter) Flush() {
	if w.entryCount == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for tableName, t := range w.tables {
		if len(t.entries) == 0 {
			continue
		}

		placeholders := make([]string, len(t.fields))
		for i := range placeholders {
			placeholders[i] = "?"
		}

		stmt, err := w.db.Prepare("INSERT INTO " + tableName +
			" VALUES (" + strings.Join(placeholders, ", ") + ")")
		if err != nil {
			panic(err)
		}

		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)

			args := make([]any, 0, v.NumField())
			for i := 0; i < v.NumField(); i++ {
				args = append(args, v.Field(i).Interface())
			}

			if _, err := stmt.Exec(args...); err != nil {
				panic(err)
			}
		}

		t.entries = nil

		stmt.Close()
	}

	w.entryCount = 0
}

func (w *sqliteWriter) Close() error {
	w.Flush()
	return w.db.Close()
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}

func fieldNames(entry any) []string {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("entries must be structs, got %s", t.Kind()))
	}

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !isAllowedKind(field.Type.Kind()) {
			panic(fmt.Sprintf("field %s has unsupported kind %s",
				field.Name, field.Type.Kind()))
		}

		names = append(names, field.Name)
	}

	return names
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
