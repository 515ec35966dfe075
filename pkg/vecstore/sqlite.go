package vecstore

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	object_id  TEXT PRIMARY KEY,
	pos_x      REAL NOT NULL,
	pos_y      REAL NOT NULL,
	pos_z      REAL NOT NULL,
	heading    REAL NOT NULL,
	scene_id   TEXT NOT NULL DEFAULT '',
	class_id   INTEGER,
	class_name TEXT NOT NULL DEFAULT '',
	embedding  BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_objects_class ON objects(class_id);
`

// SQLiteStore persists object records in a local SQLite database. Embeddings
// are stored as little-endian float32 blobs. Writes are serialized by the
// database; reads may run concurrently.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("vecstore: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("vecstore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Upsert writes a record, keyed by ObjectID.
func (s *SQLiteStore) Upsert(record ObjectRecord) error {
	var classID sql.NullInt64
	if record.ClassID != nil {
		classID = sql.NullInt64{Int64: int64(*record.ClassID), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO objects (object_id, pos_x, pos_y, pos_z, heading, scene_id, class_id, class_name, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(object_id) DO UPDATE SET
			pos_x = excluded.pos_x,
			pos_y = excluded.pos_y,
			pos_z = excluded.pos_z,
			heading = excluded.heading,
			scene_id = excluded.scene_id,
			class_id = excluded.class_id,
			class_name = excluded.class_name,
			embedding = excluded.embedding`,
		record.ObjectID,
		record.Position[0], record.Position[1], record.Position[2],
		record.Heading, record.SceneID, classID, record.ClassName,
		encodeEmbedding(record.Embedding),
	)
	if err != nil {
		return fmt.Errorf("vecstore: upsert %s: %w", record.ObjectID, err)
	}
	return nil
}

// FindNearby returns the closest same-class record within radius.
func (s *SQLiteStore) FindNearby(classID int, position [3]float64, radius float64) (string, bool, error) {
	records, err := s.byClass(classID)
	if err != nil {
		return "", false, err
	}
	id, ok := nearest(records, classID, position, radius)
	return id, ok, nil
}

// QueryByEmbedding returns the top k matches with similarity >= minSim.
func (s *SQLiteStore) QueryByEmbedding(query []float32, k int, minSim float32) ([]Match, error) {
	records, err := s.all()
	if err != nil {
		return nil, err
	}
	return rank(records, query, k, minSim), nil
}

// Get retrieves a record by ID.
func (s *SQLiteStore) Get(objectID string) (ObjectRecord, error) {
	row := s.db.QueryRow(`
		SELECT object_id, pos_x, pos_y, pos_z, heading, scene_id, class_id, class_name, embedding
		FROM objects WHERE object_id = ?`, objectID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return ObjectRecord{}, ErrNotFound
	}
	if err != nil {
		return ObjectRecord{}, fmt.Errorf("vecstore: get %s: %w", objectID, err)
	}
	return record, nil
}

// Delete removes a record by ID.
func (s *SQLiteStore) Delete(objectID string) error {
	if _, err := s.db.Exec(`DELETE FROM objects WHERE object_id = ?`, objectID); err != nil {
		return fmt.Errorf("vecstore: delete %s: %w", objectID, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vecstore: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) byClass(classID int) ([]ObjectRecord, error) {
	rows, err := s.db.Query(`
		SELECT object_id, pos_x, pos_y, pos_z, heading, scene_id, class_id, class_name, embedding
		FROM objects WHERE class_id = ?`, classID)
	if err != nil {
		return nil, fmt.Errorf("vecstore: query class %d: %w", classID, err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *SQLiteStore) all() ([]ObjectRecord, error) {
	rows, err := s.db.Query(`
		SELECT object_id, pos_x, pos_y, pos_z, heading, scene_id, class_id, class_name, embedding
		FROM objects`)
	if err != nil {
		return nil, fmt.Errorf("vecstore: query all: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ObjectRecord, error) {
	var r ObjectRecord
	var classID sql.NullInt64
	var blob []byte
	err := row.Scan(&r.ObjectID,
		&r.Position[0], &r.Position[1], &r.Position[2],
		&r.Heading, &r.SceneID, &classID, &r.ClassName, &blob)
	if err != nil {
		return ObjectRecord{}, err
	}
	if classID.Valid {
		id := int(classID.Int64)
		r.ClassID = &id
	}
	r.Embedding = decodeEmbedding(blob)
	return r, nil
}

func collect(rows *sql.Rows) ([]ObjectRecord, error) {
	var records []ObjectRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("vecstore: scan row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
