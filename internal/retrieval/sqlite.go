package retrieval

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const DefaultDSN = ":memory:"

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// SQLiteStore keeps one table per collection and answers searches with a
// brute-force cosine scan.
type SQLiteStore struct {
	db    *sql.DB
	table string
	dims  int
}

// NewSQLiteStore opens dsn and creates the collection table if needed.
// dims <= 0 disables the dimension check.
func NewSQLiteStore(dsn, collection string, dims int) (*SQLiteStore, error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	s := &SQLiteStore{db: db, table: "points_" + collection, dims: dims}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug().Str("dsn", dsn).Str("collection", collection).Int("dims", dims).Msg("retrieval: sqlite store ready")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		payload TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) checkDims(v []float32) error {
	if s.dims > 0 && len(v) != s.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), s.dims)
	}
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, p Point) error {
	if err := s.checkDims(p.Vector); err != nil {
		return err
	}
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+` (id, vector, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET vector = excluded.vector, payload = excluded.payload`,
		p.ID, encodeVector(p.Vector), string(payload))
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if err := s.checkDims(vector); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector, payload FROM `+s.table)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	hits := []ScoredPoint{}
	for rows.Next() {
		var (
			id      string
			blob    []byte
			payload string
		)
		if err := rows.Scan(&id, &blob, &payload); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		stored := decodeVector(blob)
		if len(stored) != len(vector) {
			log.Warn().Str("id", id).Int("dims", len(stored)).Msg("retrieval: skipping point with foreign dimensions")
			continue
		}
		hit := ScoredPoint{ID: id, Score: cosine(vector, stored)}
		if err := json.Unmarshal([]byte(payload), &hit.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", id, err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

// cosine returns 0 when either vector has zero norm.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
