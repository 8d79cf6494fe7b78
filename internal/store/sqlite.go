package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/homesense/internal/model"
)

// SQLiteStore implements Store on modernc.org/sqlite. Timestamps are stored
// as RFC 3339 text and due dates as YYYY-MM-DD.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id          TEXT PRIMARY KEY,
	address     TEXT NOT NULL,
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip         TEXT NOT NULL DEFAULT '',
	year_built  INTEGER,
	square_feet INTEGER,
	lat         REAL,
	lon         REAL,
	tlc_score   REAL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_snapshots (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	provider    TEXT NOT NULL,
	payload     TEXT NOT NULL,
	fetched_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_property ON enrichment_snapshots(property_id, fetched_at);

CREATE TABLE IF NOT EXISTS lifespan_references (
	system_type    TEXT NOT NULL,
	system_subtype TEXT NOT NULL,
	climate_zone   TEXT NOT NULL,
	min_years      INTEGER NOT NULL,
	typical_years  INTEGER NOT NULL,
	max_years      INTEGER NOT NULL,
	quality_tier   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (system_type, system_subtype, climate_zone)
);

CREATE TABLE IF NOT EXISTS climate_factors (
	climate_zone TEXT NOT NULL,
	factor_type  TEXT NOT NULL,
	multiplier   REAL NOT NULL,
	PRIMARY KEY (climate_zone, factor_type)
);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	address_id        TEXT NOT NULL,
	field             TEXT NOT NULL,
	predicted_value   TEXT NOT NULL,
	confidence_score  REAL NOT NULL,
	provenance        TEXT NOT NULL,
	prediction_run_id TEXT NOT NULL,
	model_version     TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	UNIQUE (address_id, field, model_version)
);

CREATE TABLE IF NOT EXISTS home_systems (
	home_id     TEXT NOT NULL,
	system_type TEXT NOT NULL,
	PRIMARY KEY (home_id, system_type)
);

CREATE TABLE IF NOT EXISTS renovation_items (
	id             TEXT PRIMARY KEY,
	home_id        TEXT NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	urgency        TEXT NOT NULL,
	system_type    TEXT NOT NULL DEFAULT '',
	estimated_cost REAL
);

CREATE TABLE IF NOT EXISTS maintenance_tasks (
	id          TEXT PRIMARY KEY,
	home_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	system_type TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL,
	due_date    TEXT NOT NULL,
	cost        REAL,
	status      TEXT NOT NULL DEFAULT 'pending'
);

CREATE INDEX IF NOT EXISTS idx_tasks_home_due ON maintenance_tasks(home_id, due_date);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sortableTime keeps a fixed-width fraction so text ordering matches time ordering.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(sortableTime)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, eris.Wrapf(err, "sqlite: parse time %q", s)
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var (
		p           model.Property
		yb, sqft    sql.NullInt64
		lat, lon    sql.NullFloat64
		tlc         sql.NullFloat64
		createdText string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, address, city, state, zip, year_built, square_feet, lat, lon, tlc_score, created_at FROM properties WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip, &yb, &sqft, &lat, &lon, &tlc, &createdText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "property %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get property %s", id)
	}
	p.YearBuilt, p.SquareFeet = nullInt(yb), nullInt(sqft)
	p.Lat, p.Lon, p.TLCScore = nullFloat(lat), nullFloat(lon), nullFloat(tlc)
	if p.CreatedAt, err = parseTime(createdText); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) PutProperty(ctx context.Context, p model.Property) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (id, address, city, state, zip, year_built, square_feet, lat, lon, tlc_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET address = excluded.address, city = excluded.city, state = excluded.state,
		   zip = excluded.zip, year_built = excluded.year_built, square_feet = excluded.square_feet,
		   lat = excluded.lat, lon = excluded.lon, tlc_score = excluded.tlc_score`,
		p.ID, p.Address, p.City, p.State, p.Zip, nullable(p.YearBuilt), nullable(p.SquareFeet),
		nullable(p.Lat), nullable(p.Lon), nullable(p.TLCScore), formatTime(p.CreatedAt),
	)
	return eris.Wrapf(err, "sqlite: put property %s", p.ID)
}

func (s *SQLiteStore) ListPropertyIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM properties ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list property ids")
	}
	defer rows.Close() //nolint:errcheck

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan property id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: iterate property ids")
}

func (s *SQLiteStore) AddSnapshot(ctx context.Context, snap model.EnrichmentSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_snapshots (id, property_id, provider, payload, fetched_at) VALUES (?, ?, ?, ?, ?)`,
		orNewID(snap.ID), snap.PropertyID, snap.Provider, string(snap.Payload), formatTime(snap.FetchedAt),
	)
	return eris.Wrapf(err, "sqlite: add %s snapshot", snap.Provider)
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, propertyID string) ([]model.EnrichmentSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, provider, payload, fetched_at FROM enrichment_snapshots WHERE property_id = ? ORDER BY fetched_at DESC`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list snapshots %s", propertyID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.EnrichmentSnapshot
	for rows.Next() {
		var snap model.EnrichmentSnapshot
		var payload, fetched string
		if err := rows.Scan(&snap.ID, &snap.PropertyID, &snap.Provider, &payload, &fetched); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snap.Payload = json.RawMessage(payload)
		if snap.FetchedAt, err = parseTime(fetched); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

func (s *SQLiteStore) ListLifespans(ctx context.Context) ([]model.LifespanReference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT system_type, system_subtype, climate_zone, min_years, typical_years, max_years, quality_tier FROM lifespan_references`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lifespans")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.LifespanReference
	for rows.Next() {
		var r model.LifespanReference
		if err := rows.Scan(&r.SystemType, &r.Subtype, &r.ClimateZone, &r.MinYears, &r.TypicalYears, &r.MaxYears, &r.QualityTier); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lifespan")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate lifespans")
}

func (s *SQLiteStore) ListClimateFactors(ctx context.Context) ([]model.ClimateFactor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT climate_zone, factor_type, multiplier FROM climate_factors`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list climate factors")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ClimateFactor
	for rows.Next() {
		var f model.ClimateFactor
		if err := rows.Scan(&f.ClimateZone, &f.FactorType, &f.Multiplier); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan climate factor")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate climate factors")
}

// SeedReference upserts reference rows in one transaction.
func (s *SQLiteStore) SeedReference(ctx context.Context, refs []model.LifespanReference, factors []model.ClimateFactor) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: seed begin")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int64
	for _, r := range refs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lifespan_references (system_type, system_subtype, climate_zone, min_years, typical_years, max_years, quality_tier)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (system_type, system_subtype, climate_zone) DO UPDATE SET min_years = excluded.min_years,
			   typical_years = excluded.typical_years, max_years = excluded.max_years, quality_tier = excluded.quality_tier`,
			r.SystemType, r.Subtype, r.ClimateZone, r.MinYears, r.TypicalYears, r.MaxYears, r.QualityTier,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: seed lifespan %s/%s", r.SystemType, r.Subtype)
		}
		n++
	}
	for _, f := range factors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO climate_factors (climate_zone, factor_type, multiplier) VALUES (?, ?, ?)
			 ON CONFLICT (climate_zone, factor_type) DO UPDATE SET multiplier = excluded.multiplier`,
			f.ClimateZone, f.FactorType, f.Multiplier,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: seed climate factor %s/%s", f.ClimateZone, f.FactorType)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: seed commit")
	}
	return n, nil
}

func (s *SQLiteStore) writePrediction(ctx context.Context, query string, p model.Prediction) error {
	prov, err := json.Marshal(p.Provenance)
	if err != nil {
		return eris.Wrap(err, "marshal provenance")
	}
	_, err = s.db.ExecContext(ctx, query,
		orNewID(p.ID), p.AddressID, p.Field, p.Value, p.Confidence, string(prov), p.RunID, p.ModelVersion, formatTime(p.CreatedAt))
	return err
}

const sqliteInsertPrediction = `INSERT INTO predictions (id, address_id, field, predicted_value, confidence_score, provenance, prediction_run_id, model_version, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) UpsertPrediction(ctx context.Context, p model.Prediction) error {
	err := s.writePrediction(ctx, sqliteInsertPrediction+`
ON CONFLICT (address_id, field, model_version) DO UPDATE SET predicted_value = excluded.predicted_value,
  confidence_score = excluded.confidence_score, provenance = excluded.provenance,
  prediction_run_id = excluded.prediction_run_id, created_at = excluded.created_at`, p)
	return eris.Wrapf(err, "sqlite: upsert prediction %s/%s", p.AddressID, p.Field)
}

func (s *SQLiteStore) InsertPrediction(ctx context.Context, p model.Prediction) error {
	err := s.writePrediction(ctx, sqliteInsertPrediction, p)
	return eris.Wrapf(err, "sqlite: insert prediction %s/%s", p.AddressID, p.Field)
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, addressID string) ([]model.Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address_id, field, predicted_value, confidence_score, provenance, prediction_run_id, model_version, created_at
		 FROM predictions WHERE address_id = ? ORDER BY model_version, field`,
		addressID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list predictions %s", addressID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var prov, created string
		if err := rows.Scan(&p.ID, &p.AddressID, &p.Field, &p.Value, &p.Confidence, &prov, &p.RunID, &p.ModelVersion, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prediction")
		}
		if err := json.Unmarshal([]byte(prov), &p.Provenance); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal provenance")
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate predictions")
}

func (s *SQLiteStore) ListHomeSystems(ctx context.Context, homeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT system_type FROM home_systems WHERE home_id = ? ORDER BY system_type`, homeID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list home systems %s", homeID)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var sys string
		if err := rows.Scan(&sys); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan home system")
		}
		out = append(out, sys)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate home systems")
}

func (s *SQLiteStore) AddHomeSystem(ctx context.Context, homeID, systemType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO home_systems (home_id, system_type) VALUES (?, ?) ON CONFLICT DO NOTHING`, homeID, systemType)
	return eris.Wrapf(err, "sqlite: add home system %s", systemType)
}

func (s *SQLiteStore) ListRenovationItems(ctx context.Context, homeID string) ([]model.RenovationItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, home_id, title, description, urgency, system_type, estimated_cost FROM renovation_items WHERE home_id = ? ORDER BY id`,
		homeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list renovation items %s", homeID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RenovationItem
	for rows.Next() {
		var r model.RenovationItem
		var cost sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.HomeID, &r.Title, &r.Description, &r.Urgency, &r.SystemType, &cost); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan renovation item")
		}
		r.EstimatedCost = nullFloat(cost)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate renovation items")
}

func (s *SQLiteStore) PutRenovationItem(ctx context.Context, r model.RenovationItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renovation_items (id, home_id, title, description, urgency, system_type, estimated_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title, description = excluded.description,
		   urgency = excluded.urgency, system_type = excluded.system_type, estimated_cost = excluded.estimated_cost`,
		orNewID(r.ID), r.HomeID, r.Title, r.Description, r.Urgency, r.SystemType, nullable(r.EstimatedCost),
	)
	return eris.Wrapf(err, "sqlite: put renovation item %s", r.Title)
}

func (s *SQLiteStore) ListTaskKeys(ctx context.Context, homeID string, from, to time.Time) ([]model.TaskKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, due_date FROM maintenance_tasks WHERE home_id = ? AND due_date >= ? AND due_date <= ?`,
		homeID, from.Format(time.DateOnly), to.Format(time.DateOnly),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list task keys %s", homeID)
	}
	defer rows.Close() //nolint:errcheck

	var keys []model.TaskKey
	for rows.Next() {
		var title, due string
		if err := rows.Scan(&title, &due); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task key")
		}
		d, err := time.Parse(time.DateOnly, due)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse due date %q", due)
		}
		keys = append(keys, model.NewTaskKey(title, d))
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: iterate task keys")
}

func (s *SQLiteStore) InsertTasks(ctx context.Context, tasks []model.MaintenanceTask) (int64, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert tasks begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO maintenance_tasks (id, home_id, title, description, category, system_type, priority, due_date, cost, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert task")
	}
	defer stmt.Close() //nolint:errcheck

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, orNewID(t.ID), t.HomeID, t.Title, t.Description, t.Category, t.SystemType,
			string(t.Priority), t.DueDate.Format(time.DateOnly), nullable(t.Cost), taskStatus(t)); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert task %q", t.Title)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: insert tasks commit")
	}
	return int64(len(tasks)), nil
}
