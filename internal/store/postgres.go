package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/homesense/internal/db"
	"github.com/sells-group/homesense/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres opens a pool and returns a store over it.
func NewPostgres(ctx context.Context, cfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id          TEXT PRIMARY KEY,
	address     TEXT NOT NULL,
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	zip         TEXT NOT NULL DEFAULT '',
	year_built  INTEGER,
	square_feet INTEGER,
	lat         DOUBLE PRECISION,
	lon         DOUBLE PRECISION,
	tlc_score   DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_snapshots (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	provider    TEXT NOT NULL,
	payload     JSONB NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_property ON enrichment_snapshots(property_id, fetched_at DESC);

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
	multiplier   DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (climate_zone, factor_type)
);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	address_id        TEXT NOT NULL,
	field             TEXT NOT NULL,
	predicted_value   TEXT NOT NULL,
	confidence_score  DOUBLE PRECISION NOT NULL,
	provenance        JSONB NOT NULL,
	prediction_run_id TEXT NOT NULL,
	model_version     TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	estimated_cost DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS maintenance_tasks (
	id          TEXT PRIMARY KEY,
	home_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	system_type TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL,
	due_date    DATE NOT NULL,
	cost        DOUBLE PRECISION,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_home_due ON maintenance_tasks(home_id, due_date);
`

var (
	lifespanUpsert = db.UpsertConfig{
		Table:        "lifespan_references",
		Columns:      []string{"system_type", "system_subtype", "climate_zone", "min_years", "typical_years", "max_years", "quality_tier"},
		ConflictKeys: []string{"system_type", "system_subtype", "climate_zone"},
	}
	factorUpsert = db.UpsertConfig{
		Table:        "climate_factors",
		Columns:      []string{"climate_zone", "factor_type", "multiplier"},
		ConflictKeys: []string{"climate_zone", "factor_type"},
	}
	predictionUpsert = db.UpsertConfig{
		Table:        "predictions",
		Columns:      predictionColumns,
		ConflictKeys: []string{"address_id", "field", "model_version"},
		UpdateCols:   []string{"predicted_value", "confidence_score", "provenance", "prediction_run_id", "created_at"},
	}
	predictionColumns = []string{"id", "address_id", "field", "predicted_value", "confidence_score", "provenance", "prediction_run_id", "model_version", "created_at"}
	taskColumns       = []string{"id", "home_id", "title", "description", "category", "system_type", "priority", "due_date", "cost", "status"}
)

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	err := s.pool.QueryRow(ctx,
		`SELECT id, address, city, state, zip, year_built, square_feet, lat, lon, tlc_score, created_at FROM properties WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip, &p.YearBuilt, &p.SquareFeet, &p.Lat, &p.Lon, &p.TLCScore, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "property %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get property %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) PutProperty(ctx context.Context, p model.Property) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (id, address, city, state, zip, year_built, square_feet, lat, lon, tlc_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET address = EXCLUDED.address, city = EXCLUDED.city, state = EXCLUDED.state,
		   zip = EXCLUDED.zip, year_built = EXCLUDED.year_built, square_feet = EXCLUDED.square_feet,
		   lat = EXCLUDED.lat, lon = EXCLUDED.lon, tlc_score = EXCLUDED.tlc_score`,
		p.ID, p.Address, p.City, p.State, p.Zip, p.YearBuilt, p.SquareFeet, p.Lat, p.Lon, p.TLCScore, created,
	)
	return eris.Wrapf(err, "postgres: put property %s", p.ID)
}

func (s *PostgresStore) ListPropertyIDs(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT id FROM properties ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list property ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, eris.Wrap(err, "postgres: scan property ids")
}

func (s *PostgresStore) AddSnapshot(ctx context.Context, snap model.EnrichmentSnapshot) error {
	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_snapshots (id, property_id, provider, payload, fetched_at) VALUES ($1, $2, $3, $4, $5)`,
		orNewID(snap.ID), snap.PropertyID, snap.Provider, []byte(snap.Payload), fetched,
	)
	return eris.Wrapf(err, "postgres: add %s snapshot", snap.Provider)
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, propertyID string) ([]model.EnrichmentSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, property_id, provider, payload, fetched_at FROM enrichment_snapshots WHERE property_id = $1 ORDER BY fetched_at DESC`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list snapshots %s", propertyID)
	}
	defer rows.Close()

	var out []model.EnrichmentSnapshot
	for rows.Next() {
		var snap model.EnrichmentSnapshot
		var payload []byte
		if err := rows.Scan(&snap.ID, &snap.PropertyID, &snap.Provider, &payload, &snap.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		snap.Payload = json.RawMessage(payload)
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

func (s *PostgresStore) ListLifespans(ctx context.Context) ([]model.LifespanReference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT system_type, system_subtype, climate_zone, min_years, typical_years, max_years, quality_tier FROM lifespan_references`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lifespans")
	}
	defer rows.Close()

	var out []model.LifespanReference
	for rows.Next() {
		var r model.LifespanReference
		if err := rows.Scan(&r.SystemType, &r.Subtype, &r.ClimateZone, &r.MinYears, &r.TypicalYears, &r.MaxYears, &r.QualityTier); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lifespan")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate lifespans")
}

func (s *PostgresStore) ListClimateFactors(ctx context.Context) ([]model.ClimateFactor, error) {
	rows, err := s.pool.Query(ctx, `SELECT climate_zone, factor_type, multiplier FROM climate_factors`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list climate factors")
	}
	defer rows.Close()

	var out []model.ClimateFactor
	for rows.Next() {
		var f model.ClimateFactor
		if err := rows.Scan(&f.ClimateZone, &f.FactorType, &f.Multiplier); err != nil {
			return nil, eris.Wrap(err, "postgres: scan climate factor")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate climate factors")
}

// SeedReference bulk-upserts lifespan and climate-factor rows.
func (s *PostgresStore) SeedReference(ctx context.Context, refs []model.LifespanReference, factors []model.ClimateFactor) (int64, error) {
	refRows := make([][]any, len(refs))
	for i, r := range refs {
		refRows[i] = []any{r.SystemType, r.Subtype, r.ClimateZone, r.MinYears, r.TypicalYears, r.MaxYears, r.QualityTier}
	}
	n, err := db.BulkUpsert(ctx, s.pool, lifespanUpsert, refRows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: seed lifespans")
	}

	factorRows := make([][]any, len(factors))
	for i, f := range factors {
		factorRows[i] = []any{f.ClimateZone, f.FactorType, f.Multiplier}
	}
	m, err := db.BulkUpsert(ctx, s.pool, factorUpsert, factorRows)
	if err != nil {
		return n, eris.Wrap(err, "postgres: seed climate factors")
	}
	return n + m, nil
}

func predictionArgs(p model.Prediction) ([]any, error) {
	prov, err := json.Marshal(p.Provenance)
	if err != nil {
		return nil, eris.Wrap(err, "marshal provenance")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return []any{orNewID(p.ID), p.AddressID, p.Field, p.Value, p.Confidence, prov, p.RunID, p.ModelVersion, created}, nil
}

// UpsertPrediction writes p, replacing any row with the same address, field
// and model version.
func (s *PostgresStore) UpsertPrediction(ctx context.Context, p model.Prediction) error {
	sql, err := db.UpsertStatement(predictionUpsert)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert prediction")
	}
	args, err := predictionArgs(p)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert prediction")
	}
	_, err = s.pool.Exec(ctx, sql, args...)
	return eris.Wrapf(err, "postgres: upsert prediction %s/%s", p.AddressID, p.Field)
}

// InsertPrediction writes p with a plain INSERT.
func (s *PostgresStore) InsertPrediction(ctx context.Context, p model.Prediction) error {
	args, err := predictionArgs(p)
	if err != nil {
		return eris.Wrap(err, "postgres: insert prediction")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO predictions (id, address_id, field, predicted_value, confidence_score, provenance, prediction_run_id, model_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		args...,
	)
	return eris.Wrapf(err, "postgres: insert prediction %s/%s", p.AddressID, p.Field)
}

func (s *PostgresStore) ListPredictions(ctx context.Context, addressID string) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, address_id, field, predicted_value, confidence_score, provenance, prediction_run_id, model_version, created_at
		 FROM predictions WHERE address_id = $1 ORDER BY model_version, field`,
		addressID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list predictions %s", addressID)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var prov []byte
		if err := rows.Scan(&p.ID, &p.AddressID, &p.Field, &p.Value, &p.Confidence, &prov, &p.RunID, &p.ModelVersion, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prediction")
		}
		if err := json.Unmarshal(prov, &p.Provenance); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal provenance")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate predictions")
}

func (s *PostgresStore) ListHomeSystems(ctx context.Context, homeID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT system_type FROM home_systems WHERE home_id = $1 ORDER BY system_type`, homeID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list home systems %s", homeID)
	}
	systems, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return systems, eris.Wrap(err, "postgres: scan home systems")
}

func (s *PostgresStore) AddHomeSystem(ctx context.Context, homeID, systemType string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO home_systems (home_id, system_type) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		homeID, systemType,
	)
	return eris.Wrapf(err, "postgres: add home system %s", systemType)
}

func (s *PostgresStore) ListRenovationItems(ctx context.Context, homeID string) ([]model.RenovationItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, home_id, title, description, urgency, system_type, estimated_cost FROM renovation_items WHERE home_id = $1 ORDER BY id`,
		homeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list renovation items %s", homeID)
	}
	defer rows.Close()

	var out []model.RenovationItem
	for rows.Next() {
		var r model.RenovationItem
		if err := rows.Scan(&r.ID, &r.HomeID, &r.Title, &r.Description, &r.Urgency, &r.SystemType, &r.EstimatedCost); err != nil {
			return nil, eris.Wrap(err, "postgres: scan renovation item")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate renovation items")
}

func (s *PostgresStore) PutRenovationItem(ctx context.Context, r model.RenovationItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO renovation_items (id, home_id, title, description, urgency, system_type, estimated_cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description,
		   urgency = EXCLUDED.urgency, system_type = EXCLUDED.system_type, estimated_cost = EXCLUDED.estimated_cost`,
		orNewID(r.ID), r.HomeID, r.Title, r.Description, r.Urgency, r.SystemType, r.EstimatedCost,
	)
	return eris.Wrapf(err, "postgres: put renovation item %s", r.Title)
}

// ListTaskKeys returns the dedup keys of tasks due in [from, to].
func (s *PostgresStore) ListTaskKeys(ctx context.Context, homeID string, from, to time.Time) ([]model.TaskKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, due_date FROM maintenance_tasks WHERE home_id = $1 AND due_date >= $2 AND due_date <= $3`,
		homeID, from.Format(time.DateOnly), to.Format(time.DateOnly),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list task keys %s", homeID)
	}
	defer rows.Close()

	var keys []model.TaskKey
	for rows.Next() {
		var title string
		var due time.Time
		if err := rows.Scan(&title, &due); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task key")
		}
		keys = append(keys, model.NewTaskKey(title, due))
	}
	return keys, eris.Wrap(rows.Err(), "postgres: iterate task keys")
}

// InsertTasks copies tasks into maintenance_tasks.
func (s *PostgresStore) InsertTasks(ctx context.Context, tasks []model.MaintenanceTask) (int64, error) {
	rows := make([][]any, len(tasks))
	for i, t := range tasks {
		rows[i] = []any{orNewID(t.ID), t.HomeID, t.Title, t.Description, t.Category, t.SystemType,
			string(t.Priority), t.DueDate, t.Cost, taskStatus(t)}
	}
	n, err := db.CopyFrom(ctx, s.pool, "maintenance_tasks", taskColumns, rows)
	return n, eris.Wrap(err, "postgres: insert tasks")
}
