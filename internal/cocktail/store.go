package cocktail

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the interface for cocktail data operations.
type Store interface {
	GetOrCreateUser(ctx context.Context, id, email, firstName, lastName string) (*User, error)
	UpsertUser(ctx context.Context, id, email, firstName, lastName string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	UpdateUserPremiumStatus(ctx context.Context, id string, isPremium bool) (*User, error)

	TrackCocktailGeneration(ctx context.Context, userID *string, sessionID string) (*Usage, error)
	CheckAnonQuota(ctx context.Context, sessionID string) (QuotaStatus, error)
	ClaimAnonGeneration(ctx context.Context, sessionID string) (QuotaStatus, *Usage, error)
	ReleaseCocktailGeneration(ctx context.Context, usageID int64) error
	GetUserCocktailCount(ctx context.Context, userID string) (int, error)

	ListSavedCocktails(ctx context.Context, userID string) ([]*SavedCocktail, error)
	SaveCocktailForUser(ctx context.Context, userID string, c Cocktail, inputs *Input, imageURL *string) (*SavedCocktail, error)
	DeleteSavedCocktail(ctx context.Context, userID string, id int64) (*SavedCocktail, error)

	GetCocktailImage(ctx context.Context, requestHash string) (string, error)
	SaveCocktailImage(ctx context.Context, requestHash, imageData string) error

	Ping(ctx context.Context) error
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE,
	first_name TEXT,
	last_name TEXT,
	is_premium BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cocktail_usage (
	id SERIAL PRIMARY KEY,
	user_id TEXT,
	session_id TEXT,
	generated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	usage_count INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS cocktail_usage_anon_session_idx
	ON cocktail_usage (session_id) WHERE user_id IS NULL;

CREATE TABLE IF NOT EXISTS saved_cocktails (
	id SERIAL PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	cocktail JSONB NOT NULL,
	inputs JSONB DEFAULT NULL,
	image_url TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cocktail_images (
	request_hash TEXT PRIMARY KEY,
	image_data TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const userColumns = `id, COALESCE(email, '') AS email, COALESCE(first_name, '') AS first_name, COALESCE(last_name, '') AS last_name, is_premium, created_at, updated_at`

const savedCocktailColumns = `id, user_id, name, cocktail, inputs, image_url, created_at, updated_at`

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db             *sqlx.DB
	anonymousLimit int
}

// NewPostgresStore connects to the database and creates the schema if needed.
// anonymousLimit is the number of free generations a session gets.
func NewPostgresStore(dataSourceName string, anonymousLimit int) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db, anonymousLimit: anonymousLimit}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetOrCreateUser returns the user with the given id, inserting it first when
// it does not exist yet.
func (s *PostgresStore) GetOrCreateUser(ctx context.Context, id, email, firstName, lastName string) (*User, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, first_name, last_name, is_premium) VALUES ($1, NULLIF($2, ''), $3, $4, FALSE) ON CONFLICT (id) DO NOTHING",
		id, email, firstName, lastName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s missing after insert", id)
	}
	return u, nil
}

// UpsertUser creates the user or refreshes its email and names.
func (s *PostgresStore) UpsertUser(ctx context.Context, id, email, firstName, lastName string) (*User, error) {
	var u User
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, is_premium) VALUES ($1, NULLIF($2, ''), $3, $4, FALSE)
		ON CONFLICT (id) DO UPDATE SET email = COALESCE(NULLIF($2, ''), users.email), first_name = $3, last_name = $4, updated_at = CURRENT_TIMESTAMP
		RETURNING `+userColumns,
		id, email, firstName, lastName,
	).StructScan(&u)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by id. It returns nil when the user does not exist.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user and, through the foreign key, their saved cocktails.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return n > 0, nil
}

// UpdateUserPremiumStatus sets the premium flag. It returns nil when the user does not exist.
func (s *PostgresStore) UpdateUserPremiumStatus(ctx context.Context, id string, isPremium bool) (*User, error) {
	var u User
	err := s.db.QueryRowxContext(ctx,
		"UPDATE users SET is_premium = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1 RETURNING "+userColumns,
		id, isPremium,
	).StructScan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update premium status: %w", err)
	}
	return &u, nil
}

// TrackCocktailGeneration records a generation. userID is nil for anonymous visitors.
func (s *PostgresStore) TrackCocktailGeneration(ctx context.Context, userID *string, sessionID string) (*Usage, error) {
	u, err := insertUsage(ctx, s.db, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to track cocktail generation: %w", err)
	}
	return u, nil
}

// CheckAnonQuota counts anonymous generations for a session against the limit.
func (s *PostgresStore) CheckAnonQuota(ctx context.Context, sessionID string) (QuotaStatus, error) {
	quota, err := s.anonQuota(ctx, s.db, sessionID)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("failed to check anonymous quota: %w", err)
	}
	return quota, nil
}

// ClaimAnonGeneration checks the session's quota and, when it allows another
// generation, records it in the same transaction. Concurrent claims for one
// session are serialised by an advisory lock. The returned usage is nil when
// the quota is exhausted.
func (s *PostgresStore) ClaimAnonGeneration(ctx context.Context, sessionID string) (QuotaStatus, *Usage, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return QuotaStatus{}, nil, fmt.Errorf("failed to begin quota claim: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", sessionID); err != nil {
		return QuotaStatus{}, nil, fmt.Errorf("failed to lock session quota: %w", err)
	}

	quota, err := s.anonQuota(ctx, tx, sessionID)
	if err != nil {
		return QuotaStatus{}, nil, fmt.Errorf("failed to check anonymous quota: %w", err)
	}
	if !quota.CanGenerate {
		return quota, nil, nil
	}

	u, err := insertUsage(ctx, tx, nil, sessionID)
	if err != nil {
		return QuotaStatus{}, nil, fmt.Errorf("failed to track cocktail generation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return QuotaStatus{}, nil, fmt.Errorf("failed to commit quota claim: %w", err)
	}
	return quota, u, nil
}

// ReleaseCocktailGeneration removes a usage row for a generation that failed
// before producing output.
func (s *PostgresStore) ReleaseCocktailGeneration(ctx context.Context, usageID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cocktail_usage WHERE id = $1", usageID); err != nil {
		return fmt.Errorf("failed to release cocktail generation: %w", err)
	}
	return nil
}

func (s *PostgresStore) anonQuota(ctx context.Context, q sqlx.QueryerContext, sessionID string) (QuotaStatus, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		"SELECT COUNT(*) FROM cocktail_usage WHERE session_id = $1 AND user_id IS NULL",
		sessionID,
	)
	if err != nil {
		return QuotaStatus{}, err
	}
	return QuotaStatus{CanGenerate: count < s.anonymousLimit, UsageCount: count}, nil
}

func insertUsage(ctx context.Context, q sqlx.QueryerContext, userID *string, sessionID string) (*Usage, error) {
	var u Usage
	err := q.QueryRowxContext(ctx,
		"INSERT INTO cocktail_usage (user_id, session_id) VALUES ($1, $2) RETURNING id, user_id, session_id, generated_at, usage_count",
		userID, sessionID,
	).StructScan(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserCocktailCount returns how many cocktails a member has generated.
func (s *PostgresStore) GetUserCocktailCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cocktail_usage WHERE user_id = $1", userID); err != nil {
		return 0, fmt.Errorf("failed to count cocktails: %w", err)
	}
	return count, nil
}

type savedCocktailRow struct {
	ID        int64          `db:"id"`
	UserID    string         `db:"user_id"`
	Name      string         `db:"name"`
	Cocktail  []byte         `db:"cocktail"`
	Inputs    []byte         `db:"inputs"`
	ImageURL  sql.NullString `db:"image_url"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *savedCocktailRow) toSavedCocktail() (*SavedCocktail, error) {
	sc := &SavedCocktail{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Cocktail, &sc.Cocktail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cocktail: %w", err)
	}
	if len(r.Inputs) > 0 && string(r.Inputs) != "null" {
		var in Input
		if err := json.Unmarshal(r.Inputs, &in); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
		}
		sc.Inputs = &in
	}
	if r.ImageURL.Valid {
		url := r.ImageURL.String
		sc.ImageURL = &url
	}
	return sc, nil
}

// ListSavedCocktails returns a member's saved cocktails, newest first.
func (s *PostgresStore) ListSavedCocktails(ctx context.Context, userID string) ([]*SavedCocktail, error) {
	var rows []savedCocktailRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+savedCocktailColumns+" FROM saved_cocktails WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved cocktails: %w", err)
	}

	cocktails := make([]*SavedCocktail, 0, len(rows))
	for i := range rows {
		sc, err := rows[i].toSavedCocktail()
		if err != nil {
			return nil, err
		}
		cocktails = append(cocktails, sc)
	}
	return cocktails, nil
}

// SaveCocktailForUser stores a cocktail on a member's profile.
func (s *PostgresStore) SaveCocktailForUser(ctx context.Context, userID string, c Cocktail, inputs *Input, imageURL *string) (*SavedCocktail, error) {
	cocktailJSON, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cocktail: %w", err)
	}
	var inputsJSON interface{} // NULL unless inputs are known
	if inputs != nil {
		b, err := json.Marshal(inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal inputs: %w", err)
		}
		inputsJSON = b
	}

	var row savedCocktailRow
	err = s.db.QueryRowxContext(ctx,
		"INSERT INTO saved_cocktails (user_id, name, cocktail, inputs, image_url) VALUES ($1, $2, $3, $4, $5) RETURNING "+savedCocktailColumns,
		userID, c.Name, cocktailJSON, inputsJSON, imageURL,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("failed to save cocktail: %w", err)
	}
	return row.toSavedCocktail()
}

// DeleteSavedCocktail deletes one of the member's cocktails. It returns nil
// when no cocktail with that id belongs to the member.
func (s *PostgresStore) DeleteSavedCocktail(ctx context.Context, userID string, id int64) (*SavedCocktail, error) {
	var row savedCocktailRow
	err := s.db.QueryRowxContext(ctx,
		"DELETE FROM saved_cocktails WHERE id = $1 AND user_id = $2 RETURNING "+savedCocktailColumns,
		id, userID,
	).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete saved cocktail: %w", err)
	}
	return row.toSavedCocktail()
}

// GetCocktailImage retrieves a generated image by request hash. It returns an
// empty string when none is stored.
func (s *PostgresStore) GetCocktailImage(ctx context.Context, requestHash string) (string, error) {
	var imageData string
	err := s.db.QueryRowContext(ctx, "SELECT image_data FROM cocktail_images WHERE request_hash = $1", requestHash).Scan(&imageData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // Image not generated yet
		}
		return "", fmt.Errorf("failed to get cocktail image: %w", err)
	}
	return imageData, nil
}

// SaveCocktailImage stores a generated image under its request hash.
func (s *PostgresStore) SaveCocktailImage(ctx context.Context, requestHash, imageData string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cocktail_images (request_hash, image_data) VALUES ($1, $2) ON CONFLICT (request_hash) DO UPDATE SET image_data = $2",
		requestHash, imageData,
	)
	if err != nil {
		return fmt.Errorf("failed to save cocktail image: %w", err)
	}
	return nil
}
