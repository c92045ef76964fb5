package database

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

func Connect() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	// Create the connection pool
	var err error
	Pool, err = pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	err = Pool.Ping(context.Background())
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully using PGX")
	return nil
}

// Migrate creates the schema if it does not exist yet
func Migrate() error {
	_, err := Pool.Exec(context.Background(), schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database schema up to date")
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}

// Document-shaped fields (creator, participants, reactions, categories)
// live in JSONB columns so they update as single fields, last write wins.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	unique_id     TEXT UNIQUE NOT NULL,
	email         TEXT UNIQUE NOT NULL,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	image         TEXT,
	status        TEXT NOT NULL DEFAULT 'available',
	role          TEXT NOT NULL DEFAULT 'user',
	bio           TEXT,
	social        JSONB,
	location      JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS meetups (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL,
	time             TIMESTAMPTZ NOT NULL,
	creator_id       TEXT NOT NULL,
	creator          JSONB NOT NULL,
	is_public        BOOLEAN NOT NULL DEFAULT true,
	image_url        TEXT,
	participants     JSONB NOT NULL DEFAULT '[]',
	max_participants INTEGER,
	status           TEXT NOT NULL DEFAULT 'active',
	archived         BOOLEAN NOT NULL DEFAULT false,
	categories       JSONB NOT NULL DEFAULT '[]',
	reactions        JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meetups_active ON meetups (time DESC) WHERE archived = false;

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	meetup_id  TEXT NOT NULL REFERENCES meetups(id),
	text       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	user_name  TEXT NOT NULL,
	user_image TEXT,
	timestamp  BIGINT NOT NULL,
	reactions  JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_messages_meetup ON messages (meetup_id, timestamp);

CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	meetup_id   TEXT NOT NULL,
	reporter_id TEXT NOT NULL,
	reason      TEXT NOT NULL,
	details     TEXT,
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	message    TEXT NOT NULL,
	email      TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
`
