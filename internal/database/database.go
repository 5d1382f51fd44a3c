package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "physics_user")
	password := getEnv("DB_PASSWORD", "physics_password")
	dbname := getEnv("DB_NAME", "physics_daily")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		display_name VARCHAR(255) NOT NULL,
		country VARCHAR(2),
		password VARCHAR(255) NOT NULL,
		total_xp BIGINT NOT NULL DEFAULT 0,
		last_award_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS xp_logs (
		id          VARCHAR(64) PRIMARY KEY,
		user_id     VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		country     VARCHAR(2),
		amount      INT NOT NULL,
		reason      VARCHAR(50) NOT NULL,
		meta        JSONB,
		server_ts   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		client_ts   TIMESTAMP WITH TIME ZONE NOT NULL
	);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Both timestamp indexes matter: ranking windows query each column
	// separately. The totals index serves the all-time fallback.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_xp_logs_server_ts ON xp_logs(server_ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_xp_logs_client_ts ON xp_logs(client_ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_xp_logs_user ON xp_logs(user_id, server_ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_users_total_xp ON users(total_xp DESC) WHERE total_xp > 0`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
