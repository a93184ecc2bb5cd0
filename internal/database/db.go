package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// ticketTable is the shared column layout of the three ticket
// collections (active, archive, support).
const ticketTable = `(
	id			   VARCHAR(36)	PRIMARY KEY,
	title		   VARCHAR(255) NOT NULL,
	description	   TEXT,
	creator		   VARCHAR(36)	NOT NULL,
	priority	   VARCHAR(16)	NOT NULL DEFAULT 'Low',
	status		   VARCHAR(16)	NOT NULL,
	type		   VARCHAR(16)	NOT NULL,
	project_id	   VARCHAR(36),
	project_title  VARCHAR(255),
	developer_id   VARCHAR(36),
	developer_name VARCHAR(255),
	ticket_history JSON,
	comments	   JSON,
	created_at	   DATETIME NOT NULL,
	updated_at	   DATETIME NOT NULL,
	INDEX idx_creator (creator),
	INDEX idx_developer (developer_id)
) CHARACTER SET utf8mb4`

const projectTable = `(
	id			VARCHAR(36)	 PRIMARY KEY,
	title		VARCHAR(255) NOT NULL,
	description TEXT,
	creator		VARCHAR(36)	 NOT NULL,
	status		VARCHAR(16)	 NOT NULL,
	users		JSON,
	tickets		JSON,
	created_at	DATETIME NOT NULL,
	updated_at	DATETIME NOT NULL,
	INDEX idx_creator (creator)
) CHARACTER SET utf8mb4`

// EnsureSchema creates the six logical collections when they do not
// exist yet: users, active/archived projects, active/archived tickets
// and the standalone support ticket lane.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id					 VARCHAR(36)  PRIMARY KEY,
			name				 VARCHAR(255) NOT NULL,
			email				 VARCHAR(255) NOT NULL UNIQUE,
			password_hash		 VARCHAR(255) NOT NULL,
			verified			 TINYINT(1)	  NOT NULL DEFAULT 0,
			google_user			 TINYINT(1)	  NOT NULL DEFAULT 0,
			notifications		 JSON,
			unread_notifications INT		  NOT NULL DEFAULT 0,
			created_at			 DATETIME NOT NULL,
			updated_at			 DATETIME NOT NULL
		) CHARACTER SET utf8mb4`,
		"CREATE TABLE IF NOT EXISTS projects " + projectTable,
		"CREATE TABLE IF NOT EXISTS project_archive " + projectTable,
		"CREATE TABLE IF NOT EXISTS tickets " + ticketTable,
		"CREATE TABLE IF NOT EXISTS ticket_archive " + ticketTable,
		"CREATE TABLE IF NOT EXISTS support_tickets " + ticketTable,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
