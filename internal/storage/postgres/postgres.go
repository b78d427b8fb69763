package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/princekumarofficial/media-service/internal/config"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	return Open(ctx, cfg.PGSQL.DSN())
}

// Open connects with a lib/pq DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	slog.Info("Connected to Postgres database")
	return &Postgres{Db: db}, nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}
