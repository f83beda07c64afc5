package dbhandler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/behrang/sqlbatch"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"supplypool/infrastructure/logger"
)

const schemaSQL = `
	create table if not exists pool_state (
		id             integer primary key check (id = 1),
		operator       text not null,
		total_shares   numeric(78, 0) not null,
		total_locked   numeric(78, 0) not null,
		total_earnings numeric(78, 0) not null,
		epoch          bigint not null,
		epoch_shares   numeric(78, 0) not null,
		epoch_locked   numeric(78, 0) not null,
		update_time    timestamptz not null
	);

	create table if not exists pool_accounts (
		address     text primary key,
		shares      numeric(78, 0) not null,
		principal   numeric(78, 0) not null,
		epoch       bigint not null,
		update_time timestamptz not null
	);

	create table if not exists pool_operations (
		id          bigserial primary key,
		kind        text not null,
		address     text not null,
		amount      numeric(78, 0) not null,
		shares      numeric(78, 0) not null,
		create_time timestamptz not null
	);

	create index if not exists pool_operations_address_idx on pool_operations (address, create_time);

	create table if not exists memos (
		key  text primary key,
		memo jsonb not null
	);
`

// DBHandler contains a connection to database.
type DBHandler struct {
	DB *sql.DB

	logger zerolog.Logger
}

// Open connects to Postgres and checks the connection.
func Open(ctx context.Context, uri string) (*DBHandler, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

func New(db *sql.DB) *DBHandler {
	return &DBHandler{
		DB:     db,
		logger: logger.GetForComponent("dbhandler"),
	}
}

// EnsureSchema creates the pool tables if they don't exist.
func (handler *DBHandler) EnsureSchema(ctx context.Context) error {
	if _, err := handler.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (handler *DBHandler) Close() error {
	return handler.DB.Close()
}

// Batch creates a transaction and executes the batch of commands in that transaction.
// If a retryable error is received, the batch is retried.
func (handler *DBHandler) Batch(ctx context.Context, opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error) {

	for {
		results, err := handler.tryBatch(ctx, opts, commands)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "40001" && ctx.Err() == nil {
			handler.logger.Warn().Err(err).Msg("🟡 Retryable Postgres error, retrying")
			continue
		}
		return results, err
	}
}

func (handler *DBHandler) tryBatch(ctx context.Context, opts *sql.TxOptions, commands []sqlbatch.Command) (results []interface{}, err error) {

	results = make([]interface{}, len(commands))

	tx, err := handler.DB.BeginTx(ctx, opts)
	if err != nil {
		return
	}
	defer tx.Rollback()

	results, err = sqlbatch.Batch(tx, commands)

	if err == nil {
		err = tx.Commit()
	}

	return
}
