package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

// InitPostgres открывает пул соединений и проверяет его ping-ом.
func InitPostgres(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	Pool = pool
	return nil
}

func ClosePostgres() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
