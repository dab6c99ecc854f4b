package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// queryer は*sql.DBと*sql.Txに共通する問い合わせメソッド。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// validID はidがUUIDとして解釈できるかを返す。
// 各リポジトリは解釈できないIDを問い合わせずに「見つからない」として扱う。
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var (
	_ queryer = (*sql.DB)(nil)
	_ queryer = (*sql.Tx)(nil)
)
