package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	p := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, updated_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return p, nil
}

// FindByEmail はメールアドレスでプロフィールを検索する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, updated_at FROM profiles WHERE lower(email) = lower($1)`,
		email,
	).Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}
	return p, nil
}

// UpdateRole はプロフィールのロールを更新する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	p := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE profiles SET role = $2, updated_at = NOW() WHERE id = $1
		 RETURNING id, email, display_name, role, updated_at`,
		id, string(role),
	).Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile role: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
