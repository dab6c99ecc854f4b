// Package identity は認証済みクレームから呼び出し元のロールと表示名を解決する。
// ロールはトークンではなくprofilesの現在値を参照し、短いTTLのキャッシュを挟む。
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// Claims は上流の認証基盤が検証したトークンのクレーム。
type Claims struct {
	Subject string
	Email   string
	Role    model.Role
}

// Resolver は呼び出し元情報の解決とロール変更を提供する。
type Resolver struct {
	profiles repository.ProfileRepository
	cache    Cache
}

// NewResolver はResolverを生成する。cacheがnilの場合はデフォルトTTLのMemoryCacheを使用する。
func NewResolver(profiles repository.ProfileRepository, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL, nil)
	}
	return &Resolver{profiles: profiles, cache: cache}
}

// Available はデータストアが設定されているかを返す。
func (r *Resolver) Available() bool {
	return r.profiles != nil
}

// Resolve はクレームから呼び出し元情報を解決する。
// プロフィールが無い場合はnilを返す。
// データストア未設定の場合はクレームの内容をそのまま使用する。
func (r *Resolver) Resolve(ctx context.Context, claims Claims) (*model.Caller, error) {
	if r.profiles == nil {
		return &model.Caller{
			UserID: claims.Subject,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	cached, ok, err := r.cache.Get(ctx, claims.Subject)
	if err != nil {
		slog.Warn("呼び出し元キャッシュの取得に失敗しました",
			slog.String("user_id", claims.Subject),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		return cached, nil
	}

	p, err := r.profiles.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	caller := &model.Caller{
		UserID:      p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
	}
	if err := r.cache.Set(ctx, caller); err != nil {
		slog.Warn("呼び出し元キャッシュの保存に失敗しました",
			slog.String("user_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
	return caller, nil
}

// ChangeRole はユーザーのロールを変更し、キャッシュを無効化する。adminのみ実行できる。
func (r *Resolver) ChangeRole(ctx context.Context, actor model.Caller, userID, role string) (*model.Profile, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.NewRoleForbiddenError()
	}
	newRole, ok := model.ParseRole(role)
	if !ok {
		return nil, model.NewValidationError([]model.FieldError{{Field: "role", Reason: "oneof=journalist editor manager admin"}})
	}
	if r.profiles == nil {
		return nil, nil
	}

	p, err := r.profiles.UpdateRole(ctx, userID, newRole)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError(userID)
	}

	if err := r.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("呼び出し元キャッシュの無効化に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("ロールを変更しました",
		slog.String("user_id", userID),
		slog.String("role", string(newRole)),
		slog.String("changed_by", actor.UserID),
	)
	return p, nil
}
