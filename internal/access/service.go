package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// EditChecker は編集権限の判定インターフェース。
// 他のコンポーネントは変更操作の前にこれを呼び出す。
type EditChecker interface {
	CanEdit(ctx context.Context, articleID, userID string, role model.Role) (bool, error)
}

// Service は共同編集者名簿の管理を提供する。
type Service struct {
	policy        EditChecker
	articles      repository.ArticleRepository
	collaborators repository.CollaboratorRepository
	profiles      repository.ProfileRepository
	now           func() time.Time
}

// NewService はServiceを生成する。
// リポジトリがnilの場合はデータストア未設定として扱う。
func NewService(
	policy EditChecker,
	articles repository.ArticleRepository,
	collaborators repository.CollaboratorRepository,
	profiles repository.ProfileRepository,
) *Service {
	return &Service{
		policy:        policy,
		articles:      articles,
		collaborators: collaborators,
		profiles:      profiles,
		now:           time.Now,
	}
}

// Available は名簿の管理に必要なデータストアが設定されているかを返す。
func (s *Service) Available() bool {
	return s.collaborators != nil && s.articles != nil
}

// CanEdit はPolicyに判定を委譲する。
func (s *Service) CanEdit(ctx context.Context, articleID, userID string, role model.Role) (bool, error) {
	return s.policy.CanEdit(ctx, articleID, userID, role)
}

// RequireArticle は記事が存在しない場合にARTICLE_NOT_FOUNDを返す。
// データストア未設定の場合は確認しない。
func (s *Service) RequireArticle(ctx context.Context, articleID string) error {
	if s.articles == nil {
		return nil
	}
	authorID, err := s.articles.FindAuthorID(ctx, articleID)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if authorID == "" {
		return model.NewArticleNotFoundError(articleID)
	}
	return nil
}

// RequireEdit は記事の存在を確認したうえで呼び出し元の編集権限を判定する。
// 記事がなければARTICLE_NOT_FOUND、権限がなければEDIT_FORBIDDENを返す。
func (s *Service) RequireEdit(ctx context.Context, caller model.Caller, articleID string) error {
	if err := s.RequireArticle(ctx, articleID); err != nil {
		return err
	}
	ok, err := s.policy.CanEdit(ctx, articleID, caller.UserID, caller.Role)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewEditForbiddenError()
	}
	return nil
}

// FindUserByEmail はメールアドレスをスタッフのプロフィールに解決する。
// 該当者がいない、またはスタッフでない場合はnilを返す。
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*model.Profile, error) {
	if s.profiles == nil {
		return nil, nil
	}
	p, err := s.profiles.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるユーザー検索に失敗しました: %w", err)
	}
	if p == nil || !p.Role.IsStaff() {
		return nil, nil
	}
	return p, nil
}

// AddCollaborator はメールアドレスで指定したユーザーを共同編集者として追加する。
// 既に共同編集者の場合はroleを更新する。
// データストア未設定の場合はnilを返す。
func (s *Service) AddCollaborator(ctx context.Context, caller model.Caller, articleID, email string, role model.CollaboratorRole) (*model.Collaborator, error) {
	if s.collaborators == nil || s.articles == nil {
		return nil, nil
	}
	if role == "" {
		role = model.CollaboratorContributor
	}

	if err := s.RequireEdit(ctx, caller, articleID); err != nil {
		return nil, err
	}

	target, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, model.NewUserEmailNotFoundError(email)
	}

	c, err := s.collaborators.Upsert(ctx, &model.Collaborator{
		ID:          uuid.New().String(),
		ArticleID:   articleID,
		UserID:      target.ID,
		Role:        role,
		AddedBy:     caller.UserID,
		CreatedAt:   s.now(),
		Email:       target.Email,
		DisplayName: target.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("共同編集者の追加に失敗しました: %w", err)
	}

	slog.Info("共同編集者を追加しました",
		slog.String("article_id", articleID),
		slog.String("user_id", target.ID),
		slog.String("role", string(role)),
		slog.String("added_by", caller.UserID),
	)
	return c, nil
}

// RemoveCollaborator は共同編集者を削除する。
// 自分自身の削除は編集権限に関係なく許可する。それ以外は編集権限が必要。
// 記事が存在しない場合はARTICLE_NOT_FOUND、名簿に存在しなかった場合はfalseを返す。
func (s *Service) RemoveCollaborator(ctx context.Context, caller model.Caller, articleID, userID string) (bool, error) {
	if s.collaborators == nil {
		return false, nil
	}

	if userID == caller.UserID {
		if err := s.RequireArticle(ctx, articleID); err != nil {
			return false, err
		}
	} else if err := s.RequireEdit(ctx, caller, articleID); err != nil {
		return false, err
	}

	removed, err := s.collaborators.Delete(ctx, articleID, userID)
	if err != nil {
		return false, fmt.Errorf("共同編集者の削除に失敗しました: %w", err)
	}
	if removed {
		slog.Info("共同編集者を削除しました",
			slog.String("article_id", articleID),
			slog.String("user_id", userID),
			slog.String("removed_by", caller.UserID),
		)
	}
	return removed, nil
}

// ListCollaborators は記事の共同編集者一覧を返す。
func (s *Service) ListCollaborators(ctx context.Context, articleID string) ([]*model.Collaborator, error) {
	if s.collaborators == nil {
		return []*model.Collaborator{}, nil
	}
	list, err := s.collaborators.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("共同編集者一覧の取得に失敗しました: %w", err)
	}
	if list == nil {
		list = []*model.Collaborator{}
	}
	return list, nil
}
