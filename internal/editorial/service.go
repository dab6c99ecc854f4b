// Package editorial は記事に対する編集部内コメントのスレッドを管理する。
// コメントは記事そのものへの変更ではなく記事についてのフィードバックとして扱う。
package editorial

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
	"github.com/ngucho/scoop-afrique-sub001/internal/security"
)

// DefaultMaxBodyLength は本文の最大文字数のデフォルト値。
const DefaultMaxBodyLength = 5000

// EditGuard は記事の存在と編集権限をまとめて確認するインターフェース。
// 記事が無ければARTICLE_NOT_FOUND、権限が無ければEDIT_FORBIDDENを返す。
type EditGuard interface {
	RequireEdit(ctx context.Context, caller model.Caller, articleID string) error
}

// Service は編集コメントの追加・一覧・解決・削除を提供する。
// commentsがnilの場合はデータストア未設定として扱う。
type Service struct {
	comments  repository.EditorialCommentRepository
	access    EditGuard
	sanitizer security.ContentSanitizer
	maxLength int
	now       func() time.Time
}

// NewService はServiceを生成する。maxLengthが0以下の場合はDefaultMaxBodyLengthを使用する。
func NewService(
	comments repository.EditorialCommentRepository,
	access EditGuard,
	sanitizer security.ContentSanitizer,
	maxLength int,
) *Service {
	if maxLength <= 0 {
		maxLength = DefaultMaxBodyLength
	}
	return &Service{
		comments:  comments,
		access:    access,
		sanitizer: sanitizer,
		maxLength: maxLength,
		now:       time.Now,
	}
}

// Available はデータストアが設定されているかを返す。
func (s *Service) Available() bool {
	return s.comments != nil
}

// Add は記事に編集コメントを追加する。
// 本文はサニタイズ後に空でないこと、最大文字数以下であることを検証する。
func (s *Service) Add(ctx context.Context, caller model.Caller, articleID, body string) (*model.EditorialComment, error) {
	clean := s.sanitizer.Sanitize(body)
	switch {
	case clean == "":
		return nil, model.NewValidationError([]model.FieldError{{Field: "body", Reason: "required"}})
	case utf8.RuneCountInString(clean) > s.maxLength:
		return nil, model.NewValidationError([]model.FieldError{{Field: "body", Reason: fmt.Sprintf("max=%d", s.maxLength)}})
	}

	if s.comments == nil {
		return nil, nil
	}

	if err := s.access.RequireEdit(ctx, caller, articleID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.EditorialComment{
		ID:         uuid.New().String(),
		ArticleID:  articleID,
		AuthorID:   caller.UserID,
		Body:       clean,
		CreatedAt:  now,
		UpdatedAt:  now,
		AuthorName: caller.DisplayName,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("編集コメントの作成に失敗しました: %w", err)
	}
	return c, nil
}

// List は記事の編集コメントを古い順に返す。
// includeResolvedがfalseの場合は未解決のもののみを返す。
func (s *Service) List(ctx context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, error) {
	if s.comments == nil {
		return []*model.EditorialComment{}, nil
	}
	list, err := s.comments.ListByArticle(ctx, articleID, includeResolved)
	if err != nil {
		return nil, fmt.Errorf("編集コメント一覧の取得に失敗しました: %w", err)
	}
	if list == nil {
		list = []*model.EditorialComment{}
	}
	return list, nil
}

// Resolve は編集コメントを解決済みにする。解決の取り消しはできない。
// コメントが無い、または別の記事のコメントの場合はnilを返す。
func (s *Service) Resolve(ctx context.Context, caller model.Caller, articleID, commentID string) (*model.EditorialComment, error) {
	if s.comments == nil {
		return nil, nil
	}

	existing, err := s.find(ctx, articleID, commentID)
	if err != nil || existing == nil {
		return nil, err
	}

	if err := s.access.RequireEdit(ctx, caller, articleID); err != nil {
		return nil, err
	}

	c, err := s.comments.Resolve(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("編集コメントの解決に失敗しました: %w", err)
	}
	return c, nil
}

// Delete は編集コメントを削除する。
// editor、manager、adminは全てのコメントを、それ以外は自分のコメントのみ削除できる。
// コメントが無い、または別の記事のコメントの場合はEDITORIAL_COMMENT_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, caller model.Caller, articleID, commentID string) (bool, error) {
	if s.comments == nil {
		return false, nil
	}

	existing, err := s.find(ctx, articleID, commentID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, model.NewEditorialCommentNotFoundError(commentID)
	}
	if !caller.Role.IsPrivileged() && existing.AuthorID != caller.UserID {
		return false, model.NewCommentDeleteForbiddenError()
	}

	deleted, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return false, fmt.Errorf("編集コメントの削除に失敗しました: %w", err)
	}
	if deleted {
		slog.Info("編集コメントを削除しました",
			slog.String("article_id", articleID),
			slog.String("comment_id", commentID),
			slog.String("deleted_by", caller.UserID),
		)
	}
	return deleted, nil
}

// CountUnresolved は記事の未解決コメント数を返す。
func (s *Service) CountUnresolved(ctx context.Context, articleID string) (int, error) {
	if s.comments == nil {
		return 0, nil
	}
	n, err := s.comments.CountUnresolved(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("未解決コメント数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// find はコメントを取得し、別の記事のものであればnilを返す。
func (s *Service) find(ctx context.Context, articleID, commentID string) (*model.EditorialComment, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("編集コメントの取得に失敗しました: %w", err)
	}
	if c == nil || c.ArticleID != articleID {
		return nil, nil
	}
	return c, nil
}
