// Package revision は記事リビジョンの記録、一覧、復元を提供する。
// versionは記事ごとに max+1 で採番し、保存のたびに直近keep件を残して古いものを剪定する。
package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ngucho/scoop-afrique-sub001/internal/metrics"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

const (
	// DefaultKeep は記事ごとに保持するリビジョン数のデフォルト値。
	DefaultKeep = 3
	// DefaultPageSize は一覧取得時のデフォルトの件数。
	DefaultPageSize = 20
	// DefaultPageSizeMax は一覧取得時の件数の上限のデフォルト値。
	DefaultPageSizeMax = 50

	// maxInsertAttempts は採番競合時の最大試行回数。
	maxInsertAttempts = 5
)

// Store はリビジョンの永続化と剪定を行う。
// revisionsがnilの場合はデータストア未設定として扱う。
type Store struct {
	revisions   repository.RevisionRepository
	articles    repository.ArticleRepository
	keep        int
	pageSizeMax int
	now         func() time.Time
	metrics     metrics.MetricsCollector
}

// Option はStoreの設定を変更する。
type Option func(*Store)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics はメトリクスコレクターを設定する。
func WithMetrics(c metrics.MetricsCollector) Option {
	return func(s *Store) { s.metrics = c }
}

// WithPageSizeMax は一覧取得時の件数の上限を設定する。
func WithPageSizeMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSizeMax = n
		}
	}
}

// NewStore はStoreを生成する。keepが1未満の場合はDefaultKeepを使用する。
func NewStore(revisions repository.RevisionRepository, articles repository.ArticleRepository, keep int, opts ...Option) *Store {
	if keep < 1 {
		keep = DefaultKeep
	}
	s := &Store{
		revisions:   revisions,
		articles:    articles,
		keep:        keep,
		pageSizeMax: DefaultPageSizeMax,
		now:         time.Now,
		metrics:     metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available はデータストアが設定されているかを返す。
func (s *Store) Available() bool {
	return s.revisions != nil && s.articles != nil
}

// CreateRevision は記事の新しいリビジョンを記録し、古いリビジョンを剪定する。
// 記事本体は更新しない。採番が競合した場合は再試行する。データストア未設定の場合はnilを返す。
func (s *Store) CreateRevision(ctx context.Context, articleID, title, excerpt, content, userID string) (*model.ArticleRevision, error) {
	if s.revisions == nil {
		return nil, nil
	}

	rev, err := s.insertWithRetry(ctx, articleID, title, excerpt, content, userID, s.revisions.Insert)
	if err != nil {
		return nil, fmt.Errorf("リビジョンの作成に失敗しました: %w", err)
	}
	s.metrics.RecordRevisionCreated()

	s.prune(ctx, articleID)
	return rev, nil
}

// insertWithRetry はinsertでリビジョンを記録する。ErrVersionConflictの間は新しい行で再試行する。
func (s *Store) insertWithRetry(ctx context.Context, articleID, title, excerpt, content, userID string, insert func(context.Context, *model.ArticleRevision) error) (*model.ArticleRevision, error) {
	for attempt := 1; ; attempt++ {
		rev := &model.ArticleRevision{
			ID:        uuid.New().String(),
			ArticleID: articleID,
			Title:     title,
			Excerpt:   excerpt,
			Content:   content,
			CreatedBy: userID,
			CreatedAt: s.now(),
		}
		err := insert(ctx, rev)
		if err == nil {
			return rev, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		s.metrics.RecordVersionConflict()
		slog.Warn("リビジョン番号が競合しました",
			slog.String("article_id", articleID),
			slog.Int("attempt", attempt),
		)
		if attempt >= maxInsertAttempts {
			return nil, err
		}
	}
}

// prune は直近keep件より古いリビジョンを削除する。
// 剪定の失敗は保存自体を失敗させず、ログに記録する。
func (s *Store) prune(ctx context.Context, articleID string) {
	versions, err := s.revisions.LatestVersions(ctx, articleID, s.keep)
	if err != nil {
		slog.Error("リビジョンの剪定に失敗しました",
			slog.String("article_id", articleID),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(versions) < s.keep {
		return
	}

	// versionsは降順
	minVersion := versions[len(versions)-1]
	n, err := s.revisions.DeleteOlderThan(ctx, articleID, minVersion)
	if err != nil {
		slog.Error("リビジョンの剪定に失敗しました",
			slog.String("article_id", articleID),
			slog.String("error", err.Error()),
		)
		return
	}
	if n > 0 {
		s.metrics.RecordRevisionsPruned(n)
		slog.Info("古いリビジョンを削除しました",
			slog.String("article_id", articleID),
			slog.Int64("deleted", n),
			slog.Int("min_version", minVersion),
		)
	}
}

// ListRevisions は記事のリビジョンを新しい順にページ単位で返す。
// pageは1始まり。limitは上限で切り詰める。
func (s *Store) ListRevisions(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > s.pageSizeMax {
		limit = s.pageSizeMax
	}

	result := &model.RevisionPage{
		Items: []*model.ArticleRevision{},
		Page:  page,
		Limit: limit,
	}
	if s.revisions == nil {
		return result, nil
	}

	total, err := s.revisions.CountByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("リビジョン数の取得に失敗しました: %w", err)
	}
	result.Total = total

	items, err := s.revisions.ListByArticle(ctx, articleID, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("リビジョン一覧の取得に失敗しました: %w", err)
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}

// GetRevision は記事の指定バージョンのリビジョンを返す。見つからない場合はnilを返す。
func (s *Store) GetRevision(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error) {
	if s.revisions == nil {
		return nil, nil
	}
	rev, err := s.revisions.FindByVersion(ctx, articleID, version)
	if err != nil {
		return nil, fmt.Errorf("リビジョンの取得に失敗しました: %w", err)
	}
	return rev, nil
}

// Commit は新しいリビジョンを記録し、その内容を記事本体に書き込む。
// 記録と書き込みは1つのトランザクションで行う。
// 他のユーザーが未失効のロックを保持していた場合は何も記録せずARTICLE_LOCKEDを返す。
// 剪定は書き込みが成功した場合のみ行う。
func (s *Store) Commit(ctx context.Context, articleID, title, excerpt, content, userID string) (*model.ArticleRevision, error) {
	if !s.Available() {
		return nil, nil
	}

	applied := false
	rev, err := s.insertWithRetry(ctx, articleID, title, excerpt, content, userID,
		func(ctx context.Context, rev *model.ArticleRevision) error {
			ok, err := s.articles.CommitRevision(ctx, rev, userID, s.now())
			applied = ok
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("記事の保存に失敗しました: %w", err)
	}
	if !applied {
		slog.Warn("ロック保持者以外のため保存しませんでした",
			slog.String("article_id", articleID),
			slog.String("user_id", userID),
		)
		return nil, model.NewArticleLockedError("")
	}
	s.metrics.RecordRevisionCreated()

	s.prune(ctx, articleID)
	return rev, nil
}

// RestoreRevision は指定バージョンの内容を新しいリビジョンとして記録し、記事本体に書き込む。
// 巻き戻しではなく前進する編集として扱うため、返すリビジョンのversionは常に最大になる。
// 対象のバージョンが見つからない場合はnilを返す。
func (s *Store) RestoreRevision(ctx context.Context, articleID string, version int, userID string) (*model.ArticleRevision, error) {
	target, err := s.GetRevision(ctx, articleID, version)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}

	rev, err := s.Commit(ctx, articleID, target.Title, target.Excerpt, target.Content, userID)
	if err != nil {
		return nil, err
	}
	if rev != nil {
		slog.Info("リビジョンを復元しました",
			slog.String("article_id", articleID),
			slog.Int("restored_version", version),
			slog.Int("new_version", rev.Version),
			slog.String("user_id", userID),
		)
	}
	return rev, nil
}
