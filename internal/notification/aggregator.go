// Package notification は執筆者向けのダッシュボード通知を呼び出し時点で集計する。
// 集計結果は保存せず、配信や既読の管理も行わない。
package notification

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// Aggregator は執筆記事に対する未解決の編集コメントとモデレーション待ちの読者コメントを集計する。
type Aggregator struct {
	articles  repository.ArticleRepository
	editorial repository.EditorialCommentRepository
	readers   repository.ReaderCommentRepository
}

// NewAggregator はAggregatorを生成する。
// いずれかのリポジトリがnilの場合は常に空の結果を返す。
func NewAggregator(
	articles repository.ArticleRepository,
	editorial repository.EditorialCommentRepository,
	readers repository.ReaderCommentRepository,
) *Aggregator {
	return &Aggregator{
		articles:  articles,
		editorial: editorial,
		readers:   readers,
	}
}

// ForAuthor は執筆者の記事ごとの件数と合計を返す。
// 件数が1件以上の記事のみを、記事一覧と同じ順で含める。
func (a *Aggregator) ForAuthor(ctx context.Context, authorID string) (*model.NotificationSummary, error) {
	summary := &model.NotificationSummary{
		Editorial:     []model.ArticleNotification{},
		ReaderPending: []model.ArticleNotification{},
	}
	if a.articles == nil || a.editorial == nil || a.readers == nil {
		return summary, nil
	}

	authored, err := a.articles.ListSummariesByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("執筆記事の取得に失敗しました: %w", err)
	}
	if len(authored) == 0 {
		return summary, nil
	}

	ids := make([]string, len(authored))
	for i, s := range authored {
		ids[i] = s.ID
	}

	var editorialCounts, pendingCounts map[string]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := a.editorial.CountUnresolvedByArticles(gctx, ids)
		if err != nil {
			return fmt.Errorf("未解決の編集コメント数の取得に失敗しました: %w", err)
		}
		editorialCounts = counts
		return nil
	})
	g.Go(func() error {
		counts, err := a.readers.CountPendingByArticles(gctx, ids)
		if err != nil {
			return fmt.Errorf("モデレーション待ちコメント数の取得に失敗しました: %w", err)
		}
		pendingCounts = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Editorial, summary.EditorialTotal = group(authored, editorialCounts)
	summary.ReaderPending, summary.ReaderPendingTotal = group(authored, pendingCounts)
	return summary, nil
}

func group(authored []model.ArticleSummary, counts map[string]int) ([]model.ArticleNotification, int) {
	out := []model.ArticleNotification{}
	total := 0
	for _, s := range authored {
		n := counts[s.ID]
		if n <= 0 {
			continue
		}
		out = append(out, model.ArticleNotification{
			ArticleID: s.ID,
			Title:     s.Title,
			Slug:      s.Slug,
			Count:     n,
		})
		total += n
	}
	return out, total
}
