package model

import "time"

// EditorialComment は記事に対するスタッフ専用の注釈。
// resolvedはfalseで始まり、trueへの一方向にのみ遷移する。
type EditorialComment struct {
	ID        string
	ArticleID string
	AuthorID  string
	Body      string
	Resolved  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// profilesとのJOIN結果
	AuthorName string
}
