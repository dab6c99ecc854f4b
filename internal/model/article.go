// Package model はドメインモデルを定義する。
package model

import "time"

// Article は編集対象の記事を表す。
// 記事本体のCRUDは周辺のレイヤーが担い、編集コアは保存と復元の際にのみ更新する。
type Article struct {
	ID          string
	AuthorID    string
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	Version     int
	LastSavedBy string
	UpdatedAt   time.Time
}

// ArticleSummary は通知一覧のリンク表示に必要な記事情報。
type ArticleSummary struct {
	ID    string
	Title string
	Slug  string
}

// ReaderCommentStatus は読者コメントのモデレーション状態を表す。
type ReaderCommentStatus string

const (
	// ReaderCommentPending はモデレーション待ちの読者コメント。
	ReaderCommentPending ReaderCommentStatus = "pending"
	// ReaderCommentApproved は承認済みの読者コメント。
	ReaderCommentApproved ReaderCommentStatus = "approved"
	// ReaderCommentRejected は却下された読者コメント。
	ReaderCommentRejected ReaderCommentStatus = "rejected"
)
