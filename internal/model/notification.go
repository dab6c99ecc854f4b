package model

// ArticleNotification は記事ごとの未処理件数を表す。
type ArticleNotification struct {
	ArticleID string
	Title     string
	Slug      string
	Count     int
}

// NotificationSummary はスタッフユーザー向けの未処理作業の集計。
// 呼び出し時点のスナップショットであり、永続化されない。
type NotificationSummary struct {
	Editorial          []ArticleNotification
	EditorialTotal     int
	ReaderPending      []ArticleNotification
	ReaderPendingTotal int
}
