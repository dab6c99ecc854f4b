package model

import "time"

// ArticleRevision は記事の編集可能フィールドのスナップショット。
// versionは記事ごとに単調増加し、剪定後も再利用されない。書き込み後は不変。
type ArticleRevision struct {
	ID        string
	ArticleID string
	Version   int
	Title     string
	Excerpt   string
	Content   string
	CreatedBy string
	CreatedAt time.Time
}

// RevisionPage はリビジョン一覧のページを表す。
type RevisionPage struct {
	Items []*ArticleRevision
	Total int
	Page  int
	Limit int
}
