package model

import "time"

// CollaboratorRole は共同編集者の種別を表す。
// 現在の権限判定ではcontributorとco_authorに差はなく、表示用の情報として扱う。
type CollaboratorRole string

const (
	// CollaboratorContributor は寄稿者。
	CollaboratorContributor CollaboratorRole = "contributor"
	// CollaboratorCoAuthor は共著者。
	CollaboratorCoAuthor CollaboratorRole = "co_author"
)

// IsValid は既知の共同編集者種別かを返す。
func (r CollaboratorRole) IsValid() bool {
	return r == CollaboratorContributor || r == CollaboratorCoAuthor
}

// Collaborator は記事に明示的に招待された共同編集者を表す。
// (article_id, user_id)で一意。
type Collaborator struct {
	ID        string
	ArticleID string
	UserID    string
	Role      CollaboratorRole
	AddedBy   string
	CreatedAt time.Time

	// profilesとのJOIN結果
	Email       string
	DisplayName string
}
