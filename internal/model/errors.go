// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, lock, revision, collaboration, editorial, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // バリデーションエラーのフィールド詳細
}

// FieldError はリクエストボディのフィールド単位のバリデーションエラー。
type FieldError struct {
	Field  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleLocked            = "ARTICLE_LOCKED"
	ErrCodeNotLockHolder            = "NOT_LOCK_HOLDER"
	ErrCodeEditForbidden            = "EDIT_FORBIDDEN"
	ErrCodeArticleNotFound          = "ARTICLE_NOT_FOUND"
	ErrCodeRevisionNotFound         = "REVISION_NOT_FOUND"
	ErrCodeUserEmailNotFound        = "USER_EMAIL_NOT_FOUND"
	ErrCodeCollaboratorNotFound     = "COLLABORATOR_NOT_FOUND"
	ErrCodeEditorialCommentNotFound = "EDITORIAL_COMMENT_NOT_FOUND"
	ErrCodeCommentDeleteForbidden   = "COMMENT_DELETE_FORBIDDEN"
	ErrCodeValidationFailed         = "VALIDATION_FAILED"
	ErrCodeRoleForbidden            = "ROLE_FORBIDDEN"
	ErrCodeProfileNotFound          = "PROFILE_NOT_FOUND"
	ErrCodeStoreUnavailable         = "STORE_UNAVAILABLE"
)

// NewArticleLockedError は他のユーザーが記事をロック中である場合のエラーを生成する。
func NewArticleLockedError(holderName string) *APIError {
	msg := "この記事は他のユーザーが編集中です。"
	if holderName != "" {
		msg = fmt.Sprintf("この記事は%sさんが編集中です。", holderName)
	}
	return &APIError{
		Code:     ErrCodeArticleLocked,
		Message:  msg,
		Category: "lock",
		Action:   "編集が終わるのを待つか、編集者に連絡してください。",
	}
}

// NewNotLockHolderError はロック保持者以外が更新・解放しようとした場合のエラーを生成する。
func NewNotLockHolderError() *APIError {
	return &APIError{
		Code:     ErrCodeNotLockHolder,
		Message:  "この記事のロックを保持していません。",
		Category: "lock",
		Action:   "記事を開き直してロックを取得してください。",
	}
}

// NewEditForbiddenError は記事の編集権限がない場合のエラーを生成する。
func NewEditForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeEditForbidden,
		Message:  "この記事を編集する権限がありません。",
		Category: "collaboration",
		Action:   "記事の執筆者に共同編集者として追加してもらってください。",
	}
}

// NewArticleNotFoundError は記事が見つからない場合のエラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "revision",
		Action:   "記事IDを確認してください。",
	}
}

// NewRevisionNotFoundError はリビジョンが見つからない場合のエラーを生成する。
func NewRevisionNotFoundError(version int) *APIError {
	return &APIError{
		Code:     ErrCodeRevisionNotFound,
		Message:  fmt.Sprintf("指定されたリビジョンが見つかりません: v%d", version),
		Category: "revision",
		Action:   "保持されているのは直近のリビジョンのみです。一覧から選択してください。",
	}
}

// NewUserEmailNotFoundError はメールアドレスに該当するスタッフがいない場合のエラーを生成する。
func NewUserEmailNotFoundError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeUserEmailNotFound,
		Message:  fmt.Sprintf("このメールアドレスのユーザーが見つかりません: %s", email),
		Category: "collaboration",
		Action:   "スタッフアカウントのメールアドレスを入力してください。",
	}
}

// NewCollaboratorNotFoundError は共同編集者名簿に該当者がいない場合のエラーを生成する。
func NewCollaboratorNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeCollaboratorNotFound,
		Message:  fmt.Sprintf("指定されたユーザーは共同編集者ではありません: %s", userID),
		Category: "collaboration",
		Action:   "共同編集者一覧を更新してください。",
	}
}

// NewEditorialCommentNotFoundError は編集コメントが見つからない場合のエラーを生成する。
func NewEditorialCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeEditorialCommentNotFound,
		Message:  fmt.Sprintf("指定された編集コメントが見つかりません: %s", commentID),
		Category: "editorial",
		Action:   "コメントIDを確認してください。",
	}
}

// NewCommentDeleteForbiddenError は編集コメントの削除権限がない場合のエラーを生成する。
func NewCommentDeleteForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeCommentDeleteForbidden,
		Message:  "この編集コメントを削除する権限がありません。",
		Category: "editorial",
		Action:   "コメントの投稿者または編集者に削除を依頼してください。",
	}
}

// NewValidationError はリクエストボディのバリデーションエラーを生成する。
func NewValidationError(fields []FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各項目の内容を確認してください。",
		Fields:   fields,
	}
}

// NewRoleForbiddenError はロールが操作に必要な権限を満たさない場合のエラーを生成する。
func NewRoleForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeRoleForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewStoreUnavailableError はデータストアが未設定の場合のエラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアが利用できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
