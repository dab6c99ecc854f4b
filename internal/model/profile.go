// Package model はドメインモデルを定義する。
package model

import "time"

// Role はスタッフアカウントのグローバルロールを表す。
type Role string

const (
	// RoleJournalist は記者ロール。自分の記事と共同編集者として招待された記事のみ編集できる。
	RoleJournalist Role = "journalist"
	// RoleEditor は編集者ロール。
	RoleEditor Role = "editor"
	// RoleManager はマネージャーロール。
	RoleManager Role = "manager"
	// RoleAdmin は管理者ロール。
	RoleAdmin Role = "admin"
	// RoleReader は読者アカウント。編集コアは利用できない。
	RoleReader Role = "reader"
)

// IsPrivileged は記事ごとの権限チェックを迂回できるロールかどうかを返す。
// editor、manager、adminが該当する。
func (r Role) IsPrivileged() bool {
	switch r {
	case RoleEditor, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff は編集コアを利用できるスタッフロールかどうかを返す。
func (r Role) IsStaff() bool {
	return r == RoleJournalist || r.IsPrivileged()
}

// ParseRole は文字列をRoleに変換する。未知のロールの場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.IsStaff() {
		return "", false
	}
	return r, true
}

// Profile はスタッフアカウントのプロフィールを表す。
// 認証基盤側で管理され、編集コアはロールと表示名の参照にのみ使用する。
type Profile struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	UpdatedAt   time.Time
}

// Caller は認証済みの呼び出し元を表す。
// 上流の認証基盤が検証したクレームとプロフィールから解決され、編集コアでは信頼済みの入力として扱う。
type Caller struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}
