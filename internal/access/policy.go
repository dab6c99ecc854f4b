// Package access は記事単位の編集権限判定と共同編集者名簿の管理を提供する。
package access

import (
	"context"
	"fmt"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// Grant は編集権限を与える条件の1つ。
// 判定は副作用のない読み取りのみで行う。
type Grant interface {
	Allows(ctx context.Context, articleID, userID string, role model.Role) (bool, error)
}

// GrantFunc は関数をGrantとして扱うアダプタ。
type GrantFunc func(ctx context.Context, articleID, userID string, role model.Role) (bool, error)

// Allows はGrantインターフェースを実装する。
func (f GrantFunc) Allows(ctx context.Context, articleID, userID string, role model.Role) (bool, error) {
	return f(ctx, articleID, userID, role)
}

// PrivilegedRole はeditor、manager、adminに記事ごとの判定なしで権限を与える。
func PrivilegedRole() Grant {
	return GrantFunc(func(_ context.Context, _, _ string, role model.Role) (bool, error) {
		return role.IsPrivileged(), nil
	})
}

// Authorship は記事の執筆者に権限を与える。
func Authorship(articles repository.ArticleRepository) Grant {
	return GrantFunc(func(ctx context.Context, articleID, userID string, _ model.Role) (bool, error) {
		if articles == nil {
			return false, nil
		}
		authorID, err := articles.FindAuthorID(ctx, articleID)
		if err != nil {
			return false, fmt.Errorf("執筆者の確認に失敗しました: %w", err)
		}
		return authorID != "" && authorID == userID, nil
	})
}

// RosterMembership は共同編集者名簿に載っているユーザーに権限を与える。
// contributorとco_authorは区別しない。
func RosterMembership(collaborators repository.CollaboratorRepository) Grant {
	return GrantFunc(func(ctx context.Context, articleID, userID string, _ model.Role) (bool, error) {
		if collaborators == nil {
			return false, nil
		}
		c, err := collaborators.Find(ctx, articleID, userID)
		if err != nil {
			return false, fmt.Errorf("共同編集者の確認に失敗しました: %w", err)
		}
		return c != nil, nil
	})
}

// Policy は順序付きのGrantを先頭から評価し、最初に許可したものを採用する。
type Policy struct {
	grants []Grant
}

// NewPolicy はPolicyを生成する。grantsは評価順に渡す。
func NewPolicy(grants ...Grant) *Policy {
	return &Policy{grants: grants}
}

// DefaultPolicy はロール、執筆者、共同編集者名簿の順に判定するPolicyを返す。
func DefaultPolicy(articles repository.ArticleRepository, collaborators repository.CollaboratorRepository) *Policy {
	return NewPolicy(
		PrivilegedRole(),
		Authorship(articles),
		RosterMembership(collaborators),
	)
}

// CanEdit はユーザーが記事を変更できるかを返す。
func (p *Policy) CanEdit(ctx context.Context, articleID, userID string, role model.Role) (bool, error) {
	for _, g := range p.grants {
		ok, err := g.Allows(ctx, articleID, userID, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
