package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository/repotest"
)

func newTestService(t *testing.T) (*Service, *repotest.Store) {
	t.Helper()
	store := newPolicyStore(t)
	store.AddProfile(model.Profile{ID: "reader", Email: "reader@example.test", DisplayName: "Reader", Role: model.RoleReader})
	policy := DefaultPolicy(store.Articles(), store.Collaborators())
	return NewService(policy, store.Articles(), store.Collaborators(), store.Profiles()), store
}

func caller(id string, role model.Role) model.Caller {
	return model.Caller{UserID: id, Role: role}
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr), "expected *model.APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestService_FindUserByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	assert.True(t, svc.Available())
	ctx := context.Background()

	p, err := svc.FindUserByEmail(ctx, "  HELPER@newsroom.test ")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "helper", p.ID)

	p, err = svc.FindUserByEmail(ctx, "nobody@newsroom.test")
	require.NoError(t, err)
	assert.Nil(t, p)

	// 読者アカウントは招待対象にならない
	p, err = svc.FindUserByEmail(ctx, "reader@example.test")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestService_AddCollaborator_ByAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper@newsroom.test", "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "helper", c.UserID)
	assert.Equal(t, model.CollaboratorContributor, c.Role)
	assert.Equal(t, "author", c.AddedBy)
	assert.Equal(t, "Helper", c.DisplayName)

	ok, err := svc.CanEdit(ctx, "article-1", "helper", model.RoleJournalist)
	require.NoError(t, err)
	assert.True(t, ok, "追加された共同編集者は編集できること")
}

func TestService_AddCollaborator_UpdatesRoleOnReinvite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper@newsroom.test", model.CollaboratorContributor)
	require.NoError(t, err)
	c, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper@newsroom.test", model.CollaboratorCoAuthor)
	require.NoError(t, err)
	assert.Equal(t, model.CollaboratorCoAuthor, c.Role)

	list, err := svc.ListCollaborators(ctx, "article-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.CollaboratorCoAuthor, list[0].Role)
}

func TestService_AddCollaborator_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "missing", "helper@newsroom.test", "")
	assertAPIErrorCode(t, err, model.ErrCodeArticleNotFound)

	_, err = svc.AddCollaborator(ctx, caller("outsider", model.RoleJournalist), "article-1", "helper@newsroom.test", "")
	assertAPIErrorCode(t, err, model.ErrCodeEditForbidden)

	_, err = svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "ghost@newsroom.test", "")
	assertAPIErrorCode(t, err, model.ErrCodeUserEmailNotFound)

	_, err = svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "reader@example.test", "")
	assertAPIErrorCode(t, err, model.ErrCodeUserEmailNotFound)
}

func TestService_AddCollaborator_ByEditor(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.AddCollaborator(context.Background(), caller("outsider", model.RoleEditor), "article-1", "helper@newsroom.test", "")
	require.NoError(t, err)
	assert.Equal(t, "helper", c.UserID)
}

func TestService_RemoveCollaborator(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper@newsroom.test", "")
	require.NoError(t, err)

	// 無関係のユーザーは削除できない
	_, err = svc.RemoveCollaborator(ctx, caller("outsider", model.RoleJournalist), "article-1", "helper")
	assertAPIErrorCode(t, err, model.ErrCodeEditForbidden)

	removed, err := svc.RemoveCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestService_RemoveCollaborator_SelfRemoval(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCollaborator(ctx, caller("author", model.RoleJournalist), "article-1", "helper@newsroom.test", "")
	require.NoError(t, err)

	removed, err := svc.RemoveCollaborator(ctx, caller("helper", model.RoleJournalist), "article-1", "helper")
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err := svc.CanEdit(ctx, "article-1", "helper", model.RoleJournalist)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_RemoveCollaborator_MissingArticle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RemoveCollaborator(ctx, caller("chief", model.RoleEditor), "no-such-article", "helper")
	assertAPIErrorCode(t, err, model.ErrCodeArticleNotFound)

	_, err = svc.RemoveCollaborator(ctx, caller("helper", model.RoleJournalist), "no-such-article", "helper")
	assertAPIErrorCode(t, err, model.ErrCodeArticleNotFound)
}

func TestService_RequireEdit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequireArticle(ctx, "article-1"))
	assertAPIErrorCode(t, svc.RequireArticle(ctx, "no-such-article"), model.ErrCodeArticleNotFound)

	require.NoError(t, svc.RequireEdit(ctx, caller("author", model.RoleJournalist), "article-1"))
	assertAPIErrorCode(t, svc.RequireEdit(ctx, caller("outsider", model.RoleJournalist), "article-1"), model.ErrCodeEditForbidden)

	// 特権ロールでも存在しない記事は見つからない扱い
	assertAPIErrorCode(t, svc.RequireEdit(ctx, caller("chief", model.RoleEditor), "no-such-article"), model.ErrCodeArticleNotFound)
	assertAPIErrorCode(t, svc.RequireEdit(ctx, caller("boss", model.RoleAdmin), "no-such-article"), model.ErrCodeArticleNotFound)
}

func TestService_ListCollaborators_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	list, err := svc.ListCollaborators(context.Background(), "article-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestService_WithoutStore(t *testing.T) {
	svc := NewService(DefaultPolicy(nil, nil), nil, nil, nil)
	ctx := context.Background()
	assert.False(t, svc.Available())

	c, err := svc.AddCollaborator(ctx, caller("author", model.RoleEditor), "article-1", "helper@newsroom.test", "")
	require.NoError(t, err)
	assert.Nil(t, c)

	removed, err := svc.RemoveCollaborator(ctx, caller("author", model.RoleEditor), "article-1", "helper")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err := svc.ListCollaborators(ctx, "article-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	p, err := svc.FindUserByEmail(ctx, "helper@newsroom.test")
	require.NoError(t, err)
	assert.Nil(t, p)
}
