// Package repotest はサービス層のテスト用にインメモリのリポジトリ実装を提供する。
// PostgreSQL実装と同じ条件付き更新の意味論をミューテックスで再現する。
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// Store は全リポジトリが共有するインメモリのテーブル群。
type Store struct {
	mu sync.Mutex

	profiles      map[string]*model.Profile
	articles      map[string]*model.Article
	locks         map[string]*model.ArticleLock
	revisions     map[string][]*model.ArticleRevision
	collaborators map[string]map[string]*model.Collaborator
	editorial     map[string]*model.EditorialComment
	readerPending map[string]int
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		profiles:      make(map[string]*model.Profile),
		articles:      make(map[string]*model.Article),
		locks:         make(map[string]*model.ArticleLock),
		revisions:     make(map[string][]*model.ArticleRevision),
		collaborators: make(map[string]map[string]*model.Collaborator),
		editorial:     make(map[string]*model.EditorialComment),
		readerPending: make(map[string]int),
	}
}

// AddProfile はプロフィールを登録する。
func (s *Store) AddProfile(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = &p
}

// AddArticle は記事を登録する。
func (s *Store) AddArticle(a model.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = &a
}

// AddPendingReaderComments は記事にモデレーション待ちの読者コメントをn件追加する。
func (s *Store) AddPendingReaderComments(articleID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readerPending[articleID] += n
}

// PutLock はロック行を直接書き込む。失効済みロックの再現に使用する。
func (s *Store) PutLock(l model.ArticleLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[l.ArticleID] = &l
}

// Article は記事の現在の状態のコピーを返す。
func (s *Store) Article(id string) *model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Versions は記事に残っているリビジョンのversionを昇順で返す。
func (s *Store) Versions(articleID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, r := range s.revisions[articleID] {
		out = append(out, r.Version)
	}
	sort.Ints(out)
	return out
}

// Profiles はProfileRepositoryを返す。
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s: s} }

// Articles はArticleRepositoryを返す。
func (s *Store) Articles() *ArticleRepo { return &ArticleRepo{s: s} }

// Locks はLockRepositoryを返す。
func (s *Store) Locks() *LockRepo { return &LockRepo{s: s} }

// Revisions はRevisionRepositoryを返す。
func (s *Store) Revisions() *RevisionRepo { return &RevisionRepo{s: s} }

// Collaborators はCollaboratorRepositoryを返す。
func (s *Store) Collaborators() *CollaboratorRepo { return &CollaboratorRepo{s: s} }

// EditorialComments はEditorialCommentRepositoryを返す。
func (s *Store) EditorialComments() *EditorialCommentRepo { return &EditorialCommentRepo{s: s} }

// ReaderComments はReaderCommentRepositoryを返す。
func (s *Store) ReaderComments() *ReaderCommentRepo { return &ReaderCommentRepo{s: s} }

// ProfileRepo はインメモリのProfileRepository。
type ProfileRepo struct{ s *Store }

func (r *ProfileRepo) FindByID(_ context.Context, id string) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *ProfileRepo) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProfileRepo) UpdateRole(_ context.Context, id string, role model.Role) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Role = role
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

// ArticleRepo はインメモリのArticleRepository。
type ArticleRepo struct{ s *Store }

func (r *ArticleRepo) FindByID(_ context.Context, id string) (*model.Article, error) {
	return r.s.Article(id), nil
}

func (r *ArticleRepo) FindAuthorID(_ context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.articles[id]; ok {
		return a.AuthorID, nil
	}
	return "", nil
}

func (r *ArticleRepo) ListSummariesByAuthor(_ context.Context, authorID string) ([]model.ArticleSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ArticleSummary
	for _, a := range r.s.articles {
		if a.AuthorID == authorID {
			out = append(out, model.ArticleSummary{ID: a.ID, Title: a.Title, Slug: a.Slug})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ArticleRepo) CommitRevision(_ context.Context, rev *model.ArticleRevision, savedBy string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.articles[rev.ArticleID]
	if !ok {
		return false, nil
	}
	if l, held := r.s.locks[rev.ArticleID]; held && l.LockedBy != savedBy && !now.After(l.ExpiresAt) {
		return false, nil
	}
	r.s.appendRevision(rev)
	a.Title = rev.Title
	a.Excerpt = rev.Excerpt
	a.Content = rev.Content
	a.Version = rev.Version
	a.LastSavedBy = savedBy
	a.UpdatedAt = now
	return true, nil
}

// LockRepo はインメモリのLockRepository。
type LockRepo struct{ s *Store }

func (r *LockRepo) Find(_ context.Context, articleID string) (*model.ArticleLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locks[articleID]
	if !ok {
		return nil, nil
	}
	cp := *l
	if p, ok := r.s.profiles[l.LockedBy]; ok {
		cp.HolderName = p.DisplayName
		cp.HolderEmail = p.Email
	}
	return &cp, nil
}

func (r *LockRepo) Insert(_ context.Context, lock *model.ArticleLock) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.locks[lock.ArticleID]; exists {
		return false, nil
	}
	cp := *lock
	r.s.locks[lock.ArticleID] = &cp
	return true, nil
}

func (r *LockRepo) Replace(_ context.Context, lock *model.ArticleLock, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, exists := r.s.locks[lock.ArticleID]
	if !exists {
		return false, nil
	}
	if cur.LockedBy != lock.LockedBy && !cur.ExpiresAt.Before(now) {
		return false, nil
	}
	cp := *lock
	r.s.locks[lock.ArticleID] = &cp
	return true, nil
}

func (r *LockRepo) Renew(_ context.Context, articleID, userID string, expiresAt time.Time) (*model.ArticleLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, exists := r.s.locks[articleID]
	if !exists || cur.LockedBy != userID {
		return nil, nil
	}
	cur.ExpiresAt = expiresAt
	cp := *cur
	if p, ok := r.s.profiles[cp.LockedBy]; ok {
		cp.HolderName = p.DisplayName
		cp.HolderEmail = p.Email
	}
	return &cp, nil
}

func (r *LockRepo) Release(_ context.Context, articleID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, exists := r.s.locks[articleID]
	if !exists || cur.LockedBy != userID {
		return false, nil
	}
	delete(r.s.locks, articleID)
	return true, nil
}

func (r *LockRepo) DeleteExpired(_ context.Context, articleID string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, exists := r.s.locks[articleID]
	if !exists || !cur.ExpiresAt.Before(now) {
		return false, nil
	}
	delete(r.s.locks, articleID)
	return true, nil
}

func (r *LockRepo) DeleteAllExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.locks {
		if l.ExpiresAt.Before(now) {
			delete(r.s.locks, id)
			n++
		}
	}
	return n, nil
}

// RevisionRepo はインメモリのRevisionRepository。
type RevisionRepo struct{ s *Store }

func (r *RevisionRepo) Insert(_ context.Context, rev *model.ArticleRevision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendRevision(rev)
	return nil
}

// appendRevision はrevを max+1 で採番して追加する。呼び出し側がmuを保持していること。
func (s *Store) appendRevision(rev *model.ArticleRevision) {
	latest := 0
	for _, existing := range s.revisions[rev.ArticleID] {
		if existing.Version > latest {
			latest = existing.Version
		}
	}
	rev.Version = latest + 1
	cp := *rev
	s.revisions[rev.ArticleID] = append(s.revisions[rev.ArticleID], &cp)
}

func (r *RevisionRepo) FindByVersion(_ context.Context, articleID string, version int) (*model.ArticleRevision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rev := range r.s.revisions[articleID] {
		if rev.Version == version {
			cp := *rev
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *RevisionRepo) sortedDesc(articleID string) []*model.ArticleRevision {
	revs := append([]*model.ArticleRevision(nil), r.s.revisions[articleID]...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].Version > revs[j].Version })
	return revs
}

func (r *RevisionRepo) ListByArticle(_ context.Context, articleID string, offset, limit int) ([]*model.ArticleRevision, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	revs := r.sortedDesc(articleID)
	if offset >= len(revs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(revs) {
		end = len(revs)
	}
	var out []*model.ArticleRevision
	for _, rev := range revs[offset:end] {
		cp := *rev
		out = append(out, &cp)
	}
	return out, nil
}

func (r *RevisionRepo) CountByArticle(_ context.Context, articleID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.revisions[articleID]), nil
}

func (r *RevisionRepo) LatestVersions(_ context.Context, articleID string, keep int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int
	for i, rev := range r.sortedDesc(articleID) {
		if i >= keep {
			break
		}
		out = append(out, rev.Version)
	}
	return out, nil
}

func (r *RevisionRepo) DeleteOlderThan(_ context.Context, articleID string, minVersion int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*model.ArticleRevision
	var n int64
	for _, rev := range r.s.revisions[articleID] {
		if rev.Version < minVersion {
			n++
			continue
		}
		kept = append(kept, rev)
	}
	r.s.revisions[articleID] = kept
	return n, nil
}

// CollaboratorRepo はインメモリのCollaboratorRepository。
type CollaboratorRepo struct{ s *Store }

func (r *CollaboratorRepo) Find(_ context.Context, articleID, userID string) (*model.Collaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.collaborators[articleID][userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CollaboratorRepo) Upsert(_ context.Context, c *model.Collaborator) (*model.Collaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	roster, ok := r.s.collaborators[c.ArticleID]
	if !ok {
		roster = make(map[string]*model.Collaborator)
		r.s.collaborators[c.ArticleID] = roster
	}
	if existing, ok := roster[c.UserID]; ok {
		existing.Role = c.Role
		cp := *existing
		cp.Email, cp.DisplayName = c.Email, c.DisplayName
		return &cp, nil
	}
	cp := *c
	roster[c.UserID] = &cp
	out := cp
	return &out, nil
}

func (r *CollaboratorRepo) Delete(_ context.Context, articleID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collaborators[articleID][userID]; !ok {
		return false, nil
	}
	delete(r.s.collaborators[articleID], userID)
	return true, nil
}

func (r *CollaboratorRepo) ListByArticle(_ context.Context, articleID string) ([]*model.Collaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Collaborator
	for _, c := range r.s.collaborators[articleID] {
		cp := *c
		if p, ok := r.s.profiles[c.UserID]; ok {
			cp.Email, cp.DisplayName = p.Email, p.DisplayName
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// EditorialCommentRepo はインメモリのEditorialCommentRepository。
type EditorialCommentRepo struct{ s *Store }

func (r *EditorialCommentRepo) Create(_ context.Context, c *model.EditorialComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.editorial[c.ID] = &cp
	return nil
}

func (r *EditorialCommentRepo) FindByID(_ context.Context, id string) (*model.EditorialComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.editorial[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *EditorialCommentRepo) ListByArticle(_ context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.EditorialComment
	for _, c := range r.s.editorial {
		if c.ArticleID != articleID || (c.Resolved && !includeResolved) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *EditorialCommentRepo) Resolve(_ context.Context, id string) (*model.EditorialComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.editorial[id]
	if !ok {
		return nil, nil
	}
	if !c.Resolved {
		c.Resolved = true
		c.UpdatedAt = time.Now()
	}
	cp := *c
	return &cp, nil
}

func (r *EditorialCommentRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.editorial[id]; !ok {
		return false, nil
	}
	delete(r.s.editorial, id)
	return true, nil
}

func (r *EditorialCommentRepo) CountUnresolved(_ context.Context, articleID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.editorial {
		if c.ArticleID == articleID && !c.Resolved {
			n++
		}
	}
	return n, nil
}

func (r *EditorialCommentRepo) CountUnresolvedByArticles(_ context.Context, articleIDs []string) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(articleIDs))
	for _, id := range articleIDs {
		wanted[id] = true
	}
	counts := make(map[string]int)
	for _, c := range r.s.editorial {
		if wanted[c.ArticleID] && !c.Resolved {
			counts[c.ArticleID]++
		}
	}
	return counts, nil
}

// ReaderCommentRepo はインメモリのReaderCommentRepository。
type ReaderCommentRepo struct{ s *Store }

func (r *ReaderCommentRepo) CountPendingByArticles(_ context.Context, articleIDs []string) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[string]int)
	for _, id := range articleIDs {
		if n := r.s.readerPending[id]; n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

// compile-time interface check
var (
	_ repository.ProfileRepository          = (*ProfileRepo)(nil)
	_ repository.ArticleRepository          = (*ArticleRepo)(nil)
	_ repository.LockRepository             = (*LockRepo)(nil)
	_ repository.RevisionRepository         = (*RevisionRepo)(nil)
	_ repository.CollaboratorRepository     = (*CollaboratorRepo)(nil)
	_ repository.EditorialCommentRepository = (*EditorialCommentRepo)(nil)
	_ repository.ReaderCommentRepository    = (*ReaderCommentRepo)(nil)
)
