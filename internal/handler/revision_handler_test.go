package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/revision"
)

// mockRevisionService はRevisionServiceInterfaceのモック実装。
type mockRevisionService struct {
	unavailable bool
	listFn      func(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error)
	getFn       func(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error)
	saveFn      func(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error)
	restoreFn   func(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error)
}

func (m *mockRevisionService) Available() bool {
	return !m.unavailable
}

func (m *mockRevisionService) List(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, articleID, page, limit)
	}
	return &model.RevisionPage{Items: []*model.ArticleRevision{}, Page: page, Limit: limit}, nil
}

func (m *mockRevisionService) Get(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error) {
	if m.getFn != nil {
		return m.getFn(ctx, articleID, version)
	}
	return nil, nil
}

func (m *mockRevisionService) Save(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, caller, articleID, draft)
	}
	return nil, nil
}

func (m *mockRevisionService) Restore(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error) {
	if m.restoreFn != nil {
		return m.restoreFn(ctx, caller, articleID, version)
	}
	return nil, nil
}

func testRevision(version int) *model.ArticleRevision {
	return &model.ArticleRevision{
		ID:        "rev-" + strconv.Itoa(version),
		ArticleID: "article-1",
		Version:   version,
		Title:     "Title",
		Excerpt:   "Excerpt",
		Content:   "<p>Body</p>",
		CreatedBy: "user-1",
		CreatedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
}

func TestRevisionHandler_List_PassesPaginationQuery(t *testing.T) {
	svc := &mockRevisionService{
		listFn: func(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error) {
			if articleID != "article-1" || page != 2 || limit != 5 {
				t.Errorf("List(%q, %d, %d), want (article-1, 2, 5)", articleID, page, limit)
			}
			return &model.RevisionPage{
				Items: []*model.ArticleRevision{testRevision(4), testRevision(3)},
				Total: 7,
				Page:  page,
				Limit: limit,
			}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/articles/article-1/revisions?page=2&limit=5", nil)
	req = withCaller(withChiURLParams(req, "articleId", "article-1"), "user-1", model.RoleJournalist)
	w := httptest.NewRecorder()

	NewRevisionHandler(svc).List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body revisionListResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Total != 7 || len(body.Items) != 2 {
		t.Errorf("total = %d, items = %d", body.Total, len(body.Items))
	}
	if body.Items[0].Version != 4 {
		t.Errorf("first version = %d, want 4", body.Items[0].Version)
	}
}

func TestRevisionHandler_List_DefaultsAndEmptyItems(t *testing.T) {
	svc := &mockRevisionService{
		listFn: func(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error) {
			if page != 1 || limit != revision.DefaultPageSize {
				t.Errorf("page = %d, limit = %d", page, limit)
			}
			return &model.RevisionPage{Items: []*model.ArticleRevision{}, Page: page, Limit: limit}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/articles/article-1/revisions?page=abc", nil)
	req = withCaller(withChiURLParams(req, "articleId", "article-1"), "user-1", model.RoleJournalist)
	w := httptest.NewRecorder()

	NewRevisionHandler(svc).List(w, req)

	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want empty items array", w.Body.String())
	}
}

func TestRevisionHandler_Get(t *testing.T) {
	svc := &mockRevisionService{
		getFn: func(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error) {
			if version == 3 {
				return testRevision(3), nil
			}
			return nil, nil
		},
	}

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/articles/article-1/revisions/3", nil)
		req = withCaller(withChiURLParams(req, "articleId", "article-1", "version", "3"), "user-1", model.RoleJournalist)
		w := httptest.NewRecorder()

		NewRevisionHandler(svc).Get(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body revisionResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Version != 3 || body.Content != "<p>Body</p>" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/articles/article-1/revisions/9", nil)
		req = withCaller(withChiURLParams(req, "articleId", "article-1", "version", "9"), "user-1", model.RoleJournalist)
		w := httptest.NewRecorder()

		NewRevisionHandler(svc).Get(w, req)

		assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeRevisionNotFound)
	})

	t.Run("invalid version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/articles/article-1/revisions/latest", nil)
		req = withCaller(withChiURLParams(req, "articleId", "article-1", "version", "latest"), "user-1", model.RoleJournalist)
		w := httptest.NewRecorder()

		NewRevisionHandler(svc).Get(w, req)

		assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeValidationFailed)
	})
}

func TestRevisionHandler_Save(t *testing.T) {
	svc := &mockRevisionService{
		saveFn: func(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
			if caller.UserID != "user-1" {
				t.Errorf("caller = %q", caller.UserID)
			}
			rev := testRevision(5)
			rev.Title = draft.Title
			rev.Content = draft.Content
			return rev, nil
		},
	}
	body := `{"title":"New title","excerpt":"short","content":"<p>new</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/articles/article-1/revisions", strings.NewReader(body))
	req = withCaller(withChiURLParams(req, "articleId", "article-1"), "user-1", model.RoleJournalist)
	w := httptest.NewRecorder()

	NewRevisionHandler(svc).Save(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp revisionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Title != "New title" || resp.Content != "<p>new</p>" || resp.Version != 5 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRevisionHandler_Save_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *mockRevisionService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"title":`,
			svc:        &mockRevisionService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing title",
			body:       `{"content":"x"}`,
			svc:        &mockRevisionService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeValidationFailed,
		},
		{
			name: "locked by other",
			body: `{"title":"t"}`,
			svc: &mockRevisionService{
				saveFn: func(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
					return nil, model.NewArticleLockedError("Aminata")
				},
			},
			wantStatus: http.StatusLocked,
			wantCode:   model.ErrCodeArticleLocked,
		},
		{
			name: "no edit rights",
			body: `{"title":"t"}`,
			svc: &mockRevisionService{
				saveFn: func(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
					return nil, model.NewEditForbiddenError()
				},
			},
			wantStatus: http.StatusForbidden,
			wantCode:   model.ErrCodeEditForbidden,
		},
		{
			name: "article missing",
			body: `{"title":"t"}`,
			svc: &mockRevisionService{
				saveFn: func(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
					return nil, model.NewArticleNotFoundError(articleID)
				},
			},
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeArticleNotFound,
		},
		{
			name:       "store unavailable",
			body:       `{"title":"t"}`,
			svc:        &mockRevisionService{unavailable: true},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   model.ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/articles/article-1/revisions", strings.NewReader(tt.body))
			req = withCaller(withChiURLParams(req, "articleId", "article-1"), "user-1", model.RoleJournalist)
			w := httptest.NewRecorder()

			NewRevisionHandler(tt.svc).Save(w, req)

			assertErrorCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestRevisionHandler_Save_ValidationFieldDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/articles/article-1/revisions", strings.NewReader(`{"content":"x"}`))
	req = withCaller(withChiURLParams(req, "articleId", "article-1"), "user-1", model.RoleJournalist)
	w := httptest.NewRecorder()

	NewRevisionHandler(&mockRevisionService{}).Save(w, req)

	body := parseAPIErrorResponse(t, w)
	if len(body.Fields) != 1 {
		t.Fatalf("fields = %+v, want 1 entry", body.Fields)
	}
	if body.Fields[0].Field != "title" || body.Fields[0].Reason != "required" {
		t.Errorf("field = %+v, want title/required", body.Fields[0])
	}
}

func TestRevisionHandler_Restore(t *testing.T) {
	svc := &mockRevisionService{
		restoreFn: func(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error) {
			if version != 1 {
				return nil, nil
			}
			return testRevision(8), nil
		},
	}

	t.Run("creates forward revision", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/articles/article-1/revisions/1/restore", nil)
		req = withCaller(withChiURLParams(req, "articleId", "article-1", "version", "1"), "user-1", model.RoleEditor)
		w := httptest.NewRecorder()

		NewRevisionHandler(svc).Restore(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body revisionResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Version != 8 {
			t.Errorf("version = %d, want 8", body.Version)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/articles/article-1/revisions/2/restore", nil)
		req = withCaller(withChiURLParams(req, "articleId", "article-1", "version", "2"), "user-1", model.RoleEditor)
		w := httptest.NewRecorder()

		NewRevisionHandler(svc).Restore(w, req)

		assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeRevisionNotFound)
	})
}
