package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apimw "github.com/GoSim-25-26J-441/erp-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
	"github.com/GoSim-25-26J-441/erp-backend/internal/projects"
)

type sentNotification struct {
	group, message, kind string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) SendNotificationToGroup(_ context.Context, group, message, kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{group, message, kind})
	return nil
}

// stubbed records what reached the mediator.
type stubbed struct {
	list    projects.GetProjectsQuery
	updated projects.UpdateProjectCommand
	deleted int
}

func newTestMediator(s *stubbed) *pipeline.Mediator {
	m := pipeline.New(pipeline.Defaults(nil, nil, nil)...)

	pipeline.Register[projects.GetProjectsQuery, apperr.PaginatedList[projects.ProjectDto]](m,
		pipeline.HandlerFunc[projects.GetProjectsQuery, apperr.PaginatedList[projects.ProjectDto]](
			func(_ context.Context, q projects.GetProjectsQuery) (apperr.PaginatedList[projects.ProjectDto], error) {
				s.list = q
				return apperr.NewPaginatedList([]projects.ProjectDto{{ID: 1, Code: "P-1"}}, 1, q.PageNumber, q.PageSize)
			}))
	pipeline.Register[projects.GetProjectDetailQuery, projects.ProjectDetailDto](m,
		pipeline.HandlerFunc[projects.GetProjectDetailQuery, projects.ProjectDetailDto](
			func(_ context.Context, q projects.GetProjectDetailQuery) (projects.ProjectDetailDto, error) {
				if q.ID != 1 {
					return projects.ProjectDetailDto{}, apperr.NewNotFound("Project", q.ID)
				}
				return projects.ProjectDetailDto{ID: 1, Code: "P-1", TotalTasks: 4}, nil
			}))
	pipeline.Register[projects.CreateProjectCommand, int](m,
		pipeline.HandlerFunc[projects.CreateProjectCommand, int](
			func(_ context.Context, cmd projects.CreateProjectCommand) (int, error) {
				if cmd.Code == "" {
					return 0, apperr.NewValidationError(apperr.Failure{Property: "Code", Message: "Code is required."})
				}
				return 42, nil
			}))
	pipeline.Register[projects.UpdateProjectCommand, struct{}](m,
		pipeline.HandlerFunc[projects.UpdateProjectCommand, struct{}](
			func(_ context.Context, cmd projects.UpdateProjectCommand) (struct{}, error) {
				s.updated = cmd
				return struct{}{}, nil
			}))
	pipeline.Register[projects.DeleteProjectCommand, struct{}](m,
		pipeline.HandlerFunc[projects.DeleteProjectCommand, struct{}](
			func(_ context.Context, cmd projects.DeleteProjectCommand) (struct{}, error) {
				if cmd.ID == 404 {
					return struct{}{}, apperr.NewNotFound("Project", cmd.ID)
				}
				s.deleted = cmd.ID
				return struct{}{}, nil
			}))
	return m
}

func setupProjectsRouter(t *testing.T) (*gin.Engine, *stubbed, *fakeNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &stubbed{}
	notifier := &fakeNotifier{}

	router := gin.New()
	router.Use(apimw.Problems(zap.NewNop()))
	router.Use(func(c *gin.Context) {
		p := &auth.Principal{
			Subject: "identity-pm",
			Custom:  map[string]string{auth.ClaimCompanyID: "1", auth.ClaimBusinessUserID: "5"},
		}
		user := auth.NewResolver(nil, nil, nil).ForPrincipal(p)
		c.Request = c.Request.WithContext(auth.WithCurrentUser(c.Request.Context(), user))
		c.Next()
	})
	New(newTestMediator(s), notifier, nil).Register(router.Group("/api/projects"))
	return router, s, notifier
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(rr, req)
	return rr
}

func TestList(t *testing.T) {
	router, s, _ := setupProjectsRouter(t)

	rr := doJSON(router, http.MethodGet, "/api/projects?status=InProgress&searchTerm=web&customerId=7", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var page apperr.PaginatedList[projects.ProjectDto]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "P-1", page.Items[0].Code)

	assert.Equal(t, 1, s.list.PageNumber)
	assert.Equal(t, 10, s.list.PageSize)
	require.NotNil(t, s.list.Status)
	assert.Equal(t, domain.ProjectInProgress, *s.list.Status)
	require.NotNil(t, s.list.CustomerID)
	assert.Equal(t, 7, *s.list.CustomerID)
	assert.Equal(t, "web", s.list.SearchTerm)

	rr = doJSON(router, http.MethodGet, "/api/projects?status=Sleeping", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGet(t *testing.T) {
	router, _, _ := setupProjectsRouter(t)

	rr := doJSON(router, http.MethodGet, "/api/projects/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalTasks":4`)

	rr = doJSON(router, http.MethodGet, "/api/projects/2", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(router, http.MethodGet, "/api/projects/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid id"}`, rr.Body.String())
}

func TestCreate(t *testing.T) {
	router, _, _ := setupProjectsRouter(t)

	rr := doJSON(router, http.MethodPost, "/api/projects", `{"name":"Portal","code":"WEB-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())

	rr = doJSON(router, http.MethodPost, "/api/projects", `{"name":"Portal"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Code is required.")

	rr = doJSON(router, http.MethodPost, "/api/projects", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdate(t *testing.T) {
	router, s, notifier := setupProjectsRouter(t)

	rr := doJSON(router, http.MethodPut, "/api/projects/3", `{"id":4,"name":"Portal"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Route id does not match body id"}`, rr.Body.String())
	assert.Empty(t, notifier.sent)

	rr = doJSON(router, http.MethodPut, "/api/projects/3", `{"id":3,"name":"Portal","status":"onhold","priority":"critical","budget":1200.75}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "Portal", s.updated.Name)
	assert.Equal(t, domain.ProjectOnHold, s.updated.Status)
	assert.Equal(t, domain.PriorityCritical, s.updated.Priority)
	assert.Equal(t, "1200.75", s.updated.Budget.String())
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "project_3", notifier.sent[0].group)
	assert.Equal(t, "info", notifier.sent[0].kind)
}

func TestDelete(t *testing.T) {
	router, s, notifier := setupProjectsRouter(t)

	rr := doJSON(router, http.MethodDelete, "/api/projects/404", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, notifier.sent)

	rr = doJSON(router, http.MethodDelete, "/api/projects/8", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 8, s.deleted)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "project_8", notifier.sent[0].group)
}
