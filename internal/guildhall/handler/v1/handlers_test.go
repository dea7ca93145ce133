package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/host"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/utils/json"
)

type staticCatalog map[string]*entity.AgentDescriptor

func (c staticCatalog) Resolve(ctx context.Context, name string) (*entity.AgentDescriptor, error) {
	if agent, ok := c[name]; ok {
		return agent, nil
	}
	return nil, errno.AgentNotFound(name, "guild", nil)
}

func newTestRouter(t *testing.T) (*gin.Engine, service.OrchestratorService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &orchestrator.Config{
		WorkspaceDir:       t.TempDir(),
		HeartbeatInterval:  10 * time.Millisecond,
		GatherPollInterval: 10 * time.Millisecond,
	}
	module, err := cfg.Complete().New(context.Background(), orchestrator.Dependencies{
		Catalog: staticCatalog{
			"scout": {Name: "scout", Namespace: "guild"},
		},
		Host: host.NewLoopback(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = module.Close() })

	g := gin.New()
	epicHandler := NewEpicHandler(module.Service)
	registryHandler := NewRegistryHandler(module.Service)
	g.GET("/v1/epics/active", epicHandler.Active)
	g.GET("/v1/epics/:id", epicHandler.Get)
	g.GET("/v1/registry", registryHandler.List)
	g.GET("/v1/registry/:id", registryHandler.Get)

	return g, module.Service
}

func doGet(t *testing.T, g *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decodeErrCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestEpicRoutes(t *testing.T) {
	t.Parallel()

	g, svc := newTestRouter(t)
	ctx := context.Background()

	// Nothing active yet.
	w := doGet(t, g, "/v1/epics/active")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrNoActiveEpic, decodeErrCode(t, w))

	epic, err := svc.CreateEpic(ctx, "Chart the catacombs", []*entity.Task{
		{Title: "Map level one"},
		{Title: "Report findings", DependsOn: []string{"1.1"}},
	})
	require.NoError(t, err)

	w = doGet(t, g, "/v1/epics/active")
	require.Equal(t, http.StatusOK, w.Code)
	var active EpicResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Equal(t, epic.ID, active.ID)
	assert.Equal(t, "Chart the catacombs", active.Title)
	require.Len(t, active.Tasks, 2)
	assert.Equal(t, "1.1", active.Tasks[0].ID)
	assert.Equal(t, []string{"1.1"}, active.Tasks[1].DependsOn)

	w = doGet(t, g, "/v1/epics/99")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrEpicNotFound, decodeErrCode(t, w))

	// Archived epics stay addressable by id.
	require.NoError(t, svc.ArchiveEpic(ctx, epic.ID, entity.OutcomePartial))

	w = doGet(t, g, "/v1/epics/active")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrNoActiveEpic, decodeErrCode(t, w))

	w = doGet(t, g, "/v1/epics/"+epic.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var archived EpicResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &archived))
	assert.Equal(t, string(entity.OutcomePartial), archived.Outcome)
	assert.NotEmpty(t, archived.ArchivedAt)
}

func TestRegistryRoutes(t *testing.T) {
	t.Parallel()

	g, svc := newTestRouter(t)
	ctx := context.Background()

	w := doGet(t, g, "/v1/registry")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []RegistryEntryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Data)

	exec, err := svc.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Sweep the east wing.",
		Mode:      entity.ModeBackground,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		entry, err := svc.GetRegistryEntry(ctx, exec.ID)
		return err == nil && entry.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	w = doGet(t, g, "/v1/registry")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, exec.ID, list.Data[0].ID)

	w = doGet(t, g, "/v1/registry/"+exec.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var entry RegistryEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "scout", entry.AgentName)
	assert.Equal(t, string(entity.ExecutionStatusCompleted), entry.Status)
	assert.NotEmpty(t, entry.Result)
	assert.NotEmpty(t, entry.CompletedAt)

	w = doGet(t, g, "/v1/registry/no-such-entry")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrEntryNotFound, decodeErrCode(t, w))
}
