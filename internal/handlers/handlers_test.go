package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"coaching-assistant-api/internal/assistant"
	"coaching-assistant-api/internal/auth"
	"coaching-assistant-api/internal/cache"
	"coaching-assistant-api/internal/chatmemory"
	"coaching-assistant-api/internal/lifecycle"
	"coaching-assistant-api/internal/middleware"
	"coaching-assistant-api/internal/realtime"
	"coaching-assistant-api/internal/storage"
	"coaching-assistant-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeProvisioner hands out sequential vector-store IDs and records
// destructions, without any network.
type fakeProvisioner struct {
	mu       sync.Mutex
	seq      int
	creates  int
	destroys []string
}

func (f *fakeProvisioner) Create(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.creates++
	return fmt.Sprintf("vs-%d", f.seq), nil
}

func (f *fakeProvisioner) Destroy(_ context.Context, resourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys = append(f.destroys, resourceID)
	return nil
}

func (f *fakeProvisioner) destroyed(resourceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.destroys {
		if id == resourceID {
			return true
		}
	}
	return false
}

// fakeResponder returns a canned reply and records what it was asked.
type fakeResponder struct {
	mu          sync.Mutex
	reply       string
	tokens      int
	calls       int
	lastSystem  string
	lastInput   string
	lastStore   string
	lastHistory []assistant.Turn
}

func (f *fakeResponder) Respond(_ context.Context, system string, history []assistant.Turn, input, vectorStoreID string) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSystem = system
	f.lastInput = input
	f.lastStore = vectorStoreID
	f.lastHistory = history
	return f.reply, f.tokens, nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %v", d)
}

func newTestAPI(t *testing.T) (*API, *fakeProvisioner, *fakeResponder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cacheStore := cache.New(cache.Options{})
	prov := &fakeProvisioner{}
	resp := &fakeResponder{reply: "Grounded answer.", tokens: 42}

	api := &API{
		DB:        db,
		Cache:     cacheStore,
		Router:    cache.NewRouter(cacheStore),
		Storage:   store,
		Memory:    chatmemory.NewService(db),
		Lifecycle: lifecycle.NewManager(lifecycle.Options{Provisioner: prov}),
		Responder: resp,
		Hub:       realtime.NewHub(),
	}
	return api, prov, resp
}

// testRouter wires the routes the handler tests exercise, with the real
// JWT middleware in front of the protected group.
func testRouter(api *API) *gin.Engine {
	r := gin.New()

	r.POST("/api/register", api.Register)
	r.POST("/api/login", api.Login)

	protected := r.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/files", api.ListFiles)
		protected.GET("/files/search", api.SearchFiles)
		protected.GET("/files/download", api.DownloadFile)
		protected.POST("/files/upload", api.UploadFiles)
		protected.POST("/files/move", api.MoveFile)
		protected.DELETE("/files", api.DeleteFile)
		protected.POST("/folders", api.CreateFolder)

		protected.POST("/sessions", api.StartSession)
		protected.GET("/sessions", api.GetSessions)
		protected.GET("/sessions/:id", api.GetSession)
		protected.GET("/sessions/:id/history", api.GetHistory)
		protected.GET("/sessions/:id/reports", api.GetReports)
		protected.PUT("/sessions/:id", api.UpdateSession)
		protected.POST("/sessions/:id/end", api.EndSession)
		protected.DELETE("/sessions/:id", api.DeleteSession)

		protected.POST("/sessions/:id/chat", api.Chat)
		protected.POST("/sessions/:id/report", api.Report)

		protected.GET("/ops/cache/stats", api.CacheStats)
		protected.GET("/ops/vector-stores", api.VectorStoreBindings)
		protected.DELETE("/ops/vector-stores/:id", api.DestroyVectorStore)
	}
	return r
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func tokenFor(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, username)
	require.NoError(t, err)
	return token
}
