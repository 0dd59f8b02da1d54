package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"neuroscreen/internal/config"
	"neuroscreen/internal/handlers"
	"neuroscreen/internal/models"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/session"
	"neuroscreen/internal/tasks/reaction"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
			RateLimit:     10,
		},
	}
}

// client carries cookies and the CSRF token between requests the way a
// browser fetch client would.
type client struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
	token   string
}

func newClient(t *testing.T, engine *gin.Engine) *client {
	return &client{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-CSRF-Token", c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if tok := w.Header().Get("X-CSRF-Token"); tok != "" {
		c.token = tok
	}
	return w
}

// sessionView mirrors handlers.SessionView with results left undecoded.
type sessionView struct {
	ID       uuid.UUID        `json:"id"`
	Stage    string           `json:"stage"`
	Progress int              `json:"progress"`
	Question *models.Question `json:"question"`
	Record   struct {
		Results map[models.TaskName]json.RawMessage `json:"roundStats"`
		Answers map[string]int                      `json:"questions"`
	} `json:"record"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func setup(t *testing.T) (*client, *repository.Store) {
	assessment, err := models.LoadAssessment("")
	require.NoError(t, err)
	store := repository.NewStore(assessment, zap.NewNop())
	return newClient(t, Setup(zap.NewNop(), store, testConfig())), store
}

func reactionTrace() string {
	var b strings.Builder
	b.WriteString(`[{"at":0,"type":"start","width":400,"height":300}`)
	at := 0
	for i := 0; i < reaction.TotalTargets; i++ {
		at += 100
		fmt.Fprintf(&b, `,{"at":%d,"type":"target_shown","x":150,"y":120}`, at)
		at += 300
		fmt.Fprintf(&b, `,{"at":%d,"type":"target_tap"}`, at)
	}
	b.WriteString("]")
	return b.String()
}

const memoryTrace = `[
	{"at":0,"type":"start"},
	{"at":0,"type":"sequence","cells":[0,1]},
	{"at":2700,"type":"tap","cell":5},
	{"at":4000,"type":"sequence","cells":[0,1,2]},
	{"at":7500,"type":"tap","cell":5},
	{"at":8800,"type":"sequence","cells":[3,3,3]},
	{"at":12300,"type":"tap","cell":5},
	{"at":13600,"type":"sequence","cells":[2,4,6,8]},
	{"at":17900,"type":"tap","cell":5},
	{"at":19200,"type":"sequence","cells":[4,4,4,4]},
	{"at":23500,"type":"tap","cell":4},
	{"at":23800,"type":"tap","cell":4},
	{"at":24100,"type":"tap","cell":4},
	{"at":24400,"type":"tap","cell":4}
]`

func interferenceTrace() string {
	var b strings.Builder
	b.WriteString(`[{"at":0,"type":"start"}`)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, `,{"at":%d,"type":"stimulus","word":0,"ink":3}`, i*1000)
		fmt.Fprintf(&b, `,{"at":%d,"type":"choice","choice":"#eab308"}`, i*1000+500)
	}
	b.WriteString("]")
	return b.String()
}

const sequencingTrace = `[
	{"at":0,"type":"start"},
	{"at":0,"type":"markers","markers":[
		{"id":1,"x":20,"y":20},{"id":2,"x":40,"y":30},{"id":3,"x":60,"y":50},
		{"id":4,"x":30,"y":70},{"id":5,"x":80,"y":80},{"id":6,"x":50,"y":50}]},
	{"at":900,"type":"tap","id":1},
	{"at":1800,"type":"tap","id":2},
	{"at":2500,"type":"tap","id":3},
	{"at":3300,"type":"tap","id":4},
	{"at":4100,"type":"tap","id":5},
	{"at":5250,"type":"tap","id":6}
]`

func startSession(t *testing.T, c *client) sessionView {
	t.Helper()
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/questions", "").Code)
	w := c.do(http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionView](t, w)
}

func TestFullAssessment(t *testing.T) {
	c, _ := setup(t)

	view := startSession(t, c)
	assert.Equal(t, session.StageOnboarding.String(), view.Stage)
	assert.Equal(t, 0, view.Progress)

	w := c.do(http.MethodPost, "/api/session/begin", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode[sessionView](t, w)
	require.NotNil(t, view.Question)

	for view.Stage == session.StageQuestionnaire.String() {
		body := fmt.Sprintf(`{"questionId":%q,"value":0}`, view.Question.ID)
		w = c.do(http.MethodPost, "/api/session/answers", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		view = decode[sessionView](t, w)
	}
	assert.Equal(t, session.StageReaction.String(), view.Stage)
	assert.Equal(t, 2, view.Progress)

	for _, step := range []struct {
		task  string
		trace string
	}{
		{"reaction", reactionTrace()},
		{"memory", memoryTrace},
		{"stroop", interferenceTrace()},
		{"sequencing", sequencingTrace},
	} {
		w = c.do(http.MethodPost, "/api/session/tasks/"+step.task, step.trace)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step.task, w.Body.String())
	}

	w = c.do(http.MethodGet, "/api/session", "")
	view = decode[sessionView](t, w)
	assert.Equal(t, session.StageAnalysis.String(), view.Stage)
	assert.Equal(t, 5, view.Progress)
	assert.Len(t, view.Record.Results, 4)
	assert.Len(t, view.Record.Answers, 3)

	w = c.do(http.MethodGet, "/results", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/session/analyze", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decode[models.ScoringOutcome](t, w)
	assert.Equal(t, 72, outcome.HealthScore)
	assert.Len(t, outcome.Recommendations, 3)

	w = c.do(http.MethodGet, "/api/session/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "series")

	w = c.do(http.MethodGet, "/api/session/chart?kind=tasks", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/results", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	page := w.Body.String()
	assert.Contains(t, page, "Health Index 72 / 100")
	assert.Contains(t, page, `id="chart-samples-options"`)
	assert.Contains(t, page, `id="chart-tasks-options"`)
	nonce := scriptNonce(t, w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, page, `<script nonce="`+nonce+`"`)

	w = c.do(http.MethodGet, "/api/session/report.pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "NeuroScreen_Report_NS-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))

	w = c.do(http.MethodPost, "/api/session/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[sessionView](t, w)
	assert.Equal(t, session.StageOnboarding.String(), view.Stage)
	assert.Empty(t, view.Record.Results)
	assert.Empty(t, view.Record.Answers)
}

func TestCSRFRequired(t *testing.T) {
	c, _ := setup(t)
	w := c.do(http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	c.do(http.MethodGet, "/api/questions", "")
	c.token = "forged"
	w = c.do(http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionRequired(t *testing.T) {
	c, store := setup(t)
	c.do(http.MethodGet, "/api/questions", "")
	w := c.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	view := startSession(t, c)
	store.DeleteSession(view.ID)

	w = c.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	// The stale id was dropped from the cookie.
	w = c.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOutOfOrderRequests(t *testing.T) {
	c, _ := setup(t)
	startSession(t, c)

	w := c.do(http.MethodPost, "/api/session/tasks/reaction", reactionTrace())
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/session/analyze", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodGet, "/api/session/report.pdf", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/session/begin", "").Code)
	w = c.do(http.MethodPost, "/api/session/answers", `{"questionId":"focus_1","value":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPost, "/api/session/answers", `{"questionId":"memory_1","value":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPost, "/api/session/answers", `{"questionId":"memory_1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPost, "/api/session/answers", `{"questionId":"Memory-1","value":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadTraces(t *testing.T) {
	c, store := setup(t)
	view := startSession(t, c)
	require.NoError(t, store.UpdateSession(view.ID, func(s *session.Session) error {
		s.Stage = session.StageReaction
		return nil
	}))

	w := c.do(http.MethodPost, "/api/session/tasks/juggling", "[]")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodPost, "/api/session/tasks/reaction", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/session/tasks/reaction", `[{"at":0,"type":"explode"}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/session/tasks/reaction", `[{"at":0,"type":"start","width":400,"height":300}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/session/tasks/reaction", strings.Repeat(" ", handlers.MaxTraceBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = c.do(http.MethodGet, "/api/session/chart?kind=pie", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionCreationRateLimited(t *testing.T) {
	assessment, err := models.LoadAssessment("")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Server.RateLimit = 2
	c := newClient(t, Setup(zap.NewNop(), repository.NewStore(assessment, zap.NewNop()), cfg))

	c.do(http.MethodGet, "/api/questions", "")
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, c.do(http.MethodPost, "/api/sessions", "").Code)
}

// scriptNonce extracts the nonce a Content-Security-Policy allows scripts with.
func scriptNonce(t *testing.T, csp string) string {
	t.Helper()
	_, rest, ok := strings.Cut(csp, "script-src 'nonce-")
	require.True(t, ok, csp)
	nonce, _, ok := strings.Cut(rest, "'")
	require.True(t, ok, csp)
	return nonce
}

func TestNoncePerResponse(t *testing.T) {
	c, _ := setup(t)
	first := scriptNonce(t, c.do(http.MethodGet, "/api/questions", "").Header().Get("Content-Security-Policy"))
	second := scriptNonce(t, c.do(http.MethodGet, "/api/questions", "").Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestSecurityHeaders(t *testing.T) {
	c, _ := setup(t)
	w := c.do(http.MethodGet, "/api/questions", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.NotEmpty(t, w.Header().Get("X-CSRF-Token"))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}
