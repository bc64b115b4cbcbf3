package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/dto"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/fetch"
	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/store"
	apphttp "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeRunner struct {
	mu       sync.Mutex
	requests []fetch.Request
	startErr error
	active   bool
	status   *fetch.RunStatus
}

func (f *fakeRunner) Start(_ context.Context, req fetch.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	if f.active {
		return "", domain.ErrRunInProgress
	}
	f.active = true
	f.requests = append(f.requests, req)
	return "run-1", nil
}

func (f *fakeRunner) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeRunner) Status() (fetch.RunStatus, bool) {
	if f.status == nil {
		return fetch.RunStatus{}, false
	}
	return *f.status, true
}

type fakeEvents struct{ events []entity.RunEvent }

func (f fakeEvents) Since(after uint64) []entity.RunEvent {
	out := []entity.RunEvent{}
	for _, e := range f.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

func (f fakeEvents) LastSeq() uint64 { return uint64(len(f.events)) }

type fakeReports struct{ err error }

func (f fakeReports) Manual(files []string, _ entity.Direction, output string) (*appreport.Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &appreport.Output{ReportPath: output, Files: len(files), Records: len(files)}, nil
}

type testEnv struct {
	app    *fiber.App
	runner *fakeRunner
	store  *store.TaxpayerStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	c, err := store.LoadOrCreateKey(filepath.Join(dir, ".key"))
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(dir, "empresas.json"), c, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Create(entity.Taxpayer{TaxID: "11222333000181", Name: "ACME", AuthMode: entity.AuthModePassword, Password: "s3nh4"}))

	runner := &fakeRunner{}
	events := fakeEvents{events: []entity.RunEvent{
		{Seq: 1, Level: entity.EventInfo, Message: "execução iniciada"},
		{Seq: 2, Level: entity.EventSuccess, Message: "XML salvo"},
	}}
	defaults := fetch.Options{
		Root:       "/padrao",
		Kinds:      []entity.ArtifactKind{entity.ArtifactXML, entity.ArtifactPDF},
		Directions: []entity.Direction{entity.DirectionIssued, entity.DirectionReceived},
		UseCache:   true,
	}

	app := apphttp.NewApp("test")
	apphttp.Router(app, apphttp.RouterDeps{
		Runs:      apphttp.NewRunHandler(context.Background(), runner, st, events, defaults),
		Taxpayers: apphttp.NewTaxpayerHandler(st),
		Reports:   apphttp.NewReportHandler(fakeReports{}),
		Service:   "nfse-downloader",
	})
	return &testEnv{app: app, runner: runner, store: st}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// ──────────────────────────────────────────────────────────────────────────────
// Execuções
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := doJSON(t, env.app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestStartRun_AceitaEAplicaOpcoes(t *testing.T) {
	env := newTestEnv(t)
	noCache := false
	resp, body := doJSON(t, env.app, http.MethodPost, "/runs", dto.StartRunRequest{
		TaxIDs:     []string{"11.222.333/0001-81"},
		Competence: "01/2026",
		Kind:       "xml",
		Directions: []string{"recebidas"},
		UseCache:   &noCache,
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode, string(body))

	var out dto.StartRunResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "run-1", out.ID)

	require.Len(t, env.runner.requests, 1)
	req := env.runner.requests[0]
	require.Len(t, req.Taxpayers, 1)
	assert.Equal(t, "s3nh4", req.Taxpayers[0].Password)
	assert.Equal(t, "01/2026", req.Options.Competence)
	assert.Equal(t, []entity.ArtifactKind{entity.ArtifactXML}, req.Options.Kinds)
	assert.Equal(t, []entity.Direction{entity.DirectionReceived}, req.Options.Directions)
	assert.False(t, req.Options.UseCache)
	assert.Equal(t, "/padrao", req.Options.Root)
}

func TestStartRun_SemCorpoUsaPadroesEPastaDoCadastro(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetDefaultFolder("/notas"))

	resp, _ := doJSON(t, env.app, http.MethodPost, "/runs", nil)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	opts := env.runner.requests[0].Options
	assert.Equal(t, "/notas", opts.Root)
	assert.True(t, opts.UseCache)
	assert.Len(t, opts.Kinds, 2)
	assert.Empty(t, opts.Competence)
}

func TestStartRun_SegundaExecucaoDevolve409(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := doJSON(t, env.app, http.MethodPost, "/runs", dto.StartRunRequest{})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	resp, body := doJSON(t, env.app, http.MethodPost, "/runs", dto.StartRunRequest{})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "RUN_IN_PROGRESS")
}

func TestStartRun_CNPJDesconhecido404(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := doJSON(t, env.app, http.MethodPost, "/runs", dto.StartRunRequest{TaxIDs: []string{"99999999000199"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, env.runner.requests)
}

func TestStartRun_ListaVaziaNoRunner400(t *testing.T) {
	env := newTestEnv(t)
	env.runner.startErr = domain.ErrInvalidInput
	resp, _ := doJSON(t, env.app, http.MethodPost, "/runs", dto.StartRunRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStartRun_CorpoInvalido400(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := doJSON(t, env.app, http.MethodPost, "/runs/cancel", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "sem execução ativa")

	env.runner.active = true
	resp, _ = doJSON(t, env.app, http.MethodPost, "/runs/cancel", nil)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := doJSON(t, env.app, http.MethodGet, "/runs/status", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	env.runner.status = &fetch.RunStatus{ID: "run-1", Running: true, Total: 2, Current: "ACME", Results: []fetch.Result{}}
	resp, body := doJSON(t, env.app, http.MethodGet, "/runs/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var st fetch.RunStatus
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "run-1", st.ID)
	assert.True(t, st.Running)
	assert.Equal(t, "ACME", st.Current)
}

func TestEvents_Since(t *testing.T) {
	env := newTestEnv(t)
	resp, body := doJSON(t, env.app, http.MethodGet, "/runs/events?since=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.EventsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Events, 1)
	assert.Equal(t, "XML salvo", out.Events[0].Message)
	assert.Equal(t, uint64(2), out.Last)

	_, body = doJSON(t, env.app, http.MethodGet, "/runs/events?since=-5", nil)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Events, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Relatórios
// ──────────────────────────────────────────────────────────────────────────────

func TestReports_Manual(t *testing.T) {
	env := newTestEnv(t)
	resp, body := doJSON(t, env.app, http.MethodPost, "/reports", map[string]any{
		"files":  []string{"a.xml", "b.xml"},
		"output": "/tmp/rel.xlsx",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(body), `"records":2`)
}

func TestReports_ErroDeValidacao(t *testing.T) {
	app := apphttp.NewApp("test")
	app.Post("/reports", apphttp.NewReportHandler(fakeReports{err: domain.ErrInvalidInput}).Create)
	resp, _ := doJSON(t, app, http.MethodPost, "/reports", map[string]any{"files": []string{}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
