//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"cras-cadastro/internal/config"
	"cras-cadastro/internal/db"
	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/notify"
	"cras-cadastro/internal/repository/inmemory"
	"cras-cadastro/internal/repository/postgres/records"
	"cras-cadastro/internal/transport/httpserver"
	"cras-cadastro/internal/transport/httpserver/handler"
	"cras-cadastro/internal/transport/httpserver/middleware"
	"cras-cadastro/pkg/logger"
	ws "github.com/coder/websocket"
	"gorm.io/gorm"
)

type testEnv struct {
	server *httptest.Server
	hub    *notify.Hub
	db     *gorm.DB
}

type technician struct {
	id   string
	cras string
}

var (
	central  = technician{id: "tec-central", cras: familydomain.CrasCentral}
	donaTita = technician{id: "tec-dona-tita", cras: familydomain.CrasDonaTita}
)

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	cfg := config.Config{
		DB:         config.DBConfig{DSN: dsn},
		SessionTTL: time.Hour,
	}
	log := logger.Nop()

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	hub := notify.NewHub(log, nil)
	service := familydomain.NewService(
		familydomain.NewRecords(records.NewPostgres(dbConn, "families"), nil),
		familydomain.WithNotifier(hub),
		familydomain.WithSessionCache(inmemory.NewInMemorySessionCache(), cfg.SessionTTL),
	)
	router := httpserver.NewRouter(cfg, httpserver.RouterDeps{
		Handlers: handler.New(service, log),
		Notices:  notify.Handler(hub, nil),
	}, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, hub: hub, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec("TRUNCATE TABLE record_blobs").Error
}

func requestJSON(t *testing.T, client *http.Client, method, url string, tech technician, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tech.id != "" {
		req.Header.Set(middleware.HeaderTechnicianID, tech.id)
		req.Header.Set(middleware.HeaderTechnicianCras, tech.cras)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionResponse struct {
	ID       string                `json:"id"`
	Family   familydomain.Family   `json:"family"`
	Pending  *familydomain.Prompt  `json:"pending"`
	ReadOnly bool                  `json:"read_only"`
	Notices  []familydomain.Notice `json:"notices"`
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

// registerHousehold saves a one-member household through a session.
func registerHousehold(t *testing.T, env *testEnv, client *http.Client, tech technician, prontuario, name, birth string) string {
	t.Helper()

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/sessions", tech, map[string]interface{}{
		"seed": map[string]string{"nome": name},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var session sessionResponse
	decode(t, body, &session)
	base := env.server.URL + "/api/sessions/" + session.ID

	resp, body = requestJSON(t, client, http.MethodPatch, base+"/members/0", tech, map[string]string{"field": "dataNascimento", "value": birth})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set birth: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodPatch, base, tech, map[string]string{"prontuario": prontuario})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set prontuario: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodPost, base+"/save", tech, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &session)
	return session.Family.ID
}

func TestE2EHealthAndTechnician(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health", technician{}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ok") {
		t.Fatalf("unexpected health body: %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/families", technician{}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var envelope errorEnvelope
	decode(t, body, &envelope)
	if envelope.Error.Code != "technician_required" {
		t.Fatalf("expected technician_required, got %s", envelope.Error.Code)
	}
}

func TestE2ECrossHouseholdTransfer(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	sourceID := registerHousehold(t, env, client, central, "100", "Ana Silva", "1985-03-10")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(env.server.URL, "http")+"/api/notices/ws", &ws.DialOptions{
		HTTPHeader: http.Header{
			middleware.HeaderTechnicianID:   []string{donaTita.id},
			middleware.HeaderTechnicianCras: []string{donaTita.cras},
		},
	})
	if err != nil {
		t.Fatalf("dial notices: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/sessions", donaTita, map[string]interface{}{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d", resp.StatusCode)
	}
	var session sessionResponse
	decode(t, body, &session)
	base := env.server.URL + "/api/sessions/" + session.ID

	requestJSON(t, client, http.MethodPost, base+"/members", donaTita, nil)
	requestJSON(t, client, http.MethodPatch, base+"/members/0", donaTita, map[string]string{"field": "nome", "value": "ANA SILVA"})
	resp, body = requestJSON(t, client, http.MethodPatch, base+"/members/0", donaTita, map[string]string{"field": "dataNascimento", "value": "1985-03-10"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &session)
	if session.Pending == nil || session.Pending.FamilyID != sourceID {
		t.Fatalf("expected pending transfer from %s, got %+v", sourceID, session.Pending)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/confirm", donaTita, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read notice: %v", err)
	}
	var msg notify.Message
	decode(t, data, &msg)
	if msg.Level != familydomain.NoticeSuccess {
		t.Fatalf("expected success notice, got %+v", msg)
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/families/"+sourceID, central, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get source: expected 200, got %d", resp.StatusCode)
	}
	var source familydomain.Family
	decode(t, body, &source)
	if len(source.Members) != 1 || source.Members[0].Active {
		t.Fatalf("expected source member deactivated, got %+v", source.Members)
	}
}

func TestE2ECrasOwnership(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	id := registerHousehold(t, env, client, central, "300", "Bruno Lima", "1990-09-09")

	resp, body := requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/families/"+id, donaTita, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, _ = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/families/"+id+"/cras-transfer", donaTita, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/families/"+id, donaTita, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
