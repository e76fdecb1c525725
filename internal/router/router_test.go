package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"oncology-dispatch/internal/adapters/auth/jwtauth"
	"oncology-dispatch/internal/router"

	"golang.org/x/crypto/bcrypt"
)

const prescriptionsCSV = "CEDULA;NOMBRE;MEDICAMENTO;EPS\n123;JUAN PEREZ;ABEMACILIB X 150 MG;NUEVA EPS\n"

func TestHTTP_EndToEnd_ImportAndLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	userID := "ops-1"

	// 1) Sin usuario no se puede importar
	{
		st, _ := doRaw(t, ts.URL, "POST", "/despachos/importar", "", "", prescriptionsCSV)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 import without user, got %d", st)
		}
	}

	// 2) Importa y genera la hoja de ruta
	{
		st, body := doRaw(t, ts.URL, "POST", "/despachos/importar", userID, "", prescriptionsCSV)
		if st != http.StatusOK {
			t.Fatalf("expected 200 import, got %d body=%s", st, string(body))
		}
		var rep struct {
			Prescriptions int `json:"prescripciones"`
			Created       int `json:"creados"`
		}
		_ = json.Unmarshal(body, &rep)
		if rep.Prescriptions != 1 || rep.Created != 6 {
			t.Fatalf("unexpected import report body=%s", string(body))
		}
	}

	// 3) Reimportar no duplica
	{
		st, body := doRaw(t, ts.URL, "POST", "/despachos/importar", userID, "", prescriptionsCSV)
		if st != http.StatusOK || !strings.Contains(string(body), `"creados":0`) {
			t.Fatalf("expected idempotent import, got %d body=%s", st, string(body))
		}
	}

	// 4) Lista ascendente por fecha
	id := firstDispatchID(t, ts.URL)

	// 5) entregar desde Pendiente => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/despachos/"+id+"/entregar", userID, map[string]any{})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 deliver from pending, got %d body=%s", st, string(body))
		}
	}

	// 6) agendar
	{
		st, body := doReq(t, ts.URL, "POST", "/despachos/"+id+"/agendar", userID, map[string]any{"nota": "llamada"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 schedule, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), `"estadoActual":"Agendado"`) {
			t.Fatalf("expected Agendado body=%s", string(body))
		}
	}

	// 7) posponer sin motivo => 400
	{
		st, body := doReq(t, ts.URL, "POST", "/despachos/"+id+"/posponer", userID, map[string]any{"fecha": "2030-01-01"})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 postpone without reason, got %d body=%s", st, string(body))
		}
	}

	// 8) entregar a domicilio
	{
		st, body := doReq(t, ts.URL, "POST", "/despachos/"+id+"/entregar", userID, map[string]any{"modalidad": "Domicilio"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 deliver, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), `"confirmado":true`) {
			t.Fatalf("expected confirmado=true body=%s", string(body))
		}
	}

	// 9) KPIs
	{
		st, body := doReq(t, ts.URL, "GET", "/despachos/kpis", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 kpis, got %d body=%s", st, string(body))
		}
		var s struct {
			Total     int `json:"total"`
			Delivered int `json:"entregados"`
		}
		_ = json.Unmarshal(body, &s)
		if s.Total != 6 || s.Delivered != 1 {
			t.Fatalf("unexpected kpis body=%s", string(body))
		}
	}

	// 10) El paciente quedó registrado con su entrega
	{
		st, body := doReq(t, ts.URL, "GET", "/pacientes/123", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get patient, got %d body=%s", st, string(body))
		}
	}

	// 11) Editar paciente exige usuario
	{
		st, _ := doReq(t, ts.URL, "PUT", "/pacientes/123", "", map[string]any{"nombreCompleto": "JUAN"})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 upsert without user, got %d", st)
		}
		st, body := doReq(t, ts.URL, "PUT", "/pacientes/123", userID, map[string]any{"nombreCompleto": "JUAN PEREZ", "estado": "AC - ACTIVO"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 upsert, got %d body=%s", st, string(body))
		}
	}

	// 12) Acción desconocida y despacho inexistente
	{
		st, _ := doReq(t, ts.URL, "POST", "/despachos/"+id+"/archivar", userID, map[string]any{})
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown action, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/despachos/nope", userID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 unknown dispatch, got %d", st)
		}
	}

	// 13) Borrado por paciente
	{
		st, body := doReq(t, ts.URL, "DELETE", "/pacientes/123/despachos", userID, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"eliminados":6`) {
			t.Fatalf("expected 6 deleted, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_Import_RejectsFileWithoutHeader(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, body := doRaw(t, ts.URL, "POST", "/despachos/importar", "ops-1", "", "hola\nmundo\n")
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", st, string(body))
	}
}

func TestHTTP_DeleteAll_RequiresConfirmation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "DELETE", "/despachos", "ops-1", nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmar, got %d", st)
	}
	st, body := doReq(t, ts.URL, "DELETE", "/despachos?confirmar=true", "ops-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health %d %s", st, string(body))
	}

	// genera al menos una observación http antes de leer métricas
	_, _ = doReq(t, ts.URL, "GET", "/despachos", "", nil)
	st, body = doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("expected http metrics, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/formulario", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 formulario, got %d", st)
	}
}

func TestHTTP_LoginGate(t *testing.T) {
	tokens, err := jwtauth.NewTokens(jwtauth.Config{SigningKey: "0123456789abcdef0123"})
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: tokens,
		Login:        jwtauth.NewLogin(tokens, "ops@clinica.co", string(hash)),
	}))
	defer ts.Close()

	// con verifier real el header de debug no sirve
	{
		st, _ := doRaw(t, ts.URL, "POST", "/despachos/importar", "ops-1", "", prescriptionsCSV)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 with debug header, got %d", st)
		}
	}

	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{"email": "ops@clinica.co", "password": "mala"})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 bad password, got %d", st)
		}
	}

	st, body := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{"email": "OPS@clinica.co", "password": "secreto"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}
	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" {
		t.Fatalf("login: missing token body=%s", string(body))
	}

	st, body = doRaw(t, ts.URL, "POST", "/despachos/importar", "", resp.Token, prescriptionsCSV)
	if st != http.StatusOK {
		t.Fatalf("expected 200 import with token, got %d body=%s", st, string(body))
	}
}

func firstDispatchID(t *testing.T, baseURL string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/despachos?orden=fecha&dir=asc&pageSize=50", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
	}
	var page struct {
		Total int `json:"total"`
		Items []struct {
			ID     string `json:"id"`
			Estado string `json:"estadoActual"`
		} `json:"items"`
	}
	_ = json.Unmarshal(body, &page)
	if page.Total != 6 || len(page.Items) != 6 {
		t.Fatalf("expected 6 dispatches body=%s", string(body))
	}
	if page.Items[0].Estado != "Pendiente" || !strings.HasPrefix(page.Items[0].ID, "123_") {
		t.Fatalf("unexpected first dispatch %+v", page.Items[0])
	}
	return page.Items[0].ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	return send(t, req)
}

func doRaw(t *testing.T, baseURL, method, path, debugUserID, token, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, baseURL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
