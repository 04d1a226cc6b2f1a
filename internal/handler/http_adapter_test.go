package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invokeTrigger(t *testing.T, next http.Handler, method, url, body string) HTTPTriggerResponse {
	t.Helper()
	var invoke HTTPTriggerRequest
	invoke.Data.Req.Method = method
	invoke.Data.Req.URL = url
	invoke.Data.Req.Body = body
	invoke.Data.Req.Headers = map[string][]string{"Content-Type": {"application/json"}}
	payload, err := json.Marshal(invoke)
	require.NoError(t, err)

	deps := &Dependencies{}
	w := httptest.NewRecorder()
	deps.HandleHttpTrigger(next)(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewBuffer(payload)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HTTPTriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleHttpTrigger_ReplaysRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "2024-05", r.URL.Query().Get("month"))
		body, _ := io.ReadAll(r.Body)
		WriteJSON(w, http.StatusCreated, map[string]string{"echo": string(body)})
	})

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"a":1}`))
	resp := invokeTrigger(t, mux, http.MethodPost, "http://localhost:7071/api/echo?month=2024-05", encoded)

	assert.Equal(t, http.StatusCreated, resp.Outputs.Res.StatusCode)
	assert.Equal(t, "application/json", resp.Outputs.Res.Headers["Content-Type"])
	assert.JSONEq(t, `{"echo": "{\"a\":1}"}`, resp.Outputs.Res.Body)
}

func TestHandleHttpTrigger_RawBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	resp := invokeTrigger(t, mux, http.MethodPost, "http://localhost/api/echo", "not base64!")

	assert.Equal(t, http.StatusOK, resp.Outputs.Res.StatusCode)
	assert.Equal(t, "not base64!", resp.Outputs.Res.Body)
}

func TestHandleHttpTrigger_InvalidEnvelope(t *testing.T) {
	deps := &Dependencies{}
	w := httptest.NewRecorder()

	deps.HandleHttpTrigger(http.NewServeMux())(w, httptest.NewRequest(http.MethodPost, "/HttpTrigger", bytes.NewBufferString("nope")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
