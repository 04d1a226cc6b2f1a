package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
)

// HTTPTriggerRequest is the JSON envelope the Functions host sends for HTTP triggers.
type HTTPTriggerRequest struct {
	Data struct {
		Req struct {
			URL             string              `json:"Url"`
			Method          string              `json:"Method"`
			Query           map[string]string   `json:"Query"`
			Headers         map[string][]string `json:"Headers"`
			Params          map[string]string   `json:"Params"`
			Body            string              `json:"Body"`
			IsBase64Encoded bool                `json:"isBase64Encoded"`
		} `json:"req"`
	} `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// HTTPTriggerResponse is the JSON envelope returned to the Functions host.
type HTTPTriggerResponse struct {
	Outputs struct {
		Res struct {
			StatusCode int               `json:"statusCode"`
			Headers    map[string]string `json:"headers"`
			Body       string            `json:"body"`
		} `json:"res"`
	} `json:"Outputs"`
	Logs        []string `json:"Logs,omitempty"`
	ReturnValue any      `json:"ReturnValue,omitempty"`
}

// HandleHttpTrigger unwraps a Functions host HTTP invocation, replays it
// against next and wraps the recorded response for the host.
func (d *Dependencies) HandleHttpTrigger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var invokeReq HTTPTriggerRequest
		if err := json.NewDecoder(r.Body).Decode(&invokeReq); err != nil {
			slog.Error("failed to unmarshal HTTP trigger request", "error", err)
			http.Error(w, "Failed to unmarshal request", http.StatusBadRequest)
			return
		}

		reqData := invokeReq.Data.Req
		slog.Debug("processing wrapped HTTP request", "method", reqData.Method, "url", reqData.URL)

		// Hosts do not always set isBase64Encoded, so decoding is attempted regardless.
		bodyReader := io.Reader(http.NoBody)
		if reqData.Body != "" {
			body := []byte(reqData.Body)
			if decoded, err := base64.StdEncoding.DecodeString(reqData.Body); err == nil {
				body = decoded
			} else if reqData.IsBase64Encoded {
				slog.Warn("body flagged as base64 but failed to decode", "error", err)
			}
			bodyReader = bytes.NewReader(body)
		}

		newReq, err := http.NewRequestWithContext(r.Context(), reqData.Method, reqData.URL, bodyReader)
		if err != nil {
			slog.Error("failed to create internal request", "error", err)
			http.Error(w, "Failed to create internal request", http.StatusInternalServerError)
			return
		}
		for k, v := range reqData.Headers {
			for _, val := range v {
				newReq.Header.Add(k, val)
			}
		}

		recorder := httptest.NewRecorder()
		next.ServeHTTP(recorder, newReq)

		result := recorder.Result()
		respBody, _ := io.ReadAll(result.Body)
		result.Body.Close()

		headers := make(map[string]string, len(result.Header))
		for k, v := range result.Header {
			headers[k] = strings.Join(v, ", ")
		}

		var resp HTTPTriggerResponse
		resp.Outputs.Res.StatusCode = result.StatusCode
		resp.Outputs.Res.Headers = headers
		resp.Outputs.Res.Body = string(respBody)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode HTTP trigger response", "error", err)
		}
	}
}
