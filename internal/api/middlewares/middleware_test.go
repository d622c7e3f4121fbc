package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type staticVerifier map[string]int64

func (v staticVerifier) Verify(tok string) (int64, error) {
	if id, ok := v[tok]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "ok": ok})
}

func TestOptionalJWT(t *testing.T) {
	h := OptionalJWT(staticVerifier{"good": 7})(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		status int
		wantID float64
		wantOK bool
	}{
		{"no header passes through", "", http.StatusOK, 0, false},
		{"valid token", "Bearer good", http.StatusOK, 7, true},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, 0, false},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status != http.StatusOK {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["id"] != tc.wantID || body["ok"] != tc.wantOK {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestRequestLoggerWritesStatus(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if line["status"] != float64(http.StatusTeapot) || line["path"] != "/api/x" {
		t.Fatalf("line = %v", line)
	}
}
