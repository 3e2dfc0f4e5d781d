package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/userdesk/userdesk/pkg/user"
)

// --- Helpers ---

// mockServer creates a test server with the given handler and a client pointed at it.
func mockServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := New(ts.URL)
	return ts, c
}

func jsonHandler(t *testing.T, statusCode int, body interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if body != nil {
			if err := json.NewEncoder(w).Encode(body); err != nil {
				t.Errorf("failed to encode response: %v", err)
			}
		}
	}
}

func sampleFields() user.Fields {
	return user.Fields{
		Name:     "Ada",
		LastName: "Lovelace",
		Avatar:   "https://example.com/ada.png",
		School:   "BDU",
		Phone:    "+994556666666",
		Email:    "ada@example.com",
		Role:     user.RoleAdmin,
	}
}

// --- New / Options Tests ---

func TestNew(t *testing.T) {
	c := New("http://localhost:4300/")
	if c.BaseURL() != "http://localhost:4300" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", c.BaseURL())
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c := New("http://x", WithHTTPClient(hc), WithTimeout(5*time.Second), WithUserAgent("userdesk/test"))
	if c.httpClient != hc {
		t.Error("WithHTTPClient() not applied")
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}
	if c.userAgent != "userdesk/test" {
		t.Errorf("userAgent = %q", c.userAgent)
	}
}

// --- List ---

func TestList_Success(t *testing.T) {
	var gotMethod, gotPath string
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		jsonHandler(t, 200, []map[string]interface{}{
			{"id": "1", "name": "Ada"},
			{"id": 2, "name": "Bo"},
		})(w, r)
	})

	users, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotMethod != http.MethodGet || gotPath != "/users" {
		t.Errorf("request = %s %s, want GET /users", gotMethod, gotPath)
	}
	if len(users) != 2 || users[0].ID != "1" || users[1].ID != "2" {
		t.Errorf("List() = %+v", users)
	}
}

func TestList_NullBody(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})
	users, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", users)
	}
}

func TestList_ServerErrorKeepsPayload(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, 500, map[string]string{"error": "internal", "message": "database down"}))

	_, err := c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("List() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if apiErr.Message() != "database down" {
		t.Errorf("Message() = %q, want %q", apiErr.Message(), "database down")
	}
}

func TestList_ConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1") // port 1 should refuse
	_, err := c.List(context.Background())
	if err == nil {
		t.Fatal("List() error = nil, want connection error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("List() error = %v, want transport error, not APIError", err)
	}
}

func TestList_BadJSON(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})
	if _, err := c.List(context.Background()); err == nil {
		t.Error("List() error = nil, want decode error")
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	var body map[string]interface{}
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users" {
			t.Errorf("request = %s %s, want POST /users", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		out := user.User{ID: "u-1", Fields: sampleFields()}
		jsonHandler(t, 201, out)(w, r)
	})

	created, err := c.Create(context.Background(), sampleFields())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "u-1" || created.Name != "Ada" {
		t.Errorf("Create() = %+v", created)
	}
	if _, ok := body["id"]; ok {
		t.Error("create body must not carry an id")
	}
	if body["phone"] != "+994556666666" {
		t.Errorf("body phone = %v", body["phone"])
	}
}

func TestCreate_ValidationError(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, 400, map[string]interface{}{
		"type":   "validation_error",
		"detail": "Name is required",
	}))

	_, err := c.Create(context.Background(), user.Fields{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Create() error = %v, want *APIError", err)
	}
	if apiErr.Message() != "Name is required" {
		t.Errorf("Message() = %q", apiErr.Message())
	}
}

// --- Update ---

func TestUpdate_Success(t *testing.T) {
	var body map[string]interface{}
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/users/u 1" {
			t.Errorf("request = %s %s, want PUT /users/u 1", r.Method, r.URL.Path)
		}
		if r.URL.RawPath != "" && r.URL.RawPath != "/users/u%201" {
			t.Errorf("raw path = %q, want escaped id", r.URL.RawPath)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f := sampleFields()
		f.School = "ADA"
		jsonHandler(t, 200, user.User{ID: "u 1", Fields: f})(w, r)
	})

	patch := sampleFields()
	patch.School = "ADA"
	updated, err := c.Update(context.Background(), "u 1", patch)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.School != "ADA" || updated.ID != "u 1" {
		t.Errorf("Update() = %+v", updated)
	}
	if _, ok := body["id"]; ok {
		t.Error("update body must not carry an id")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, 404, nil))

	_, err := c.Update(context.Background(), "missing", sampleFields())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.NotFound() {
		t.Fatalf("Update() error = %v, want 404 APIError", err)
	}
	if apiErr.Payload != nil {
		t.Errorf("Payload = %s, want nil for empty body", apiErr.Payload)
	}
}

// --- Delete ---

func TestDelete_EchoesID(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/users/42" {
			t.Errorf("request = %s %s, want DELETE /users/42", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	id, err := c.Delete(context.Background(), "42")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if id != "42" {
		t.Errorf("Delete() = %q, want %q", id, "42")
	}
}

func TestDelete_PlainTextError(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream unavailable\n")
	})

	_, err := c.Delete(context.Background(), "42")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Delete() error = %v, want *APIError", err)
	}
	if apiErr.Message() != "upstream unavailable" {
		t.Errorf("Message() = %q", apiErr.Message())
	}
	if !json.Valid(apiErr.Payload) {
		t.Errorf("Payload = %q, want valid JSON", apiErr.Payload)
	}
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{StatusCode: 503}
	if e.Error() != "users api: status 503" {
		t.Errorf("Error() = %q", e.Error())
	}
	e.Payload = json.RawMessage(`{"error":"unavailable"}`)
	if e.Error() != "users api: status 503: unavailable" {
		t.Errorf("Error() = %q", e.Error())
	}
}
