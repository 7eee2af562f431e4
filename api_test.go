package taskvault_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tv "github.com/taskvault/taskvault"
	"github.com/taskvault/taskvault/stores"
)

// apiEnvelope mirrors the response shape of every endpoint, with Data
// left raw so each test can decode the part it cares about.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []*tv.AuthError `json:"errors"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	users := stores.NewFSUserStore(dir)
	taskStore := stores.NewFSTaskStore(dir)

	codec := tv.NewTokenCodec("test-secret", "taskvault", time.Hour)
	accounts := tv.NewAccountService(users, tv.NewBcryptHasher(4), codec)
	tasks := tv.NewTaskService(taskStore)
	auth := tv.NewMiddleware(codec, users)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(tv.NewServer(accounts, tasks, auth, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (int, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decoding response: %v", method, url, err)
	}
	return resp.StatusCode, env
}

// register signs up a fresh user and returns their token.
func register(t *testing.T, srv *httptest.Server, name, email string) string {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", email, status, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("register %s: no token in response", email)
	}
	return data.Token
}

func createTask(t *testing.T, srv *httptest.Server, token, title string) *tv.Task {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", token, map[string]string{"title": title})
	if status != http.StatusCreated {
		t.Fatalf("create task %q: expected 201, got %d (%s)", title, status, env.Message)
	}
	var task tv.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return &task
}

func TestRegisterAndLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name": "John Doe", "email": "john@example.com", "password": "password123",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", status, env.Message)
	}
	if env.Message != "User registered successfully" {
		t.Errorf("message = %q", env.Message)
	}
	var reg struct {
		Token string         `json:"token"`
		User  *tv.PublicUser `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("decoding registration data: %v", err)
	}
	if reg.Token == "" {
		t.Error("registration returned no token")
	}
	if reg.User == nil || reg.User.Email != "john@example.com" {
		t.Errorf("registration user = %+v", reg.User)
	}
	if bytes.Contains(env.Data, []byte("password")) {
		t.Error("registration response leaks password material")
	}

	// Same address again, regardless of casing.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name": "Imposter", "email": "JOHN@example.com", "password": "password123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", status)
	}
	if env.Message != "User already exists with this email" {
		t.Errorf("duplicate register message = %q", env.Message)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "john@example.com", "password": "password123",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", status, env.Message)
	}
	if env.Message != "Login successful" {
		t.Errorf("login message = %q", env.Message)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "john@example.com", "password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", status)
	}
	if env.Message != "Invalid email or password" {
		t.Errorf("bad login message = %q", env.Message)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name": "John", "email": "not-an-email", "password": "123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Message != "Validation error" {
		t.Errorf("message = %q", env.Message)
	}
	fields := map[string]bool{}
	for _, e := range env.Errors {
		fields[e.Field] = true
	}
	if !fields["email"] || !fields["password"] {
		t.Errorf("expected email and password errors, got %+v", env.Errors)
	}
}

func TestTaskRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if env.Message != "Access denied. No token provided." {
		t.Errorf("message = %q", env.Message)
	}
}

func TestTaskCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "John", "john@example.com")

	task := createTask(t, srv, token, "Buy milk")
	if task.ID == "" {
		t.Fatal("created task has no id")
	}
	if task.Priority != tv.PriorityMedium {
		t.Errorf("default priority = %q", task.Priority)
	}
	if task.Completed {
		t.Error("new task is completed")
	}

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+task.ID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d (%s)", status, env.Message)
	}

	completed := true
	status, env = doJSON(t, http.MethodPut, srv.URL+"/api/tasks/"+task.ID, token, map[string]any{
		"completed": completed, "priority": "high",
	})
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", status, env.Message)
	}
	if env.Message != "Task updated successfully" {
		t.Errorf("update message = %q", env.Message)
	}
	var updated tv.Task
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decoding updated task: %v", err)
	}
	if !updated.Completed || updated.Priority != tv.PriorityHigh {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.Title != "Buy milk" {
		t.Errorf("partial update clobbered title: %q", updated.Title)
	}

	status, env = doJSON(t, http.MethodDelete, srv.URL+"/api/tasks/"+task.ID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	if env.Message != "Task deleted successfully" {
		t.Errorf("delete message = %q", env.Message)
	}

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+task.ID, token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", status)
	}
	if env.Message != "Task not found" {
		t.Errorf("get after delete message = %q", env.Message)
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "Alice", "alice@example.com")
	bob := register(t, srv, "Bob", "bob@example.com")

	task := createTask(t, srv, alice, "Alice's secret")

	// Every cross-tenant access answers exactly like a missing task.
	for _, tc := range []struct {
		name   string
		method string
		body   any
	}{
		{"get", http.MethodGet, nil},
		{"update", http.MethodPut, map[string]string{"title": "Stolen"}},
		{"delete", http.MethodDelete, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			status, env := doJSON(t, tc.method, srv.URL+"/api/tasks/"+task.ID, bob, tc.body)
			if status != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", status)
			}
			if env.Message != "Task not found" {
				t.Errorf("message = %q", env.Message)
			}
		})
	}

	// The owner is unaffected.
	status, _ := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+task.ID, alice, nil)
	if status != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", status)
	}

	// And Bob's listing never shows it.
	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks", bob, nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	var listing struct {
		Tasks []*tv.Task `json:"tasks"`
	}
	if err := json.Unmarshal(env.Data, &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if len(listing.Tasks) != 0 {
		t.Errorf("foreign task leaked into listing: %+v", listing.Tasks)
	}
}

func TestTaskBadIdentifiers(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "John", "john@example.com")

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/not-a-uuid", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Message != "Invalid parameters" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestTaskBadQueryParameters(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "John", "john@example.com")

	for _, query := range []string{
		"?completed=maybe",
		"?priority=urgent",
		"?page=0",
		"?page=abc",
		"?limit=0",
		"?limit=1000",
	} {
		status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks"+query, token, nil)
		if status != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, status)
			continue
		}
		if env.Message != "Invalid query parameters" {
			t.Errorf("%s: message = %q", query, env.Message)
		}
	}
}

func TestTaskListingFiltersAndPaginates(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "John", "john@example.com")

	for i := 0; i < 7; i++ {
		task := createTask(t, srv, token, fmt.Sprintf("task %d", i))
		if i%2 == 0 {
			completed := true
			status, _ := doJSON(t, http.MethodPut, srv.URL+"/api/tasks/"+task.ID, token, map[string]any{"completed": completed})
			if status != http.StatusOK {
				t.Fatalf("marking task %d complete: got %d", i, status)
			}
		}
	}

	type page struct {
		Tasks      []*tv.Task `json:"tasks"`
		Pagination struct {
			Current    int   `json:"current"`
			Total      int64 `json:"total"`
			Count      int   `json:"count"`
			TotalItems int64 `json:"totalItems"`
		} `json:"pagination"`
	}
	fetch := func(query string) page {
		t.Helper()
		status, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks"+query, token, nil)
		if status != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", query, status, env.Message)
		}
		var p page
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.Fatalf("%s: decoding page: %v", query, err)
		}
		return p
	}

	first := fetch("?page=1&limit=3")
	if first.Pagination.TotalItems != 7 || first.Pagination.Total != 3 {
		t.Errorf("pagination = %+v", first.Pagination)
	}
	if first.Pagination.Count != 3 || len(first.Tasks) != 3 {
		t.Errorf("first page has %d tasks", len(first.Tasks))
	}

	last := fetch("?page=3&limit=3")
	if last.Pagination.Count != 1 || last.Pagination.Current != 3 {
		t.Errorf("last page pagination = %+v", last.Pagination)
	}

	done := fetch("?completed=true")
	if done.Pagination.TotalItems != 4 {
		t.Errorf("completed filter returned %d items", done.Pagination.TotalItems)
	}
	for _, task := range done.Tasks {
		if !task.Completed {
			t.Errorf("incomplete task in completed listing: %+v", task)
		}
	}
}

func TestTaskValidation(t *testing.T) {
	srv := newTestServer(t)
	token := register(t, srv, "John", "john@example.com")

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", token, map[string]string{"priority": "high"})
	if status != http.StatusBadRequest {
		t.Fatalf("missing title: expected 400, got %d", status)
	}
	if len(env.Errors) == 0 || env.Errors[0].Field != "title" {
		t.Errorf("errors = %+v", env.Errors)
	}

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/tasks", token, map[string]string{
		"title": "x", "priority": "urgent",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("bad priority: expected 400, got %d", status)
	}

	// A partial update may omit the title entirely.
	task := createTask(t, srv, token, "keep me")
	status, _ = doJSON(t, http.MethodPut, srv.URL+"/api/tasks/"+task.ID, token, map[string]string{"priority": "low"})
	if status != http.StatusOK {
		t.Fatalf("partial update: expected 200, got %d", status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body.Status != "OK" {
		t.Errorf("status = %q", body.Status)
	}
}
