package taskvault

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// envelope is the uniform response shape returned by every endpoint.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []*AuthError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writeValidationErrors(w http.ResponseWriter, errs []*AuthError) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "Validation error",
		Errors:  errs,
	})
}

// Server wires the HTTP surface: the auth routes, the authentication
// gate, and the ownership-scoped task routes behind it.
type Server struct {
	Accounts *AccountService
	Tasks    *TaskService
	Auth     *Middleware
	Logger   *slog.Logger
}

// NewServer creates a Server.
func NewServer(accounts *AccountService, tasks *TaskService, auth *Middleware, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Accounts: accounts, Tasks: tasks, Auth: auth, Logger: logger}
}

// Handler returns the fully wired router. Every /api/tasks route passes
// through the authentication gate before any handler runs.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	tasks := api.PathPrefix("/tasks").Subrouter()
	tasks.Use(s.Auth.RequireUser)
	tasks.HandleFunc("", s.handleListTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", s.handleCreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/{id}", s.handleGetTask).Methods(http.MethodGet)
	tasks.HandleFunc("/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	tasks.HandleFunc("/{id}", s.handleDeleteTask).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// Auth handlers
// =============================================================================

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	creds := &Credentials{Name: body.Name, Email: body.Email, Password: body.Password}
	if errs := creds.ValidateRegistration(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	result, err := s.Accounts.Register(creds)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		s.Logger.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "User registered successfully",
		Data:    result,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []*AuthError
	if NormalizeEmail(body.Email) == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
	}
	if body.Password == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Password is required", "password"))
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	result, err := s.Accounts.Login(body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.Logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Data:    result,
	})
}

// =============================================================================
// Task handlers
// =============================================================================

// requestUser returns the identity the gate attached. The gate runs on
// every task route, so a miss here is a wiring bug, answered like the
// gate would answer.
func (s *Server) requestUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, MsgNoToken)
	}
	return user, ok
}

// taskID validates the {id} path parameter.
func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters")
		return "", false
	}
	return id, true
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requestUser(w, r)
	if !ok {
		return
	}

	filter, ok := parseTaskQuery(r, user.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	tasks, total, err := s.Tasks.ListTasks(filter)
	if err != nil {
		s.Logger.Error("listing tasks failed", "error", err, "user", user.ID)
		writeError(w, http.StatusInternalServerError, "Error fetching tasks")
		return
	}

	totalPages := (total + int64(filter.Limit) - 1) / int64(filter.Limit)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]any{
			"tasks": tasks,
			"pagination": map[string]any{
				"current":    filter.Page,
				"total":      totalPages,
				"count":      len(tasks),
				"totalItems": total,
			},
		},
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requestUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Completed   bool       `json:"completed"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validateTaskInput(body.Title, body.Priority, false); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	task := &Task{
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
	}
	if err := s.Tasks.CreateTask(user.ID, task); err != nil {
		s.Logger.Error("creating task failed", "error", err, "user", user.ID)
		writeError(w, http.StatusInternalServerError, "Error creating task")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Task created successfully",
		Data:    task,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.Tasks.GetTask(user.ID, id)
	if err != nil {
		s.respondTaskError(w, err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: task})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var body struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Completed   *bool      `json:"completed"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var title, priority string
	if body.Title != nil {
		title = *body.Title
	}
	if body.Priority != nil {
		priority = *body.Priority
	}
	if errs := validateTaskInput(title, priority, body.Title == nil); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	update := TaskUpdate{
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
	}
	task, err := s.Tasks.UpdateTask(user.ID, id, update)
	if err != nil {
		s.respondTaskError(w, err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Task updated successfully",
		Data:    task,
	})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.Tasks.DeleteTask(user.ID, id); err != nil {
		s.respondTaskError(w, err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Task deleted successfully",
	})
}

// respondTaskError maps store failures to responses. Absent and foreign
// tasks answer identically, so ownership is never leaked.
func (s *Server) respondTaskError(w http.ResponseWriter, err error, userID string) {
	if errors.Is(err, ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.Logger.Error("task operation failed", "error", err, "user", userID)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// validateTaskInput checks the shared structural constraints for create
// and update bodies. titleOptional distinguishes a partial update that
// leaves the title alone from a create that must supply one.
func validateTaskInput(title, priority string, titleOptional bool) []*AuthError {
	var errs []*AuthError
	if title == "" {
		if !titleOptional {
			errs = append(errs, NewAuthError(ErrCodeMissingField, "Title is required", "title"))
		}
	} else if len(title) > 100 {
		errs = append(errs, NewAuthError(ErrCodeInvalidName, "Title must be less than 100 characters", "title"))
	}
	if priority != "" && !ValidPriority(priority) {
		errs = append(errs, NewAuthError("invalid_priority", "Priority must be low, medium or high", "priority"))
	}
	return errs
}

// parseTaskQuery builds the listing filter from query parameters,
// always anchored on the caller's id.
func parseTaskQuery(r *http.Request, ownerID string) (TaskFilter, bool) {
	filter := TaskFilter{OwnerID: ownerID, Page: 1, Limit: 10}
	q := r.URL.Query()

	switch q.Get("completed") {
	case "":
	case "true":
		v := true
		filter.Completed = &v
	case "false":
		v := false
		filter.Completed = &v
	default:
		return filter, false
	}

	if p := q.Get("priority"); p != "" {
		if !ValidPriority(p) {
			return filter, false
		}
		filter.Priority = p
	}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return filter, false
		}
		filter.Page = n
	}

	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 100 {
			return filter, false
		}
		filter.Limit = n
	}

	return filter, true
}
