package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"tasktracker/internal/service"
)

const taskListSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "id": {"type": ["string", "integer", "null"]},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"}
  }
}`

const taskSchema = `{
  "type": "object",
  "required": ["title", "status", "priority", "dueDate"],
  "properties": {
    "id": {"type": ["string", "integer", "null"]},
    "listId": {"type": ["string", "integer", "null"]},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "status": {"enum": ["OPEN", "CLOSED"]},
    "priority": {"enum": ["LOW", "MEDIUM", "HIGH"]},
    "dueDate": {"type": ["string", "null"], "format": "date-time"}
  }
}`

// FakeAPI is an HTTP server implementing the task-list REST API over a
// FakeBackend. Tokens are HS256 JWTs; request bodies are validated against
// JSON schemas and rejected with 400 when invalid.
type FakeAPI struct {
	Backend *FakeBackend

	srv        *httptest.Server
	secret     []byte
	listSchema *jsonschema.Schema
	taskSchema *jsonschema.Schema

	mu         sync.Mutex
	generation int
	users      map[string]fakeUser
	requests   map[string]int
	failures   map[string]int
	lastAuth   string
}

type fakeUser struct {
	id       string
	email    string
	password string
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	a := &FakeAPI{
		Backend:  NewFakeBackend(),
		secret:   []byte("fake-api-secret"),
		users:    make(map[string]fakeUser),
		requests: make(map[string]int),
		failures: make(map[string]int),
	}

	var err error
	if a.listSchema, err = compileSchema("tasklist.json", taskListSchema); err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	if a.taskSchema, err = compileSchema("task.json", taskSchema); err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(a.record)

	e.POST("/auth/login", a.login)
	e.POST("/auth/register", a.register)

	g := e.Group("", a.requireAuth)
	g.GET("/auth/me", a.me)
	g.GET("/task-lists", a.getLists)
	g.POST("/task-lists", a.createList)
	g.GET("/task-lists/:id", a.getList)
	g.PUT("/task-lists/:id", a.updateList)
	g.DELETE("/task-lists/:id", a.deleteList)
	g.GET("/task-lists/:id/tasks", a.getTasks)
	g.POST("/task-lists/:id/tasks", a.createTask)
	g.GET("/task-lists/:id/tasks/:tid", a.getTask)
	g.PUT("/task-lists/:id/tasks/:tid", a.updateTask)
	g.DELETE("/task-lists/:id/tasks/:tid", a.deleteTask)

	a.srv = httptest.NewServer(e)
	t.Cleanup(a.srv.Close)
	return a
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

// URL returns the server base URL.
func (a *FakeAPI) URL() string {
	return a.srv.URL
}

// AddUser registers an account directly.
func (a *FakeAPI) AddUser(username, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[username] = fakeUser{id: strconv.Itoa(len(a.users) + 1), password: password}
}

// IssueToken returns a valid token for username.
func (a *FakeAPI) IssueToken(username string) string {
	a.mu.Lock()
	gen := a.generation
	u := a.users[username]
	a.mu.Unlock()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      u.id,
		"username": username,
		"gen":      gen,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(a.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// RevokeTokens invalidates every token issued so far.
func (a *FakeAPI) RevokeTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
}

// FailNext makes the next request matching method and route answer status.
// route is the echo route pattern, e.g. "/task-lists/:id".
func (a *FakeAPI) FailNext(method, route string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[method+" "+route] = status
}

// Requests returns how many requests matched method and route.
func (a *FakeAPI) Requests(method, route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[method+" "+route]
}

// LastAuthorization returns the Authorization header of the latest request.
func (a *FakeAPI) LastAuthorization() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAuth
}

func (a *FakeAPI) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Path()

		a.mu.Lock()
		a.requests[key]++
		a.lastAuth = c.Request().Header.Get(echo.HeaderAuthorization)
		status, fail := a.failures[key]
		delete(a.failures, key)
		a.mu.Unlock()

		if fail {
			return c.JSON(status, message(http.StatusText(status)))
		}
		return next(c)
	}
}

func (a *FakeAPI) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return c.JSON(http.StatusUnauthorized, message("missing token"))
		}

		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, message("invalid token"))
		}

		claims, _ := token.Claims.(jwt.MapClaims)
		gen, _ := claims["gen"].(float64)
		a.mu.Lock()
		current := a.generation
		a.mu.Unlock()
		if int(gen) != current {
			return c.JSON(http.StatusUnauthorized, message("token revoked"))
		}

		username, _ := claims["username"].(string)
		c.Set("username", username)
		return next(c)
	}
}

func message(s string) map[string]string {
	return map[string]string{"message": s}
}

func backendError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, message("not found"))
	}
	return c.JSON(http.StatusInternalServerError, message(err.Error()))
}

// bindValid validates the body against schema, then decodes it into v.
// When ok is false the error response has already been written.
func bindValid(c echo.Context, schema *jsonschema.Schema, v any) (ok bool, err error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return false, c.JSON(http.StatusBadRequest, message("unreadable body"))
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return false, c.JSON(http.StatusBadRequest, message("invalid json"))
	}
	if err := schema.Validate(doc); err != nil {
		return false, c.JSON(http.StatusBadRequest, message(err.Error()))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, c.JSON(http.StatusBadRequest, message(err.Error()))
	}
	return true, nil
}

type authResponse struct {
	Token string       `json:"token"`
	User  service.User `json:"user"`
}

func (a *FakeAPI) login(c echo.Context) error {
	var creds service.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, message("invalid body"))
	}
	a.mu.Lock()
	u, ok := a.users[creds.Username]
	a.mu.Unlock()
	if !ok || u.password != creds.Password {
		return c.JSON(http.StatusUnauthorized, message("invalid credentials"))
	}
	return c.JSON(http.StatusOK, authResponse{
		Token: a.IssueToken(creds.Username),
		User:  service.User{ID: service.ID(u.id), Username: creds.Username, Email: u.email},
	})
}

func (a *FakeAPI) register(c echo.Context) error {
	var reg service.Registration
	if err := c.Bind(&reg); err != nil {
		return c.JSON(http.StatusBadRequest, message("invalid body"))
	}
	if reg.Username == "" || reg.Password == "" {
		return c.JSON(http.StatusBadRequest, message("username and password required"))
	}

	a.mu.Lock()
	if _, exists := a.users[reg.Username]; exists {
		a.mu.Unlock()
		return c.JSON(http.StatusConflict, message(fmt.Sprintf("user %s already exists", reg.Username)))
	}
	u := fakeUser{id: strconv.Itoa(len(a.users) + 1), email: reg.Email, password: reg.Password}
	a.users[reg.Username] = u
	a.mu.Unlock()

	return c.JSON(http.StatusCreated, authResponse{
		Token: a.IssueToken(reg.Username),
		User:  service.User{ID: service.ID(u.id), Username: reg.Username, Email: u.email},
	})
}

func (a *FakeAPI) me(c echo.Context) error {
	username, _ := c.Get("username").(string)
	a.mu.Lock()
	u := a.users[username]
	a.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]service.User{
		"user": {ID: service.ID(u.id), Username: username, Email: u.email},
	})
}

func (a *FakeAPI) getLists(c echo.Context) error {
	lists, err := a.Backend.ListLists(c.Request().Context())
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, lists)
}

func (a *FakeAPI) getList(c echo.Context) error {
	l, err := a.Backend.GetList(c.Request().Context(), service.ID(c.Param("id")))
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (a *FakeAPI) createList(c echo.Context) error {
	var in service.TaskListInput
	if ok, err := bindValid(c, a.listSchema, &in); !ok {
		return err
	}
	l, err := a.Backend.CreateList(c.Request().Context(), in)
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (a *FakeAPI) updateList(c echo.Context) error {
	var in service.TaskListInput
	if ok, err := bindValid(c, a.listSchema, &in); !ok {
		return err
	}
	l, err := a.Backend.UpdateList(c.Request().Context(), service.ID(c.Param("id")), in)
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (a *FakeAPI) deleteList(c echo.Context) error {
	if err := a.Backend.DeleteList(c.Request().Context(), service.ID(c.Param("id"))); err != nil {
		return backendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *FakeAPI) getTasks(c echo.Context) error {
	tasks, err := a.Backend.ListTasks(c.Request().Context(), service.ID(c.Param("id")))
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (a *FakeAPI) getTask(c echo.Context) error {
	t, err := a.Backend.GetTask(c.Request().Context(), service.ID(c.Param("id")), service.ID(c.Param("tid")))
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (a *FakeAPI) createTask(c echo.Context) error {
	var in service.TaskInput
	if ok, err := bindValid(c, a.taskSchema, &in); !ok {
		return err
	}
	t, err := a.Backend.CreateTask(c.Request().Context(), service.ID(c.Param("id")), in)
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (a *FakeAPI) updateTask(c echo.Context) error {
	var in service.TaskInput
	if ok, err := bindValid(c, a.taskSchema, &in); !ok {
		return err
	}
	t, err := a.Backend.UpdateTask(c.Request().Context(), service.ID(c.Param("id")), service.ID(c.Param("tid")), in)
	if err != nil {
		return backendError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (a *FakeAPI) deleteTask(c echo.Context) error {
	err := a.Backend.DeleteTask(c.Request().Context(), service.ID(c.Param("id")), service.ID(c.Param("tid")))
	if err != nil {
		return backendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
