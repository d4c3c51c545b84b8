// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// MockBackend is an in-memory test double for [services.Backend].
//
// Entities hold records keyed by their "id"; Users maps username to password and payload.
// Set an entry in Errs to make the named operation fail.
type MockBackend struct {
	mu       sync.Mutex
	nextID   int
	Entities map[string][]models.Record
	Users    map[string]MockUser
	Errs     map[shared.Op]error
	Calls    map[shared.Op]int
	Uploads  map[string][]byte
}

// MockUser is an account accepted by [MockBackend.Login].
type MockUser struct {
	Password string
	User     services.LoginUser
}

// NewMockBackend creates an empty [MockBackend].
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Entities: map[string][]models.Record{},
		Users:    map[string]MockUser{},
		Errs:     map[shared.Op]error{},
		Calls:    map[shared.Op]int{},
		Uploads:  map[string][]byte{},
	}
}

// AddUser registers an account.
func (m *MockBackend) AddUser(username, password, role string, permissions ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[username] = MockUser{
		Password: password,
		User:     services.LoginUser{Username: username, Role: role, Permissions: permissions},
	}
}

// Seed appends records to an entity, assigning ids to records without one.
func (m *MockBackend) Seed(entity string, records ...models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ID() == "" {
			m.nextID++
			r["id"] = float64(m.nextID)
		}
		m.Entities[entity] = append(m.Entities[entity], r)
	}
}

// CallCount returns how many times op was invoked.
func (m *MockBackend) CallCount(op shared.Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

func (m *MockBackend) enter(op shared.Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[op]++
	return m.Errs[op]
}

func (m *MockBackend) ResolveAudioURL(name string) string {
	return "http://backend.test/uploads/" + name
}

func (m *MockBackend) UploadAudio(ctx context.Context, filename string, r io.Reader) (*services.UploadResult, error) {
	if err := m.enter(shared.OpUpload); err != nil {
		return nil, &shared.UploadError{Err: err}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &shared.UploadError{Err: err}
	}
	m.mu.Lock()
	m.Uploads[filename] = data
	m.mu.Unlock()
	return &services.UploadResult{URL: "/uploads/" + filename}, nil
}

func (m *MockBackend) Create(ctx context.Context, entity string, data models.Record) (models.Record, error) {
	if err := m.enter(shared.OpCreate); err != nil {
		return nil, err
	}
	created := models.Record{}
	for k, v := range data {
		created[k] = v
	}
	m.Seed(entity, created)
	return created, nil
}

func (m *MockBackend) List(ctx context.Context, entity string) ([]models.Record, error) {
	if err := m.enter(shared.OpList); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Record, len(m.Entities[entity]))
	copy(out, m.Entities[entity])
	return out, nil
}

func (m *MockBackend) Update(ctx context.Context, entity, id string, data models.Record) (models.Record, error) {
	if err := m.enter(shared.OpUpdate); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Entities[entity] {
		if r.ID() == id {
			for k, v := range data {
				r[k] = v
			}
			return r, nil
		}
	}
	return nil, &shared.RemoteError{Op: shared.OpUpdate, StatusCode: http.StatusNotFound, Status: "404 Not Found"}
}

func (m *MockBackend) Delete(ctx context.Context, entity, id string) error {
	if err := m.enter(shared.OpDelete); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.Entities[entity]
	for i, r := range records {
		if r.ID() == id {
			m.Entities[entity] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return &shared.RemoteError{Op: shared.OpDelete, StatusCode: http.StatusNotFound, Status: "404 Not Found"}
}

func (m *MockBackend) Login(ctx context.Context, username, password string) (*services.LoginResponse, error) {
	if err := m.enter(shared.OpLogin); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[username]
	if !ok || u.Password != password {
		return nil, &shared.AuthError{Reason: shared.ErrInvalidCredentials.Error(), Status: "401 Unauthorized"}
	}
	user := u.User
	return &services.LoginResponse{User: &user}, nil
}

// EntityNames returns the seeded entity names, sorted.
func (m *MockBackend) EntityNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Entities))
	for name := range m.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records builds n simple records named prefix-1..n.
func Records(prefix string, n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{"id": float64(i + 1), "name": prefix + "-" + strconv.Itoa(i+1)}
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// ErrBoom is a generic injected failure.
var ErrBoom = fmt.Errorf("boom")
