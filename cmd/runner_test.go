package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/repositories"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/session"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/desertthunder/gestaopro/internal/tasks"
	tu "github.com/desertthunder/gestaopro/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T) (*Runner, *tu.MockBackend, *bytes.Buffer) {
	t.Helper()

	backend := tu.NewMockBackend()
	backend.AddUser("gerente", "admin-pw", "admin")
	backend.AddUser("vendas", "sales-pw", "user", "sales", "marketplace-orders")
	backend.Seed("sales", tu.Records("sale", 2)...)

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "gestaopro.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Backend: backend,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return runner, backend, output
}

func runApp(r *Runner, args ...string) error {
	return r.app().Run(context.Background(), append([]string{"gestaopro"}, args...))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			backend := tu.NewMockBackend()
			sess := session.New(backend, logger)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Backend:    backend,
				Session:    sess,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.session != sess {
				t.Error("expected session to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil config path uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.configPath != defaultConfigPath {
				t.Errorf("expected configPath %q, got %q", defaultConfigPath, runner.configPath)
			}
		})

		t.Run("with httpClient builds the backend on it", func(t *testing.T) {
			var hits []string
			client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				hits = append(hits, req.URL.String())
				return &http.Response{
					StatusCode: http.StatusOK,
					Header:     http.Header{"Content-Type": {"application/json"}},
					Body:       io.NopCloser(strings.NewReader("[]")),
					Request:    req,
				}, nil
			})}

			config := shared.DefaultConfig()
			config.Backend.BaseURL = "http://backend.test"
			runner := NewRunner(RunnerOpts{Config: config, HTTPClient: client})

			if _, err := runner.backend.List(context.Background(), "sales"); err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(hits) != 1 || !strings.HasPrefix(hits[0], "http://backend.test/") {
				t.Errorf("expected one request through the given client, got %v", hits)
			}
		})

		t.Run("with nil backend uses the external server", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if _, ok := runner.backend.(*services.ExternalServer); !ok {
				t.Errorf("expected *services.ExternalServer, got %T", runner.backend)
			}
			if runner.session == nil {
				t.Error("expected a session to be created")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := []string{}
		for _, c := range runner.register() {
			names = append(names, c.Name)
		}
		want := "setup auth entity audio alerts backup serve tui"
		if got := strings.Join(names, " "); got != want {
			t.Errorf("commands = %q, want %q", got, want)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("fails on write error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]int{"a": 1}, false); err == nil {
				t.Error("expected error")
			}
		})

		t.Run("fails on unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error")
			}
		})
	})
}

func TestDecodeData(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		rec, err := decodeData(`{"name":"Mesa","price":120}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec["name"] != "Mesa" {
			t.Errorf("unexpected record %v", rec)
		}
	})

	for name, raw := range map[string]string{
		"empty":   "",
		"invalid": "{name:",
		"array":   "[1,2]",
		"null":    "null",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeData(raw); err == nil {
				t.Errorf("expected error for %q", raw)
			}
		})
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("login prints the user", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "auth", "login", "-u", "vendas", "-p", "sales-pw", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out userOutput
		if err := json.Unmarshal(output.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if out.Username != "vendas" || out.Role != models.RoleUser || len(out.Permissions) != 2 {
			t.Errorf("unexpected user %+v", out)
		}
		if runner.session.IsAuthenticated() {
			t.Error("login should not leave a session behind")
		}
	})

	t.Run("login with bad password", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "auth", "login", "-u", "vendas", "-p", "nope")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("login without credentials", func(t *testing.T) {
		t.Setenv(EnvUsername, "")
		t.Setenv(EnvPassword, "")
		runner, backend, _ := newTestRunner(t)
		err := runApp(runner, "auth", "login")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if backend.CallCount(shared.OpLogin) != 0 {
			t.Error("backend should not be called")
		}
	})

	t.Run("check granted", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "auth", "check", "-u", "vendas", "-p", "sales-pw", "sales"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "✓ sales") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("check denied", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "auth", "check", "-u", "vendas", "-p", "sales-pw", "employees")
		if !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("check unknown permission", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "auth", "check", "-u", "vendas", "-p", "sales-pw", "payroll")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestEntityCommands(t *testing.T) {
	t.Run("list as csv", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "entity", "list", "-u", "vendas", "-p", "sales-pw", "--format", "csv", "sales"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(output.String(), "id,name\n") || !strings.Contains(output.String(), "sale-2") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("list forbidden section", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		err := runApp(runner, "entity", "list", "-u", "vendas", "-p", "sales-pw", "products")
		if !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if backend.CallCount(shared.OpList) != 0 {
			t.Error("backend should not be listed")
		}
	})

	t.Run("list section without records", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "entity", "list", "-u", "gerente", "-p", "admin-pw", "reports")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("list with bad format", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "entity", "list", "-u", "vendas", "-p", "sales-pw", "--format", "xml", "sales")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("list backend failure", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		backend.Errs[shared.OpList] = &shared.RemoteError{Op: shared.OpList, StatusCode: 500, Status: "500 Internal Server Error"}

		err := runApp(runner, "entity", "list", "-u", "vendas", "-p", "sales-pw", "sales")
		var remote *shared.RemoteError
		if !errors.As(err, &remote) {
			t.Fatalf("expected RemoteError, got %v", err)
		}
		if !strings.Contains(err.Error(), shared.MessageFor(shared.OpList)) {
			t.Errorf("expected user-facing message in %q", err.Error())
		}
	})

	t.Run("create", func(t *testing.T) {
		runner, backend, output := newTestRunner(t)
		err := runApp(runner, "entity", "create", "-u", "gerente", "-p", "admin-pw", "--data", `{"name":"Mesa"}`, "products")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(backend.Entities["products"]); got != 1 {
			t.Errorf("expected 1 product, got %d", got)
		}
		if !strings.Contains(output.String(), `"Mesa"`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("update", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		err := runApp(runner, "entity", "update", "-u", "vendas", "-p", "sales-pw", "--data", `{"name":"renamed"}`, "sales", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := backend.Entities["sales"][0]["name"]; got != "renamed" {
			t.Errorf("expected renamed record, got %v", got)
		}
	})

	t.Run("update missing record", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "entity", "update", "-u", "vendas", "-p", "sales-pw", "--data", `{"name":"x"}`, "sales", "99")
		var remote *shared.RemoteError
		if !errors.As(err, &remote) || remote.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 RemoteError, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		runner, backend, output := newTestRunner(t)
		if err := runApp(runner, "entity", "delete", "-u", "vendas", "-p", "sales-pw", "sales", "2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(backend.Entities["sales"]); got != 1 {
			t.Errorf("expected 1 sale left, got %d", got)
		}
		if !strings.Contains(output.String(), "Deleted sales 2") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestAudioCommands(t *testing.T) {
	t.Run("url", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "audio", "url", "novo_pedido.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := output.String(); got != "http://backend.test/uploads/novo_pedido.mp3\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("upload then list", func(t *testing.T) {
		runner, backend, output := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "alert.mp3")
		if err := os.WriteFile(path, []byte("ID3"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := runApp(runner, "audio", "upload", "-u", "vendas", "-p", "sales-pw", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(backend.Uploads["alert.mp3"]) != "ID3" {
			t.Error("expected file to be uploaded")
		}

		output.Reset()
		if err := runApp(runner, "audio", "list", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var files []models.AudioFile
		if err := json.Unmarshal(output.Bytes(), &files); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if len(files) != 1 || files[0].URL != "/uploads/alert.mp3" {
			t.Errorf("unexpected receipts %+v", files)
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		backend.Errs[shared.OpUpload] = tu.ErrBoom
		path := filepath.Join(t.TempDir(), "alert.mp3")
		os.WriteFile(path, []byte("ID3"), 0644)

		err := runApp(runner, "audio", "upload", "-u", "vendas", "-p", "sales-pw", path)
		if !errors.Is(err, shared.ErrUpload) {
			t.Errorf("expected ErrUpload, got %v", err)
		}
	})

	t.Run("upload requires credentials", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "alert.mp3")
		os.WriteFile(path, []byte("ID3"), 0644)

		err := runApp(runner, "audio", "upload", path)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if n := backend.CallCount(shared.OpUpload); n != 0 {
			t.Errorf("expected no upload, got %d", n)
		}

		err = runApp(runner, "audio", "upload", "-u", "vendas", "-p", "wrong", path)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if n := backend.CallCount(shared.OpUpload); n != 0 {
			t.Errorf("expected no upload, got %d", n)
		}
	})

	t.Run("upload logs out afterwards", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "alert.mp3")
		os.WriteFile(path, []byte("ID3"), 0644)

		if err := runApp(runner, "audio", "upload", "-u", "vendas", "-p", "sales-pw", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.session.IsAuthenticated() {
			t.Error("expected session to be cleared")
		}
	})

	t.Run("upload directory", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		err := runApp(runner, "audio", "upload", "-u", "vendas", "-p", "sales-pw", t.TempDir())
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if n := backend.CallCount(shared.OpLogin); n != 0 {
			t.Errorf("expected no login before the file is checked, got %d", n)
		}
	})

	t.Run("url prefers a recorded absolute URL", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		db, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		repo := repositories.NewAudioRepository(db)
		if err := repo.Create(&models.AudioFile{Name: "sino.mp3", URL: "https://cdn.test/a/sino.mp3"}); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(&models.AudioFile{Name: "relativo.mp3", URL: "/uploads/relativo.mp3"}); err != nil {
			t.Fatal(err)
		}
		db.Close()

		if err := runApp(runner, "audio", "url", "sino.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := runApp(runner, "audio", "url", "relativo.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://cdn.test/a/sino.mp3\nhttp://backend.test/uploads/relativo.mp3\n"
		if got := output.String(); got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		db, err := runner.openStore()
		if err != nil {
			t.Fatal(err)
		}
		receipt := &models.AudioFile{Name: "sino.mp3", URL: "/uploads/sino.mp3"}
		if err := repositories.NewAudioRepository(db).Create(receipt); err != nil {
			t.Fatal(err)
		}
		db.Close()

		if err := runApp(runner, "audio", "delete", receipt.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Removed sino.mp3") {
			t.Errorf("unexpected output %q", output.String())
		}

		err = runApp(runner, "audio", "delete", receipt.ID)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		output.Reset()
		if err := runApp(runner, "audio", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No uploads recorded.") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("delete without id", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := runApp(runner, "audio", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("upload missing file", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "audio", "upload", filepath.Join(t.TempDir(), "missing.mp3"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("list empty", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "audio", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No uploads recorded.") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestAlertsCommands(t *testing.T) {
	t.Run("show defaults", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "alerts", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Mode:     disabled") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("set then show", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "alerts", "set", "--mode", "interval", "--interval", "10", "--audio", "alerta_geral.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output.Reset()
		if err := runApp(runner, "alerts", "show", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var settings models.AlertSettings
		if err := json.Unmarshal(output.Bytes(), &settings); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if settings.Mode != models.AlertInterval || settings.IntervalMinutes != 10 || settings.AudioName != "alerta_geral.mp3" {
			t.Errorf("unexpected settings %+v", settings)
		}
	})

	t.Run("set keeps unset fields", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := runApp(runner, "alerts", "set", "--mode", "on-order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		db, err := shared.OpenStore(runner.config.Database)
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		settings, err := repositories.NewAlertSettingsRepository(db).Get()
		if err != nil {
			t.Fatal(err)
		}
		if settings.Mode != models.AlertOnOrder || settings.AudioName != models.DefaultAlertSettings().AudioName {
			t.Errorf("unexpected settings %+v", settings)
		}
	})

	t.Run("set invalid mode", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "alerts", "set", "--mode", "loud")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("set interval out of range", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := runApp(runner, "alerts", "set", "--mode", "interval", "--interval", "90"); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("watch while disabled", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		if err := runApp(runner, "alerts", "watch"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "disabled") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("watch on-order requires credentials", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		if err := runApp(runner, "alerts", "set", "--mode", "on-order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := runApp(runner, "alerts", "watch")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if n := backend.CallCount(shared.OpList); n != 0 {
			t.Errorf("expected no backend reads, got %d", n)
		}
	})

	t.Run("watch on-order requires marketplace orders", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		backend.AddUser("estoque", "stock-pw", "user", "products")
		if err := runApp(runner, "alerts", "set", "--mode", "on-order"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := runApp(runner, "alerts", "watch", "-u", "estoque", "-p", "stock-pw")
		if !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if n := backend.CallCount(shared.OpList); n != 0 {
			t.Errorf("expected no backend reads, got %d", n)
		}
		if runner.session.IsAuthenticated() {
			t.Error("expected session to be cleared")
		}
	})

	t.Run("terminal notifier", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		event := tasks.AlertEvent{AudioURL: "http://backend.test/uploads/novo_pedido.mp3", NewOrders: 2}
		if err := runner.notifyTerminal(context.Background(), event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := output.String()
		if !strings.HasPrefix(got, "\a") || !strings.Contains(got, "2 new order(s)") {
			t.Errorf("unexpected output %q", got)
		}
	})
}

func TestBackupCommand(t *testing.T) {
	t.Run("admin backs up every entity", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		dir := filepath.Join(t.TempDir(), "backup")

		err := runApp(runner, "backup", "run", "-u", "gerente", "-p", "admin-pw", "--format", "csv", "--rate", "1000", "--output", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, tasks.ManifestName)); err != nil {
			t.Errorf("expected manifest: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "sales.csv")); err != nil {
			t.Errorf("expected sales.csv: %v", err)
		}
		want := len(tasks.BackupEntities())
		if !strings.Contains(output.String(), "succeeded") || !strings.Contains(output.String(), "/"+strconv.Itoa(want)) {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("user backs up own sections", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		runner.session.Login(context.Background(), "vendas", "sales-pw")
		got := runner.backupEntities()
		want := []string{"sales", "marketplace_orders"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("entities = %v, want %v", got, want)
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		runner, backend, _ := newTestRunner(t)
		backend.Errs[shared.OpList] = tu.ErrBoom

		err := runApp(runner, "backup", "run", "-u", "vendas", "-p", "sales-pw", "--rate", "1000", "--output", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "2 of 2 entities failed") {
			t.Errorf("expected failure summary, got %v", err)
		}
	})

	t.Run("table format rejected", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "backup", "run", "-u", "gerente", "-p", "admin-pw", "--format", "table", "--output", t.TempDir())
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestServeRouter(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	db, err := shared.OpenStore(runner.config.Database)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	router := runner.newRouter(repositories.NewAlertSettingsRepository(db), repositories.NewAudioRepository(db))

	t.Run("status is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("api is guarded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil))
		if rec.Code != http.StatusFound {
			t.Errorf("expected 302, got %d", rec.Code)
		}
	})

	t.Run("requests get an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := runApp(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("written config should load: %v", err)
		}
		if err := runApp(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when the config exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "store.db")
		conf := strings.Replace(string(mustRead(t, "../internal/shared/config.example.toml")), "./gestaopro.db", dbPath, 1)
		if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
			t.Fatal(err)
		}

		if err := runApp(runner, "setup", "database", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected database file: %v", err)
		}
		if !strings.Contains(output.String(), dbPath) {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestSetupRollback(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runApp(runner, "setup", "rollback", "--config", filepath.Join(t.TempDir(), "none.toml"))
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("after database setup", func(t *testing.T) {
		runner, _, output := newTestRunner(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "store.db")
		conf := strings.Replace(string(mustRead(t, "../internal/shared/config.example.toml")), "./gestaopro.db", dbPath, 1)
		if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
			t.Fatal(err)
		}
		if err := runApp(runner, "setup", "database", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := runApp(runner, "setup", "rollback", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back") {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := runApp(runner, "setup", "rollback", "--config", path); err == nil {
			t.Error("expected error with nothing left to roll back")
		}
	})

	t.Run("default config path", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{ConfigPath: "custom.toml", Logger: shared.NewLogger(io.Discard)})
		flag, ok := configFlag(runner).(*cli.StringFlag)
		if !ok || flag.Value != "custom.toml" {
			t.Errorf("expected --config to default to the runner's path, got %+v", flag)
		}
	})
}

func TestDebugFlag(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	if err := runApp(runner, "--debug", "alerts", "show"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.logger.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", runner.logger.GetLevel())
	}

	quiet, _, _ := newTestRunner(t)
	if err := runApp(quiet, "alerts", "show"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quiet.logger.GetLevel() == log.DebugLevel {
		t.Error("expected level to stay unchanged without --debug")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
