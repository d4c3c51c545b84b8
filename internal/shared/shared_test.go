package shared

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() = %q is not a UUID: %v", id, err)
	}
	if id == GenerateID() {
		t.Error("GenerateID() should not repeat")
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]any{"name": "Bolo"}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"name":"Bolo"}` {
		t.Errorf("compact = %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"name\"") {
		t.Errorf("pretty output not indented: %s", pretty)
	}
}

func TestVerifyAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tc := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "regular file", path: path},
		{name: "empty path", path: "", wantErr: ErrMissingArgument},
		{name: "directory", path: dir, wantErr: ErrInvalidArgument},
		{name: "missing", path: filepath.Join(dir, "nope"), wantErr: ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			data, err := VerifyAndReadFile(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := ValidateJSON(data); err != nil {
				t.Errorf("expected valid JSON: %v", err)
			}
		})
	}

	if err := ValidateJSON([]byte("{nope")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("connection refused")

	tc := []struct {
		name    string
		err     error
		is      []error
		message string
	}{
		{
			name:    "network",
			err:     &NetworkError{Op: OpList, Err: cause},
			is:      []error{ErrNetwork, cause},
			message: MessageFor(OpList),
		},
		{
			name:    "remote",
			err:     &RemoteError{Op: OpCreate, StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"},
			is:      []error{ErrAPIRequest},
			message: MessageFor(OpCreate),
		},
		{
			name:    "auth",
			err:     &AuthError{Reason: "invalid credentials"},
			is:      []error{ErrInvalidCredentials},
			message: MessageFor(OpLogin),
		},
		{
			name:    "parse",
			err:     &ParseError{Op: OpUpdate, Err: cause},
			is:      []error{ErrParse},
			message: MessageFor(OpUpdate),
		},
		{
			name:    "upload wrapping remote",
			err:     &UploadError{Err: &RemoteError{Op: OpUpload, StatusCode: 413, Status: "413 Request Entity Too Large"}},
			is:      []error{ErrUpload, ErrAPIRequest},
			message: MessageFor(OpUpload),
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			for _, target := range tt.is {
				if !errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v, %v) = false", tt.err, target)
				}
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	t.Run("remote error keeps status text", func(t *testing.T) {
		err := &RemoteError{Op: OpList, StatusCode: 500, Status: "500 Internal Server Error"}
		if !strings.Contains(err.Error(), "500 Internal Server Error") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("plain error falls back to Error()", func(t *testing.T) {
		if got := UserMessage(cause); got != cause.Error() {
			t.Errorf("UserMessage() = %q", got)
		}
		if got := UserMessage(nil); got != "" {
			t.Errorf("UserMessage(nil) = %q", got)
		}
	})
}
