// package services defines the [Backend] contract for the external management server and its HTTP implementation
package services

import (
	"context"
	"io"

	"github.com/desertthunder/gestaopro/internal/models"
)

// Backend is everything the dashboard asks of the external management server.
//
// Every method performs exactly one round trip. Nothing is retried, cached or deduplicated.
type Backend interface {
	// ResolveAudioURL returns where the named alert sound is served. It performs no I/O.
	ResolveAudioURL(name string) string

	// UploadAudio sends an audio file as multipart field "audio" and returns where it is served.
	UploadAudio(ctx context.Context, filename string, r io.Reader) (*UploadResult, error)

	// Create inserts data into the entity collection and returns the stored record.
	Create(ctx context.Context, entity string, data models.Record) (models.Record, error)

	// List returns every record of the entity collection.
	List(ctx context.Context, entity string) ([]models.Record, error)

	// Update replaces fields of the record with the given id and returns the stored record.
	Update(ctx context.Context, entity, id string, data models.Record) (models.Record, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, entity, id string) error

	// Login submits credentials. A rejection is a [shared.AuthError].
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
}

// UploadResult is the backend's reply to an audio upload.
type UploadResult struct {
	URL string `json:"url"`
}

// LoginUser is the user payload of a successful login.
type LoginUser struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// LoginResponse is the backend's reply to a login. User is nil when the backend accepted the
// request but did not return an account.
type LoginResponse struct {
	User *LoginUser `json:"user"`
}

// ToUser maps the payload onto a [models.User], applying the role and permission defaults.
func (u LoginUser) ToUser() models.User {
	return models.NewUser(u.Username, u.Role, u.Permissions)
}

// loginRequest is the wire shape of the credentials; the backend names the field password_hash.
type loginRequest struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
