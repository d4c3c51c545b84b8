package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// MaxUploadSize caps the multipart body accepted by POST /audio.
const MaxUploadSize = 32 << 20

// SessionManager is the session the gateway signs operators in and out of.
type SessionManager interface {
	Authenticator
	Login(ctx context.Context, username, password string) bool
	Logout()
	User() (models.User, bool)
	Permissions() []models.Permission
}

// AlertStore persists the sound alert preferences.
type AlertStore interface {
	Get() (*models.AlertSettings, error)
	Save(settings *models.AlertSettings) error
}

// AudioStore keeps receipts of uploaded audio files.
type AudioStore interface {
	Create(audio *models.AudioFile) error
	List() ([]*models.AudioFile, error)
	Delete(id string) error
}

// DashboardOpts contains the dependencies of a [Dashboard].
type DashboardOpts struct {
	Session SessionManager
	Backend services.Backend
	Alerts  AlertStore
	Audio   AudioStore
	Logger  *log.Logger
}

// Dashboard is the JSON gateway in front of the backend. It serves a single operator: every
// request shares one session.
type Dashboard struct {
	session SessionManager
	backend services.Backend
	alerts  AlertStore
	audio   AudioStore
	logger  *log.Logger
	mux     *http.ServeMux
	routes  []string
}

// NewDashboard builds the gateway and registers its routes with their guards.
func NewDashboard(opts DashboardOpts) *Dashboard {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	d := &Dashboard{
		session: opts.Session,
		backend: opts.Backend,
		alerts:  opts.Alerts,
		audio:   opts.Audio,
		logger:  shared.WithLogger(opts.Logger, "component", "dashboard"),
		mux:     http.NewServeMux(),
	}

	authed := RequireAuth(d.session)
	section := RequireSection(d.session, "section")
	records := requireRecords("section")

	d.route(http.MethodPost, "/login", http.HandlerFunc(d.login))
	d.route(http.MethodPost, "/logout", http.HandlerFunc(d.logout))
	d.route(http.MethodGet, DashboardPath, http.HandlerFunc(d.status))

	d.route(http.MethodGet, "/api/{section}", http.HandlerFunc(d.listRecords), authed, section, records)
	d.route(http.MethodPost, "/api/{section}", http.HandlerFunc(d.createRecord), authed, section, records)
	d.route(http.MethodPut, "/api/{section}/{id}", http.HandlerFunc(d.updateRecord), authed, section, records)
	d.route(http.MethodDelete, "/api/{section}/{id}", http.HandlerFunc(d.deleteRecord), authed, section, records)

	d.route(http.MethodGet, "/audio", http.HandlerFunc(d.listAudio), authed)
	d.route(http.MethodPost, "/audio", http.HandlerFunc(d.uploadAudio), authed)
	d.route(http.MethodGet, "/audio/{name}", http.HandlerFunc(d.audioURL), authed)
	d.route(http.MethodDelete, "/audio/{id}", http.HandlerFunc(d.deleteAudio), authed)

	d.route(http.MethodGet, "/settings/alerts", http.HandlerFunc(d.getAlerts), authed)
	d.route(http.MethodPut, "/settings/alerts", http.HandlerFunc(d.putAlerts), authed)

	return d
}

// requireRecords answers 404 for sections that have no backend entity, such as reports.
func requireRecords(param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !models.Permission(r.PathValue(param)).HasRecords() {
				writeError(w, http.StatusNotFound, "section has no records")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (d *Dashboard) route(method, path string, h http.Handler, guards ...Middleware) {
	pattern := Pattern(method, path)
	d.mux.Handle(pattern, Chain(h, guards...))
	d.routes = append(d.routes, pattern)
}

// Routes returns the patterns served by the gateway.
func (d *Dashboard) Routes() []string {
	out := make([]string, len(d.routes))
	copy(out, d.routes)
	return out
}

func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mux.ServeHTTP(w, r)
}

// userView is the JSON shape of the signed-in user.
type userView struct {
	Username    string              `json:"username"`
	Role        models.Role         `json:"role"`
	Permissions []models.Permission `json:"permissions"`
}

type statusView struct {
	Authenticated bool                `json:"authenticated"`
	User          *userView           `json:"user"`
	Permissions   []models.Permission `json:"permissions"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d *Dashboard) currentUser() *userView {
	u, ok := d.session.User()
	if !ok {
		return nil
	}
	return &userView{Username: u.Username, Role: u.Role, Permissions: u.Effective()}
}

func (d *Dashboard) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	}

	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if !d.session.Login(r.Context(), creds.Username, creds.Password) {
		writeError(w, http.StatusUnauthorized, shared.ErrInvalidCredentials.Error())
		return
	}

	writeJSON(w, http.StatusOK, d.currentUser())
}

func (d *Dashboard) logout(w http.ResponseWriter, r *http.Request) {
	d.session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) status(w http.ResponseWriter, r *http.Request) {
	perms := d.session.Permissions()
	if perms == nil {
		perms = []models.Permission{}
	}
	writeJSON(w, http.StatusOK, statusView{
		Authenticated: d.session.IsAuthenticated(),
		User:          d.currentUser(),
		Permissions:   perms,
	})
}

func entityOf(r *http.Request) string {
	return models.EntityForPermission(models.Permission(r.PathValue("section")))
}

func (d *Dashboard) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := d.backend.List(r.Context(), entityOf(r))
	if err != nil {
		d.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (d *Dashboard) createRecord(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	created, err := d.backend.Create(r.Context(), entityOf(r), data)
	if err != nil {
		d.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (d *Dashboard) updateRecord(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	updated, err := d.backend.Update(r.Context(), entityOf(r), r.PathValue("id"), data)
	if err != nil {
		d.writeBackendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (d *Dashboard) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := d.backend.Delete(r.Context(), entityOf(r), r.PathValue("id")); err != nil {
		d.writeBackendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) audioURL(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, d.backend.ResolveAudioURL(r.PathValue("name")), http.StatusFound)
}

func (d *Dashboard) listAudio(w http.ResponseWriter, r *http.Request) {
	files, err := d.audio.List()
	if err != nil {
		d.logger.Error("failed to list audio files", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list audio files")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (d *Dashboard) deleteAudio(w http.ResponseWriter, r *http.Request) {
	if err := d.audio.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeError(w, http.StatusNotFound, "audio file not found")
			return
		}
		d.logger.Error("failed to delete audio file", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete audio file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) uploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"audio\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	result, err := d.backend.UploadAudio(r.Context(), name, file)
	if err != nil {
		d.writeBackendError(w, r, err)
		return
	}

	receipt := &models.AudioFile{Name: name, URL: result.URL}
	if err := d.audio.Create(receipt); err != nil {
		d.logger.Warn("uploaded audio but failed to record receipt", "name", name, "error", err)
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (d *Dashboard) getAlerts(w http.ResponseWriter, r *http.Request) {
	settings, err := d.alerts.Get()
	if err != nil {
		d.logger.Error("failed to read alert settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read alert settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// putAlerts merges the body over the stored settings, so omitted fields are kept.
func (d *Dashboard) putAlerts(w http.ResponseWriter, r *http.Request) {
	settings, err := d.alerts.Get()
	if err != nil {
		d.logger.Error("failed to read alert settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read alert settings")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := d.alerts.Save(settings); err != nil {
		d.logger.Error("failed to save alert settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save alert settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// writeBackendError maps a backend failure to a response. A 4xx from the backend keeps its
// status; everything else is 502.
func (d *Dashboard) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var remote *shared.RemoteError
	if errors.As(err, &remote) && remote.StatusCode >= 400 && remote.StatusCode < 500 {
		status = remote.StatusCode
	}
	d.logger.Warn("backend request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, status, shared.UserMessage(err))
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (models.Record, bool) {
	var data models.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	return data, true
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
