package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eugenenazirov/stackctl/internal/buildconfig"
	"github.com/eugenenazirov/stackctl/internal/checks"
	"github.com/eugenenazirov/stackctl/internal/params"
	"github.com/eugenenazirov/stackctl/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves the stored configuration over HTTP.
type Handler struct {
	storage     storage.Storage
	environment string
	public      fs.FS

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithEnvironment sets the environment used when a request names none.
func WithEnvironment(name string) HandlerOption {
	return func(h *Handler) {
		h.environment = name
	}
}

// WithPublicFS sets the static asset tree consulted by the asset checks.
func WithPublicFS(public fs.FS) HandlerOption {
	return func(h *Handler) {
		h.public = public
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:     store,
		environment: params.DefaultEnvironment,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		LoadedAt:  h.storage.Snapshot().UpdatedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.storage.Snapshot()
	resp := environmentsResponse{
		Environments: snap.Registry.Names(),
		Default:      h.environment,
		HasCDKJSON:   snap.CDK != nil,
		UpdatedAt:    snap.UpdatedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	strict := false
	if raw := r.URL.Query().Get("strict"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "strict must be a boolean")
			return
		}
		strict = value
	}

	snap := h.storage.Snapshot()
	var opts []params.ResolveOption
	if fc := snap.FileContext(); fc != nil {
		opts = append(opts, params.WithFileContext(*fc))
	}
	if strict {
		opts = append(opts, params.WithStrict())
	}

	res, err := params.Resolve(snap.Registry, name, opts...)
	if err != nil {
		switch {
		case errors.Is(err, params.ErrUnknownEnvironment):
			writeError(w, http.StatusNotFound, "Unknown environment", err.Error(),
				"GET /api/environments lists the registered names")
		case errors.Is(err, params.ErrInvalidEnvironmentName):
			writeError(w, http.StatusBadRequest, "Invalid environment name", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	resp := environmentResponse{Resolution: res, Valid: true}
	if err := res.Parameters.Validate(); err != nil {
		resp.Valid = false
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			resp.ValidationErrors = fieldErrs
		} else {
			resp.ValidationErrors = map[string]string{"parameters": err.Error()}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.storage.Snapshot()
	resp := buildResponse{
		Config:     snap.Build,
		Plugins:    snap.Build.PluginNames(),
		ListenHost: snap.Build.Server.Host.ListenHost(),
		UpdatedAt:  snap.UpdatedAt,
	}
	if pwa, ok := snap.Build.PWA(); ok {
		resp.CacheCeiling = pwa.Options.Workbox.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChecks(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("env")
	if env == "" {
		env = h.environment
	}

	report := h.runChecks(r.Context(), env)
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, checksResponse{
		Environment: env,
		OK:          report.OK(),
		Results:     report.Results,
	})
}

func (h *Handler) runChecks(ctx context.Context, env string) checks.Report {
	snap := h.storage.Snapshot()
	return checks.Run(ctx, checks.Inputs{
		Registry:    snap.Registry,
		Environment: env,
		FileContext: snap.FileContext(),
		Build:       snap.Build,
		Public:      h.public,
	})
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	_ = r
	pwa, ok := h.storage.Snapshot().Build.PWA()
	if !ok {
		writeError(w, http.StatusNotFound, "No web app manifest", "the build configuration has no PWA plugin")
		return
	}
	data, err := pwa.Options.Manifest.JSON()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/manifest+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type environmentsResponse struct {
	Environments []string  `json:"environments"`
	Default      string    `json:"default"`
	HasCDKJSON   bool      `json:"hasCdkJson"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type environmentResponse struct {
	params.Resolution
	Valid            bool `json:"valid"`
	ValidationErrors any  `json:"validationErrors,omitempty"`
}

type buildResponse struct {
	Config       *buildconfig.Config `json:"config"`
	Plugins      []string            `json:"plugins"`
	ListenHost   string              `json:"listenHost"`
	CacheCeiling string              `json:"cacheCeiling,omitempty"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type checksResponse struct {
	Environment string          `json:"environment"`
	OK          bool            `json:"ok"`
	Results     []checks.Result `json:"results"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LoadedAt  time.Time `json:"loadedAt"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
