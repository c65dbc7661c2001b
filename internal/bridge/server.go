package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/efebarandurmaz/fraytypes/internal/observability"
	"github.com/efebarandurmaz/fraytypes/internal/plugins"
	"github.com/efebarandurmaz/fraytypes/internal/server"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

const maxBodySize = 1 << 20

// Options configures a Server.
type Options struct {
	Plugin *plugins.Plugin
	// Health, when set, is mounted on the same router.
	Health *server.HealthServer
	Audit  *observability.AuditLogger
	Logger *slog.Logger
	// AccessLog receives combined-format request logs. Nil disables them.
	AccessLog io.Writer
}

// Server serves the plugin to the host.
type Server struct {
	plugin    *plugins.Plugin
	hub       *Hub
	health    *server.HealthServer
	audit     *observability.AuditLogger
	logger    *slog.Logger
	accessLog io.Writer
}

// New creates a server and routes the plugin's config changes to its hub.
func New(opts Options) *Server {
	if opts.Plugin == nil {
		opts.Plugin = plugins.New(plugins.Options{Logger: opts.Logger})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		plugin:    opts.Plugin,
		hub:       NewHub(opts.Plugin.Metrics()),
		health:    opts.Health,
		audit:     opts.Audit,
		logger:    opts.Logger,
		accessLog: opts.AccessLog,
	}
	s.plugin.SetNotifier(s.hub)
	return s
}

// Hub returns the session hub.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/manifest", s.handleManifest).Methods(http.MethodGet)
	v1.HandleFunc("/settings/defaults", s.handleDefaults).Methods(http.MethodGet)
	v1.Handle("/settings/migrate", jsonBody(s.handleMigrate)).Methods(http.MethodPost)
	v1.Handle("/settings", jsonBody(s.handleSettings)).Methods(http.MethodPost)
	v1.Handle("/typedefs", jsonBody(s.handleTypedefs)).Methods(http.MethodPost)
	v1.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	r.Handle("/metrics", s.plugin.Metrics().Handler()).Methods(http.MethodGet)
	if s.health != nil {
		h := s.health.Handler()
		for _, p := range server.HealthPaths {
			r.Handle(p, h).Methods(http.MethodGet)
		}
	}
	return r
}

// Handler returns the router wrapped with panic recovery and, when
// configured, access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(h)
	if s.accessLog != nil {
		h = handlers.LoggingHandler(s.accessLog, h)
	}
	return h
}

func jsonBody(fn http.HandlerFunc) http.Handler {
	return handlers.ContentTypeHandler(http.MaxBytesHandler(fn, maxBodySize), "application/json")
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plugin.Manifest())
}

// handleDefaults answers the host's first-activation setup call.
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartMessageSpan(r.Context(), "http", TypeSetup)
	defer span.End()
	writeJSON(w, http.StatusOK, s.plugin.Setup(ctx))
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartMessageSpan(r.Context(), "http", TypeMigrate)
	defer span.End()

	var req plugins.MigrationRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(ctx, w, TypeMigrate, err)
		return
	}
	out, err := s.plugin.Migrate(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		s.fail(ctx, w, TypeMigrate, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSettings applies a settings action. An empty action replaces the
// whole configuration.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartMessageSpan(r.Context(), "http", TypeSettingsUpdate)
	defer span.End()

	var u plugins.SettingsUpdate
	if err := readJSON(r, &u); err != nil {
		s.fail(ctx, w, TypeSettingsUpdate, err)
		return
	}
	if u.Action == "" {
		u.Action = plugins.ActionReplace
	}
	out, err := s.plugin.UpdateSettings(ctx, u)
	if err != nil {
		observability.RecordError(span, err)
		s.fail(ctx, w, TypeSettingsUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTypedefs(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartMessageSpan(r.Context(), "http", TypeTypedefsRequest)
	defer span.End()

	var req plugins.TypeDefinitionRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(ctx, w, TypeTypedefsRequest, err)
		return
	}
	var out DefinitionsPayload
	err := s.plugin.HandleTypeDefinitions(ctx, req, func(defs []typedefs.Declaration) error {
		out.Definitions = defs
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		s.fail(ctx, w, TypeTypedefsRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := newSession(conn, r.RemoteAddr, s.logger)
	s.hub.add(sess)
	s.audit.LogSession(ctx, true, sess.remote)
	s.logger.Info("host session opened", "remote", sess.remote, "sessions", s.hub.Count())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.writeLoop(ctx)
	}()

	sess.readLoop(ctx, func(ctx context.Context, in Envelope) {
		s.dispatch(ctx, sess, in)
	})

	s.hub.remove(sess)
	cancel()
	<-writerDone
	s.audit.LogSession(context.Background(), false, sess.remote)
	s.logger.Info("host session closed", "remote", sess.remote, "sessions", s.hub.Count())
}

// dispatch serves one inbound envelope. Failures are reported to the
// sender and the session continues.
func (s *Server) dispatch(ctx context.Context, sess *session, in Envelope) {
	msgType := strings.TrimSpace(in.Type)
	ctx, span := observability.StartMessageSpan(ctx, "ws", msgType)
	defer span.End()
	ctx = withRequestID(ctx, in.ID)

	out, err := s.handleMessage(ctx, msgType, in)
	if err != nil {
		observability.RecordError(span, err)
		s.audit.LogRequestFailure(ctx, msgType, err)
		s.logger.Warn("host message failed", "type", msgType, "id", in.ID, "error", err)
		sess.push(errorEnvelope(in.ID, err))
		return
	}
	if out != nil {
		sess.push(*out)
	}
}

// handleMessage returns the reply to in, or nil when the reply travels
// another way (settings.update answers through config.changed).
func (s *Server) handleMessage(ctx context.Context, msgType string, in Envelope) (*Envelope, error) {
	var (
		typ     string
		payload any
	)
	switch msgType {
	case "":
		return nil, invalidArgument(errors.New("type is required"))

	case TypeSetup:
		typ, payload = TypeSetupResult, s.plugin.Setup(ctx)

	case TypeMigrate:
		var req plugins.MigrationRequest
		if err := decodePayload(in.Payload, &req); err != nil {
			return nil, err
		}
		out, err := s.plugin.Migrate(ctx, req)
		if err != nil {
			return nil, err
		}
		typ, payload = TypeMigrateResult, out

	case TypeTypedefsRequest:
		var req plugins.TypeDefinitionRequest
		if err := decodePayload(in.Payload, &req); err != nil {
			return nil, err
		}
		var out DefinitionsPayload
		err := s.plugin.HandleTypeDefinitions(ctx, req, func(defs []typedefs.Declaration) error {
			out.Definitions = defs
			return nil
		})
		if err != nil {
			return nil, err
		}
		typ, payload = TypeTypedefsResponse, out

	case TypeSettingsUpdate:
		var u plugins.SettingsUpdate
		if err := decodePayload(in.Payload, &u); err != nil {
			return nil, err
		}
		if _, err := s.plugin.UpdateSettings(ctx, u); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, &requestError{code: CodeUnsupportedType, err: fmt.Errorf("unsupported type: %s", msgType)}
	}

	env, err := newEnvelope(typ, in.ID, payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", typ, err)
	}
	return &env, nil
}

func (s *Server) fail(ctx context.Context, w http.ResponseWriter, msgType string, err error) {
	s.audit.LogRequestFailure(ctx, msgType, err)
	s.logger.Warn("host request failed", "type", msgType, "error", err)

	status := http.StatusInternalServerError
	if errorCode(err) == CodeInvalidArgument {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorPayload{Code: errorCode(err), Message: err.Error()})
}

func readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidArgument(fmt.Errorf("decoding request body: %w", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
