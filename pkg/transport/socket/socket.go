// Package socket exposes the services of a service.App over a websocket.
//
// Each text frame is a JSON request naming the service path and method:
//
//	{"seq": 1, "method": "create", "path": "stores/:storeId/candies",
//	 "data": {"name": "Gummi"}, "query": {"storeId": "123"}}
//
// and is answered with {"seq": 1, "result": ...} or {"seq": 1, "error": {...}}.
// Socket clients address services by their mount path, so route slugs are
// never resolved here and travel in the query instead.
package socket

import (
	"context"
	"errors"
	"net/http"

	"github.com/Suhaibinator/SHooks/pkg/auth"
	"github.com/Suhaibinator/SHooks/pkg/hook"
	"github.com/Suhaibinator/SHooks/pkg/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config configures the socket transport.
type Config struct {
	Logger        *zap.Logger                // nil uses a no-op logger
	Authenticator auth.Authenticator         // Resolves the upgrade request's bearer token
	CheckOrigin   func(r *http.Request) bool // nil accepts same-origin requests only
}

// Request is one service call sent by a client.
type Request struct {
	Seq    int64          `json:"seq"`
	Method hook.Method    `json:"method"`
	Path   string         `json:"path"`
	ID     string         `json:"id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Query  map[string]any `json:"query,omitempty"`
}

// Response answers the Request with the same Seq.
type Response struct {
	Seq    int64      `json:"seq"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed call.
type ErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Server upgrades HTTP requests to websocket connections and serves
// service calls over them, one at a time per connection.
type Server struct {
	app      *service.App
	logger   *zap.Logger
	auth     auth.Authenticator
	upgrader websocket.Upgrader
}

// New creates a Server for app.
func New(app *service.App, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		app:      app,
		logger:   logger,
		auth:     config.Authenticator,
		upgrader: websocket.Upgrader{CheckOrigin: config.CheckOrigin},
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(s.auth, r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response.
		s.logger.Warn("Websocket upgrade failed",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr),
		)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Debug("Websocket connected", zap.String("remote_addr", r.RemoteAddr))

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Websocket read ended", zap.Error(err))
			}
			return
		}

		resp := s.handle(ctx, user, req)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("Websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, user map[string]any, req Request) Response {
	query := req.Query
	if query == nil {
		query = make(map[string]any)
	}
	params := &hook.Params{
		Provider: hook.ProviderSocket,
		Query:    query,
		User:     user,
	}

	result, err := s.app.Call(ctx, req.Path, req.Method, req.ID, req.Data, params)
	if err != nil {
		herr := hook.AsError(err)
		if herr.Code >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
			s.logger.Error("Service error",
				zap.Error(err),
				zap.String("path", req.Path),
				zap.String("method", string(req.Method)),
			)
		}
		return Response{
			Seq:   req.Seq,
			Error: &ErrorBody{Name: herr.Name, Message: herr.Message, Code: herr.Code},
		}
	}
	return Response{Seq: req.Seq, Result: result}
}
