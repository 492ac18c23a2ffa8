// Package rest exposes the services of a service.App over plain HTTP.
// Calls arriving here carry hook.ProviderREST, with route parameters in
// Params.Values and the URL query in Params.Query.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/Suhaibinator/SHooks/pkg/auth"
	"github.com/Suhaibinator/SHooks/pkg/codec"
	"github.com/Suhaibinator/SHooks/pkg/hook"
	"github.com/Suhaibinator/SHooks/pkg/middleware"
	"github.com/Suhaibinator/SHooks/pkg/service"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Config configures the REST transport.
type Config struct {
	Logger        *zap.Logger               // Logger for requests and errors; nil uses a no-op logger
	Authenticator auth.Authenticator        // Resolves bearer tokens to users; nil leaves calls anonymous
	IDParam       string                    // Route parameter naming the record id unless a nested slug names it. Default "id"
	MaxBodySize   int64                     // Maximum request body size in bytes; 0 disables the limit
	Throttle      middleware.ThrottleConfig // Per-client request pacing
	Metrics       *middleware.Metrics       // HTTP request metrics; nil disables them
	Middlewares   []middleware.Middleware   // Extra middlewares applied to every route
}

// Handler is an http.Handler serving every service mounted on an App.
type Handler struct {
	app    *service.App
	router *httprouter.Router
	logger *zap.Logger
	auth   auth.Authenticator
	codec  *codec.JSONCodec[map[string]any, any]

	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type paramsKey struct{}

// New creates a Handler for the services currently mounted on app.
// For a service at /stores/:storeId/candies it registers
//
//	GET    /stores/:storeId/candies       find
//	GET    /stores/:storeId/candies/:id   get
//	POST   /stores/:storeId/candies       create
//	PUT    /stores/:storeId/candies/:id   update
//	PATCH  /stores/:storeId/candies/:id   patch
//	DELETE /stores/:storeId/candies/:id   remove
//
// When another service nests below a mount, the mount's record wildcard takes
// the nested slug's name, so /stores next to /stores/:storeId/candies serves
// records at /stores/:storeId. Nested mounts that disagree on a slug name
// still conflict and panic, as httprouter does.
func New(app *service.App, config Config) *Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idParam := config.IDParam
	if idParam == "" {
		idParam = "id"
	}

	h := &Handler{
		app:    app,
		router: httprouter.New(),
		logger: logger,
		auth:   config.Authenticator,
		codec:  codec.NewJSONCodec[map[string]any, any](),
	}

	// One throttle for every route, so a client is paced across the API
	throttle := config.Throttle
	if throttle.ExceededHandler == nil {
		throttle.ExceededHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			h.handleError(w, req, hook.TooManyRequests("rate limit exceeded"))
		})
	}
	shared := routeMiddlewares{
		throttle: middleware.Throttle(throttle),
		config:   config,
	}

	paths := app.Paths()
	idParams := recordParams(paths, idParam)
	for _, path := range paths {
		base := "/" + path
		id := idParams[path]
		item := base + "/:" + id

		h.register(shared, http.MethodGet, base, path, id, hook.Find)
		h.register(shared, http.MethodPost, base, path, id, hook.Create)
		h.register(shared, http.MethodGet, item, path, id, hook.Get)
		h.register(shared, http.MethodPut, item, path, id, hook.Update)
		h.register(shared, http.MethodPatch, item, path, id, hook.Patch)
		h.register(shared, http.MethodDelete, item, path, id, hook.Remove)
	}

	return h
}

// routeMiddlewares holds the middleware state shared by every route.
type routeMiddlewares struct {
	throttle middleware.Middleware
	config   Config
}

// recordParams names the record wildcard of each mounted path. A path whose
// record segment lines up with a slug of a nested mount reuses that slug's
// name; every other path uses fallback.
func recordParams(paths []string, fallback string) map[string]string {
	slugs := make(map[string]string)
	for _, p := range paths {
		segments := strings.Split(p, "/")
		for i, seg := range segments {
			if strings.HasPrefix(seg, ":") {
				slugs[routeShape(segments[:i])] = seg[1:]
			}
		}
	}

	names := make(map[string]string, len(paths))
	for _, p := range paths {
		names[p] = fallback
		if slug, ok := slugs[routeShape(strings.Split(p, "/"))]; ok {
			names[p] = slug
		}
	}
	return names
}

// routeShape joins path segments with every wildcard reduced to ":".
func routeShape(segments []string) string {
	shape := make([]string, len(segments))
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			seg = ":"
		}
		shape[i] = seg
	}
	return strings.Join(shape, "/")
}

func (h *Handler) register(shared routeMiddlewares, httpMethod, route, path, idParam string, method hook.Method) {
	config := shared.config

	var metrics middleware.Middleware
	if config.Metrics != nil {
		metrics = config.Metrics.Middleware(route)
	}

	chain := middleware.Chain(append([]middleware.Middleware{
		middleware.Trace(),
		middleware.Recovery(h.logger),
		middleware.Logging(h.logger),
		metrics,
		shared.throttle,
		middleware.MaxBodySize(config.MaxBodySize),
	}, config.Middlewares...)...)

	handler := chain(h.serviceHandler(path, idParam, method))
	h.router.Handle(httpMethod, route, h.convertToHTTPRouterHandle(handler))
}

// convertToHTTPRouterHandle stores the route parameters in the request
// context and tracks the request for graceful shutdown.
func (h *Handler) convertToHTTPRouterHandle(handler http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		h.wg.Add(1)
		defer h.wg.Done()

		h.shutdownMu.RLock()
		isShutdown := h.shutdown
		h.shutdownMu.RUnlock()
		if isShutdown {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(req.Context(), paramsKey{}, ps)
		handler.ServeHTTP(w, req.WithContext(ctx))
	}
}

func (h *Handler) serviceHandler(path, idParam string, method hook.Method) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		params, id := buildParams(req, idParam)

		user, err := auth.UserFromRequest(h.auth, req)
		if err != nil {
			h.handleError(w, req, hook.NotAuthenticated(err.Error()))
			return
		}
		params.User = user

		var data map[string]any
		if method == hook.Create || method == hook.Update || method == hook.Patch {
			data, err = h.codec.Decode(req)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					h.handleError(w, req, hook.NewError(http.StatusRequestEntityTooLarge, "request body too large"))
					return
				}
				h.handleError(w, req, hook.BadRequest("invalid JSON body: "+err.Error()))
				return
			}
		}

		result, err := h.app.Call(req.Context(), path, method, id, data, params)
		if err != nil {
			h.handleError(w, req, err)
			return
		}

		status := http.StatusOK
		if method == hook.Create {
			status = http.StatusCreated
		}
		if err := h.codec.Encode(w, status, result); err != nil {
			h.logger.Error("Failed to encode response",
				zap.Error(err),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("trace_id", middleware.GetTraceID(req)),
			)
		}
	})
}

// buildParams splits the route parameters into the record id and route
// values, and copies the URL query. Repeated query keys become lists.
func buildParams(req *http.Request, idParam string) (*hook.Params, string) {
	params := &hook.Params{
		Provider: hook.ProviderREST,
		Values:   make(map[string]any),
		Query:    make(map[string]any),
	}

	var id string
	ps, _ := req.Context().Value(paramsKey{}).(httprouter.Params)
	for _, p := range ps {
		if p.Key == idParam {
			id = p.Value
			continue
		}
		params.Values[p.Key] = p.Value
	}

	for k, vs := range req.URL.Query() {
		if len(vs) == 1 {
			params.Query[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		params.Query[k] = list
	}

	return params, id
}

// handleError logs err and writes it as a JSON error response.
func (h *Handler) handleError(w http.ResponseWriter, req *http.Request, err error) {
	herr := hook.AsError(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	}
	if traceID := middleware.GetTraceID(req); traceID != "" {
		fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
	}
	if herr.Code >= http.StatusInternalServerError {
		h.logger.Error("Service error", fields...)
	} else {
		h.logger.Debug("Service call rejected", fields...)
	}

	body := errorBody{Name: herr.Name, Message: herr.Message, Code: herr.Code}
	if encErr := codec.NewJSONCodec[any, errorBody]().Encode(w, herr.Code, body); encErr != nil {
		http.Error(w, herr.Message, herr.Code)
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

// Shutdown stops accepting new requests and waits for in-flight requests to
// complete or for ctx to be done.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.shutdownMu.Lock()
	h.shutdown = true
	h.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
