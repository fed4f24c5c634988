package common

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
)

// Request is a command or query sent through the Mediator
type Request interface{}

// Response is whatever a handler returns for its request
type Response interface{}

// RequestHandler handles one concrete request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc adapts a plain function to the dispatch chain
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

// Middleware wraps every dispatch. Middlewares run in the order they were added.
type Middleware func(ctx context.Context, request Request, next HandlerFunc) (Response, error)

// Mediator routes requests to the handler registered for their dynamic type
type Mediator interface {
	Send(ctx context.Context, request Request) (Response, error)
	Register(requestType reflect.Type, handler RequestHandler) error
	Use(middleware Middleware)
}

type mediator struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]RequestHandler
	middlewares []Middleware
}

// NewMediator creates an empty mediator
func NewMediator() Mediator {
	return &mediator{
		handlers: make(map[reflect.Type]RequestHandler),
	}
}

// Register binds handler to requestType. Each type takes exactly one handler.
func (m *mediator) Register(requestType reflect.Type, handler RequestHandler) error {
	if requestType == nil {
		return fmt.Errorf("request type cannot be nil")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[requestType]; exists {
		return fmt.Errorf("handler already registered for type %s", requestType)
	}
	m.handlers[requestType] = handler
	return nil
}

// Use appends a middleware to the dispatch chain
func (m *mediator) Use(middleware Middleware) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.middlewares = append(m.middlewares, middleware)
}

// Send dispatches request through the middlewares to its handler.
// Safe for concurrent use once registration is done.
func (m *mediator) Send(ctx context.Context, request Request) (Response, error) {
	if request == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	requestType := reflect.TypeOf(request)

	m.mu.RLock()
	handler, ok := m.handlers[requestType]
	middlewares := m.middlewares
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no handler registered for type %s", requestType)
	}

	next := HandlerFunc(handler.Handle)
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw, inner := middlewares[i], next
		next = func(ctx context.Context, request Request) (Response, error) {
			return mw(ctx, request, inner)
		}
	}
	return next(ctx, request)
}

// RegisterHandler registers handler for the request type T
func RegisterHandler[T Request](m Mediator, handler RequestHandler) error {
	var zero T
	return m.Register(reflect.TypeOf(zero), handler)
}

// LoggingMiddleware logs every dispatch at debug level with its duration
func LoggingMiddleware(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
	start := time.Now()
	response, err := next(ctx, request)

	metadata := map[string]interface{}{
		"request":  fmt.Sprintf("%T", request),
		"duration": time.Since(start).String(),
	}
	if err != nil {
		metadata["error"] = err.Error()
	}
	logging.LoggerFromContext(ctx).Log(logging.LevelDebug, "Request handled", metadata)

	return response, err
}
