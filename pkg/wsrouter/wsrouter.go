package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/pkg/validator"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler is called for every message that could not be decoded or
// whose handler returned an error. The connection keeps being served.
type ErrorHandler func(ctx context.Context, err error)

type route struct {
	decode  func(json.RawMessage) (any, error)
	handler HandlerFunc[any]
}

type WSRouter struct {
	routes      map[string]route
	notFound    *route
	middlewares []Middleware
	validate    *validator.Validator
	onError     ErrorHandler
}

func New(validate *validator.Validator) *WSRouter {
	return &WSRouter{
		routes:   make(map[string]route),
		validate: validate,
		onError:  func(context.Context, error) {},
	}
}

// Handle registers handler for messageType. The payload is decoded into T
// and, when T is a struct, validated before handler runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = newRoute(r, handler)
}

// NotFound registers the handler for message types without a route. The
// raw payload is passed through; the type is available from the context.
func (r *WSRouter) NotFound(handler HandlerFunc[json.RawMessage]) {
	rt := route{
		decode: func(raw json.RawMessage) (any, error) { return raw, nil },
		handler: func(ctx context.Context, payload any) error {
			raw, _ := payload.(json.RawMessage)
			return handler(ctx, raw)
		},
	}
	r.notFound = &rt
}

func (r *WSRouter) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

func (r *WSRouter) OnError(handler ErrorHandler) {
	r.onError = handler
}

// ServeConn reads messages from conn until reading fails and returns that
// error. Handlers run sequentially in the order messages arrive.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.onError(ctx, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := r.dispatch(msgCtx, &msg); err != nil {
			r.onError(msgCtx, err)
		}
	}
}

func (r *WSRouter) dispatch(ctx context.Context, msg *message) error {
	rt, ok := r.routes[msg.Type]
	if !ok {
		if r.notFound == nil {
			return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
		}
		rt = *r.notFound
	}

	payload, err := rt.decode(msg.Payload)
	if err != nil {
		return err
	}

	handler := rt.handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(ctx, payload)
}

func newRoute[T any](r *WSRouter, handler HandlerFunc[T]) route {
	return route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				if err := json.Unmarshal(raw, &payload); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
				}
			}

			if r.validate != nil && reflect.Indirect(reflect.ValueOf(payload)).Kind() == reflect.Struct {
				if err := r.validate.Check(payload); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
				}
			}

			return payload, nil
		},
		handler: func(ctx context.Context, payload any) error {
			typed, ok := payload.(T)
			if !ok {
				return ErrInvalidPayload
			}

			return handler(ctx, typed)
		},
	}
}
