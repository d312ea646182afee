package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/playsync/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seekInput struct {
	Seconds *float64 `json:"seconds" validate:"required"`
}

type emptyInput struct{}

type recorder struct {
	mu     sync.Mutex
	calls  []string
	errors []error
	done   chan struct{}
	want   int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) add(call string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errors = append(r.errors, err)
	} else {
		r.calls = append(r.calls, call)
	}
	if len(r.calls)+len(r.errors) == r.want {
		close(r.done)
	}
}

func serve(t *testing.T, router *WSRouter) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = router.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestServeConnRoutesTypedPayloads(t *testing.T) {
	rec := newRecorder(5)
	router := New(validator.NewValidator())
	router.OnError(func(ctx context.Context, err error) {
		rec.add(GetMessageTypeFromCtx(ctx), err)
	})
	Handle(router, "SEEK", func(ctx context.Context, in seekInput) error {
		rec.add("SEEK", nil)
		assert.Equal(t, 12.5, *in.Seconds)
		return nil
	})
	Handle(router, "PLAY", func(ctx context.Context, _ emptyInput) error {
		rec.add(GetMessageTypeFromCtx(ctx), nil)
		return nil
	})
	router.NotFound(func(ctx context.Context, raw json.RawMessage) error {
		rec.add("unknown:"+GetMessageTypeFromCtx(ctx), nil)
		return nil
	})

	conn := serve(t, router)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SEEK","payload":{"seconds":12.5}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PLAY"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SHUFFLE","payload":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SEEK","payload":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for messages")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"SEEK", "PLAY", "unknown:SHUFFLE"}, rec.calls)
	require.Len(t, rec.errors, 2)
	assert.True(t, errors.Is(rec.errors[0], ErrInvalidPayload))
	assert.True(t, errors.Is(rec.errors[1], ErrInvalidMessage))
}

func TestMiddlewaresWrapInOrder(t *testing.T) {
	var order []string
	router := New(nil)
	mw := func(name string) Middleware {
		return func(next HandlerFunc[any]) HandlerFunc[any] {
			return func(ctx context.Context, payload any) error {
				order = append(order, name)
				return next(ctx, payload)
			}
		}
	}
	router.Use(mw("outer"), mw("inner"))
	Handle(router, "PING", func(context.Context, emptyInput) error {
		order = append(order, "handler")
		return nil
	})

	err := router.dispatch(context.Background(), &message{Type: "PING"})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestDispatchWithoutNotFound(t *testing.T) {
	router := New(nil)

	err := router.dispatch(context.Background(), &message{Type: "NOPE"})

	assert.ErrorIs(t, err, ErrUnknownMessageType)
}
