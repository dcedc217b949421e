package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/liveclass/internal/api"
	"github.com/mcoot/liveclass/internal/factory"
	"github.com/mcoot/liveclass/internal/middleware"
	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/protocol"
	"github.com/mcoot/liveclass/internal/services/auth"
	"github.com/mcoot/liveclass/internal/session"
	"github.com/mcoot/liveclass/internal/web"
)

const adminSecret = "e2e-admin-secret"

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	app      *factory.App
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application with short grace periods
	app, err := factory.New(factory.Config{
		Session: session.Config{
			ChatMinInterval: 500 * time.Millisecond,
			SupersedeGrace:  50 * time.Millisecond,
			EvictionGrace:   50 * time.Millisecond,
		},
		AuthConfig: auth.Config{Secret: adminSecret},
		Logger:     logger,
	})
	require.NoError(t, err)

	sessionCtx, stopSession := context.WithCancel(context.Background())
	go app.Coordinator.Run(sessionCtx)

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Evicter:     app.EvictionService,
		Snapshotter: app.Coordinator,
		Verifier:    app.AuthService,
		ICEServers:  []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:      logger,
		Snapshotter: app.Coordinator,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.Logging(logger)(app.WSHandler))
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		app:    app,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			stopSession()
			<-app.Coordinator.Done()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// wsClient is a browser stand-in speaking the websocket protocol
type wsClient struct {
	t      *testing.T
	conn   *websocket.Conn
	id     model.ConnectionID
	frames chan protocol.Envelope
	closed chan struct{}

	mu      sync.Mutex
	closeErr error
}

func (ts *testServer) dial(t *testing.T) *wsClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.addr, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	c := &wsClient{
		t:      t,
		conn:   conn,
		frames: make(chan protocol.Envelope, 256),
		closed: make(chan struct{}),
	}
	go c.read()
	t.Cleanup(func() { _ = conn.Close() })

	var greeting model.ConnectedPayload
	c.expect(model.EventConnected, &greeting)
	c.id = greeting.ConnectionID
	require.NotEmpty(t, c.id)
	return c
}

func (c *wsClient) read() {
	defer close(c.closed)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closeErr = err
			c.mu.Unlock()
			return
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			continue
		}
		c.frames <- env
	}
}

func (c *wsClient) send(event model.EventType, data any) {
	c.t.Helper()
	frame, err := protocol.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *wsClient) join(name, email string) model.ExistingUsersPayload {
	c.t.Helper()
	c.send(model.EventJoin, map[string]string{"name": name, "email": email})
	var existing model.ExistingUsersPayload
	c.expect(model.EventExistingUsers, &existing)
	return existing
}

// expect skips frames until event arrives and decodes its data into out
func (c *wsClient) expect(event model.EventType, out any) {
	c.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case env := <-c.frames:
			if env.Event != event {
				continue
			}
			if out != nil {
				require.NoError(c.t, json.Unmarshal(env.Data, out))
			}
			return
		case <-c.closed:
			c.t.Fatalf("connection closed while waiting for %s", event)
		case <-timeout:
			c.t.Fatalf("timed out waiting for %s", event)
		}
	}
}

// expectClosed waits for the server to close the socket and returns the close error
func (c *wsClient) expectClosed() error {
	c.t.Helper()
	select {
	case <-c.closed:
	case <-time.After(2 * time.Second):
		c.t.Fatal("connection was not closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}
