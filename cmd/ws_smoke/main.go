package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Smoke test for a running server: opens the live feed, taps once over
// HTTP and waits for the tap to arrive on the socket.
// Get a token with cmd/create_test_user.
func main() {
	token := flag.String("token", os.Getenv("TOKEN"), "session token")
	host := flag.String("host", "127.0.0.1:8080", "server host:port")
	flag.Parse()

	if *token == "" {
		logger.Fatal("token not set")
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://%s/ws?token=%s", *host, *token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	if env := waitFor(conn, ws.MsgReady, 2*time.Second); env == nil {
		logger.Fatal("no ready frame")
	}

	if err := conn.WriteJSON(ws.Envelope{Type: ws.MsgPing}); err != nil {
		logger.Fatal("write ping", "error", err)
	}
	if env := waitFor(conn, ws.MsgPong, 2*time.Second); env == nil {
		logger.Fatal("no pong")
	}

	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/game/tap", *host), nil)
	req.Header.Set("Authorization", "Bearer "+*token)
	req.Header.Set("X-Session-ID", uuid.NewString())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("tap request", "error", err)
	}
	resp.Body.Close()
	logger.Info("tap response", "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		// cooldown or no energy: nothing is published
		return
	}

	env := waitFor(conn, ws.MsgTap, 3*time.Second)
	if env == nil {
		logger.Fatal("tap was not published")
	}
	logger.Info("smoke test finished", "tap", string(env.Data))
}

func waitFor(conn *websocket.Conn, msgType string, timeout time.Duration) *ws.Envelope {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				return nil
			}
			continue
		}
		var env ws.Envelope
		if json.Unmarshal(msg, &env) == nil && env.Type == msgType {
			return &env
		}
	}
	return nil
}
