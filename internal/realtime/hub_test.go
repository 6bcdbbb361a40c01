package realtime

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHubServer(t *testing.T, hub *Hub) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(hub.Handler(func(*websocket.Conn) uint {
		return 0
	})))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})
	return "ws://" + ln.Addr().String() + "/ws"
}

func (h *Hub) globalCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.global)
}

// A single subscriber must receive every message intact while many request
// goroutines publish at once; the connection allows only one writer at a
// time.
func TestPublishConcurrentWritersSingleSubscriber(t *testing.T) {
	hub := NewHub()
	url := startHubServer(t, hub)

	conn, _, err := fws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.globalCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	const writers = 8
	const perWriter = 25

	errs := make(chan error, writers*perWriter)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				errs <- hub.Publish("deals", 0, fiber.Map{"writer": n, "seq": j}, "progress_updated")
			}
		}(i)
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for received := 0; received < writers*perWriter; received++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "deals", msg.Topic)
		assert.Equal(t, "progress_updated", msg.UpdateType)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPublishDropsDisconnectedSubscriber(t *testing.T) {
	hub := NewHub()
	url := startHubServer(t, hub)

	conn, _, err := fws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.globalCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return hub.globalCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Publishing with nobody listening still succeeds.
	require.NoError(t, hub.Publish("deals", 7, nil, "deal_created"))
}
