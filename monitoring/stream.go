package monitoring

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// A streamHub pushes JSON messages to every connected websocket client.
type streamHub struct {
	lock  sync.Mutex
	conns map[net.Conn]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{conns: make(map[net.Conn]struct{})}
}

func (h *streamHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	h.lock.Lock()
	h.conns[conn] = struct{}{}
	h.lock.Unlock()

	go h.readUntilClosed(conn)
}

// readUntilClosed drains client frames. The reader owns the lifetime of the
// connection.
func (h *streamHub) readUntilClosed(conn net.Conn) {
	defer h.remove(conn)

	for {
		_, op, err := wsutil.ReadClientData(conn)
		if err != nil || op == ws.OpClose {
			return
		}
	}
}

func (h *streamHub) remove(conn net.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, found := h.conns[conn]; !found {
		return
	}

	delete(h.conns, conn)
	_ = conn.Close()
}

func (h *streamHub) numClients() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.conns)
}

func (h *streamHub) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println(err)
		return
	}

	h.lock.Lock()
	conns := make([]net.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.lock.Unlock()

	for _, c := range conns {
		err := wsutil.WriteServerMessage(c, ws.OpText, data)
		if err != nil {
			h.remove(c)
		}
	}
}

func (h *streamHub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()

	for c := range h.conns {
		_ = c.Close()
		delete(h.conns, c)
	}
}
