package api

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"gc-portfolio/internal/transport"
)

// chatSocket answers {id, message, context} frames with {id, response}.
// Frames are handled concurrently; replies carry the request id so the
// client can match them.
func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[api] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	reqID := middleware.GetReqID(r.Context())
	log.Printf("[api] websocket %s opened from %s", reqID, r.RemoteAddr)

	ctx := r.Context()
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	write := func(f transport.Frame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(f); err != nil {
			log.Printf("[api] websocket %s write failed: %v", reqID, err)
		}
	}

	for {
		var f transport.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[api] websocket %s closed: %v", reqID, err)
			}
			return
		}

		if strings.TrimSpace(f.Message) == "" {
			write(transport.Frame{ID: f.ID, Error: "message is required"})
			continue
		}

		wg.Add(1)
		go func(f transport.Frame) {
			defer wg.Done()
			reply := s.replier.Reply(ctx, f.Message, f.Context)
			write(transport.Frame{ID: f.ID, Response: &reply})
		}(f)
	}
}
