package httpapi

import (
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleEvents streams store events for one data source over a
// WebSocket until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, storeID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logf("websocket accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	events := s.store.Watch(ctx)
	for event := range events {
		if event.StoreID != storeID {
			continue
		}
		if err := wsjson.Write(ctx, conn, event); err != nil {
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
