package service

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 10 * time.Second

func (s *Service) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts clients without an Origin header, the service's own
// host and the configured allowed origins.
func (s *Service) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// StreamNotifications pushes the notifications of a form to a websocket until
// the form is closed or the client goes away.
func (s *Service) StreamNotifications(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.forms.Get(id); err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}

	ws, err := s.upgrader().Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("failed to upgrade notifications of form %s: %v", id, err)
		return nil
	}
	defer ws.Close()

	notes, cancel := s.hub.Subscribe(id)
	defer cancel()
	//the form may have closed before the subscription existed
	if _, err := s.forms.Get(id); err != nil {
		closeSocket(ws, "form closed")
		return nil
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case n, ok := <-notes:
			if !ok {
				closeSocket(ws, "form closed")
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(n); err != nil {
				log.Printf("failed to write notification of form %s: %v", id, err)
				return nil
			}
		case <-gone:
			return nil
		}
	}
}

func closeSocket(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
