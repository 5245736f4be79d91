package http

import (
	"log"
	"net/http"

	"edumint-quiz-service/internal/app"
	"edumint-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams question-set replacements to connected clients. A client
// holding a quiz learns immediately when a newer GET /api/quiz invalidated its
// session, since only the latest question set is scoreable.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload []questionResponse `json:"payload"`
}

// ServeEvents upgrades the request and pushes a sanitized question set on
// every replacement, starting with the current set if one exists.
func (h *WSHandler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	done := make(chan struct{})

	// Reads are discarded; the loop exists to notice the peer going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case questions, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(h.message(questions)); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) message(questions []domain.Question) outboundMessage {
	return outboundMessage{Type: "quiz", Payload: sanitize(questions)}
}
