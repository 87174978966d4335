package chats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hackconnect/logger"
	"hackconnect/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	maxMessageBytes = 8 << 10
	replyTimeout    = 45 * time.Second
	idleTimeout     = 5 * time.Minute
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Handlers struct {
	bot Completer
	hub *Hub
	log *slog.Logger
}

func NewHandlers(bot Completer, hub *Hub, log *slog.Logger) *Handlers {
	return &Handlers{bot: bot, hub: hub, log: log}
}

type chatRequest struct {
	UserMessage string `json:"user_message"`
}

// ChatbotInput answers one message: {"user_message": "..."} -> {"response": "..."}.
func (h *Handlers) ChatbotInput(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("op", "chats.ChatbotInput"))

	var req chatRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_message is required")
		return
	}

	reply, err := h.bot.Complete(r.Context(), req.UserMessage)
	if err != nil {
		log.Error("chat completion failed", logger.Err(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Chatbot error: "+err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"response": reply})
}

type wsInbound struct {
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
}

type wsOutbound struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocket keeps an assistant session open and answers every text frame.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("op", "chats.WebSocket"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade failed", logger.Err(err))
		return
	}
	c := NewClient(conn)
	if !h.hub.Register(c) {
		conn.Close()
		return
	}
	defer h.hub.Unregister(c)

	go writePump(c)
	h.readPump(r.Context(), c, log)
}

func writePump(c *Client) {
	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (h *Handlers) readPump(ctx context.Context, c *Client, log *slog.Logger) {
	c.Conn.SetReadLimit(maxMessageBytes)
	for {
		c.Conn.SetReadDeadline(time.Now().Add(idleTimeout))
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		text := strings.TrimSpace(string(raw))
		var in wsInbound
		if json.Unmarshal(raw, &in) == nil {
			text = strings.TrimSpace(in.Message + in.UserMessage)
		}
		if text == "" {
			continue
		}

		var out wsOutbound
		replyCtx, cancel := context.WithTimeout(ctx, replyTimeout)
		reply, err := h.bot.Complete(replyCtx, text)
		cancel()
		if err != nil {
			log.Error("chat completion failed", logger.Err(err))
			out.Error = "Chatbot error: " + err.Error()
		} else {
			out.Response = reply
		}

		data, _ := json.Marshal(out)
		select {
		case c.Send <- data:
		case <-c.closed:
			return
		}
	}
}
