package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/board"
	"github.com/rivieraos/riviera/internal/middleware"
)

// BoardHandler upgrades staff display connections and hands them to
// the hub.  Wall displays connect anonymously (viewer id 0) and see
// claims as "other"; staff handhelds authenticate and see their own
// claims highlighted.
type BoardHandler struct {
	Hub      *board.Hub
	upgrader websocket.Upgrader
}

func NewBoardHandler(hub *board.Hub) *BoardHandler {
	return &BoardHandler{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Displays live on venue tablets and screens behind the
			// venue network; origin enforcement happens upstream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Subscribe is GET /v1/venues/:id/board/ws.
func (h *BoardHandler) Subscribe(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.Hub.Subscribe(venueID, middleware.UserID(c), conn)
	return nil
}
