package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/wordduel/internal/api/apierr"
	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/room"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// RoomHandler serves the read-only room endpoints
type RoomHandler struct {
	rooms     room.StoreInterface
	publicURL string
	logger    *slog.Logger
}

// NewRoomHandler creates a new room handler. publicURL is the base used in
// share links; when empty the request's host is used.
func NewRoomHandler(rooms room.StoreInterface, publicURL string, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		h.logger.Error("failed to list rooms", slog.Any("error", err))
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomSummariesFromModel(rooms))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.rooms.GetRoom(r.Context(), roomIDFromPath(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomSummaryFromModel(rm.Summary()))
}

// QRCode handles GET /api/v1/rooms/{id}/qr.png
func (h *RoomHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := roomIDFromPath(r)
	if _, err := h.rooms.GetRoom(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			apierr.WriteError(w, apierr.NewInvalidRequestError(
				fmt.Sprintf("size must be between %d and %d", minQRSize, maxQRSize)))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.ShareURL(r, id), qrcode.Medium, size)
	if err != nil {
		h.logger.Error("failed to encode qr code",
			slog.String("room_id", string(id)),
			slog.Any("error", err),
		)
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	response.PNG(w, png)
}

// ShareURL returns the link a second player opens to join the room
func (h *RoomHandler) ShareURL(r *http.Request, id model.RoomID) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/room/" + string(id)
}

func roomIDFromPath(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}
