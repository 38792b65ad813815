package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
)

const keepaliveInterval = 30 * time.Second

type TeamHandler interface {
	PublicStatus(w http.ResponseWriter, r *http.Request)
	AdminStatus(w http.ResponseWriter, r *http.Request)

	// SSE
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

// Subscriber is the read side of the presence hub.
type Subscriber interface {
	Subscribe(topic string) (<-chan sse.Event, func())
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type teamHandlerImpl struct {
	timesheetService timesheet.Service
	jwtService       jwt.Service
	hub              Subscriber
	keepalive        time.Duration
}

func NewTeamHandler(timesheetService timesheet.Service, jwtService jwt.Service, hub Subscriber) TeamHandler {
	return &teamHandlerImpl{
		timesheetService: timesheetService,
		jwtService:       jwtService,
		hub:              hub,
		keepalive:        keepaliveInterval,
	}
}

// PublicStatus implements TeamHandler.
func (h *teamHandlerImpl) PublicStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.timesheetService.PublicTeamStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: len(result)})
}

// AdminStatus implements TeamHandler.
func (h *teamHandlerImpl) AdminStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.timesheetService.AdminTeamStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: len(result)})
}

// StreamToken generates a short-lived token for the SSE connection
func (h *teamHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.HandleError(w, response.ErrInvalidToken)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(claims)
	if err != nil {
		slog.Error("Failed to generate SSE token", "user_id", claims.UserID, "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes presence changes to an admin over Server-Sent Events.
func (h *teamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token comes in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	if !claims.IsAdmin {
		http.Error(w, "Admin privilege required", http.StatusForbidden)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the snapshot so no change falls between them
	events, cleanup := h.hub.Subscribe(sse.TopicTeam)
	defer cleanup()

	snapshot, err := h.timesheetService.AdminTeamStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q}\n\n", claims.UserID)
	writeEvent(w, "snapshot", snapshot)
	flusher.Flush()

	slog.Info("Team status stream opened", "user_id", claims.UserID)
	defer slog.Info("Team status stream closed", "user_id", claims.UserID)

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event.Event, event.Data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode stream event", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}
