package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

type notificationHandler struct {
	responder  Responder
	logger     zerolog.Logger
	workspaces *Workspaces
	upgrader   websocket.Upgrader
}

func newNotificationHandler(workspaces *Workspaces) notificationHandler {
	logger := log.With().Str("handlerName", "notificationHandler").Logger()

	return notificationHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		workspaces: workspaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// origins are enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// feed returns the current page of the caller's notifications
// @Summary Get notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} services.FeedSnapshot
// @Router /notifications [get]
func (h notificationHandler) feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		if err := ensureFeed(r, ws); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, ws.Feed.Snapshot())
	}
}

func (h notificationHandler) loadMore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		if err := ensureFeed(r, ws); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := ws.Feed.LoadMore(r.Context()); err != nil {
			h.responder.WriteError(w, feedErr(err))
			return
		}
		h.responder.WriteJSON(w, ws.Feed.Snapshot())
	}
}

func (h notificationHandler) markAsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := uuidParam(r, "notificationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ws := workspaceFor(h.workspaces, r)
		if err := ws.Feed.MarkAsRead(r.Context(), notificationID); err != nil {
			h.responder.WriteError(w, feedErr(err))
			return
		}
		h.responder.WriteJSON(w, ws.Feed.Snapshot())
	}
}

func (h notificationHandler) markAllAsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFor(h.workspaces, r)
		if err := ws.Feed.MarkAllAsRead(r.Context()); err != nil {
			h.responder.WriteError(w, feedErr(err))
			return
		}
		h.responder.WriteJSON(w, ws.Feed.Snapshot())
	}
}

// stream pushes the feed snapshot over a websocket after every change.
func (h notificationHandler) stream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromCtx(r.Context())
		ws := workspaceFor(h.workspaces, r)
		if err := ensureFeed(r, ws); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		// keep only the latest snapshot when the client is slow
		updates := make(chan services.FeedSnapshot, 1)
		stop := ws.Feed.OnChange(func(s services.FeedSnapshot) {
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		})
		defer stop()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(streamPingPeriod)
		defer ticker.Stop()

		if err := h.writeSnapshot(conn, ws.Feed.Snapshot()); err != nil {
			return
		}
		for {
			select {
			case snapshot := <-updates:
				if err := h.writeSnapshot(conn, snapshot); err != nil {
					return
				}
			case <-ticker.C:
				if ws.Feed.State() == services.FeedClosed {
					// signed out elsewhere or reaped
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"),
						time.Now().Add(streamWriteWait))
					return
				}
				// an open stream counts as activity
				h.workspaces.Touch(identity.UID)
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

func (h notificationHandler) writeSnapshot(conn *websocket.Conn, snapshot services.FeedSnapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(snapshot); err != nil {
		h.logger.Debug().Err(err).Msg("notification stream closed")
		return err
	}
	return nil
}
