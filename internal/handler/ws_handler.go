/*
Package handler provides the HTTP handler for WebSocket connection upgrading.

This file contains the HandleWebSocket function: it verifies the handshake
credential before the upgrade, then admits the connection and starts its
read/write pumps. Room membership is negotiated afterwards over the socket
itself via join-document events.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"inkwell/internal/app/collab"
	"inkwell/internal/pkg/logx"
	"inkwell/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc processing WebSocket handshakes.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := handshakeCredential(r)
		capabilityToken := r.URL.Query().Get("shareToken")

		identity, customErr := deps.Verifier.Verify(r.Context(), credential)
		if customErr != nil {
			logx.Warn("WebSocket handshake rejected", "code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connectionID := uuid.New().String()

		client := collab.NewClient(deps.Hub, conn, connectionID, identity, capabilityToken)
		deps.Hub.Attach(client)

		logx.Info("WebSocket connection established",
			"connection_id", connectionID, "user_id", identity.ID)

		go client.WritePump()

		client.ReadPump()
	}
}

// handshakeCredential extracts the bearer credential from the handshake
// request: the token query parameter, with the Authorization header as a
// fallback.
func handshakeCredential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
