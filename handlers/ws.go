package handlers

import (
	"log"
	"time"

	"quliao-chat-system/game"
	"quliao-chat-system/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const readWait = 60 * time.Second

// UpgradeGuard rejects plain HTTP requests on the websocket route before the
// session middleware runs.
func UpgradeGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// RealtimeSocket serves the shared chat+game websocket. The session
// middleware has already admitted the user; here the connection is
// registered with the hub, bound to its identity, and its frames dispatched
// until the read side fails.
func RealtimeSocket(hub *game.Hub, dir *game.Directory, users *services.UserService, chat *services.ChatService) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := conn.Locals("user_id").(int64)
		ident, err := users.ResolveIdentity(userID)
		if err != nil {
			log.Printf("[WS] identity lookup failed for user %d: %v", userID, err)
			conn.Close()
			return
		}

		client := game.NewClient(conn)
		hub.Register(client)
		go client.WritePump()
		hub.Bind(client, ident)

		var room *game.Session
		defer func() {
			if room != nil {
				room.Leave(userID)
			}
			hub.Unregister(client)
			conn.Close()
		}()

		conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[WS] read error from user %d: %v", userID, err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(readWait))

			msg, err := game.DecodeInbound(data)
			if err != nil {
				// Malformed frames are dropped; the connection stays open.
				log.Printf("[WS] dropping frame from user %d: %v", userID, err)
				continue
			}

			switch m := msg.(type) {
			case game.JoinMessage:
				sess, ok := dir.Lookup(m.Code)
				if !ok {
					hub.Send(client, game.ErrorPayload(game.ErrNotFound))
					continue
				}
				if room != nil && room != sess {
					room.Leave(userID)
					room = nil
				}
				if err := sess.Join(userID, ident, client); err != nil {
					hub.Send(client, game.ErrorPayload(err))
					continue
				}
				room = sess

			case game.InputMessage:
				if room != nil {
					room.SetHeading(userID, m.Direction)
				}

			case game.StartMessage:
				if room == nil {
					continue
				}
				if err := room.Start(userID); err != nil {
					hub.Send(client, game.ErrorPayload(err))
				}

			case game.ChatMessage:
				if m.RoomID != 0 {
					if err := chat.Deliver(m.RoomID, userID, ident.Nickname, m.Content); err != nil {
						log.Printf("[WS] chat delivery from user %d failed: %v", userID, err)
						hub.Send(client, game.ErrorPayload(err))
					}
				} else if room != nil {
					room.BroadcastChat(ident.Nickname, m.Content)
				}
			}
		}
	})
}
