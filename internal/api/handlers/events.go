/**
 * @description
 * Record event stream.
 * Relays record-created events from the Redis channel to the client over SSE.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/redis/go-redis/v9 (via events.Subscriber)
 *
 * @notes
 * - Only mounted when the store publishes to Redis.
 * - Each client holds its own subscription; it is closed when the client goes away.
 */

package handlers

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/earnings-navigator/backend/internal/events"
	"github.com/gofiber/fiber/v2"
)

const keepAliveInterval = 15 * time.Second

type EventsHandler struct {
	Source events.Subscriber
}

func NewEventsHandler(src events.Subscriber) *EventsHandler {
	return &EventsHandler{Source: src}
}

// Stream streams record events over SSE
// GET /api/events
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()

	ctx, cancel := context.WithCancel(context.Background())

	pubsub := h.Source.Subscribe(ctx)
	ch := pubsub.Channel()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			_ = pubsub.Close()
		}()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
