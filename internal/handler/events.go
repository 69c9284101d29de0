package handler

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/service"
)

const heartbeatInterval = 30 * time.Second

// EventsHandler handles Server-Sent Events endpoints
type EventsHandler struct {
	stream EventStream
	logger *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(stream EventStream, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		stream: stream,
		logger: logger,
	}
}

// StreamEvents handles GET /v1/events
func (h *EventsHandler) StreamEvents(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	// The request context ends when the handler returns, before the body is streamed.
	ctx, cancel := context.WithCancel(context.Background())
	sub := h.stream.Subscribe(ctx, userID)

	h.logger.Info("SSE client connected",
		zap.String("user_id", userID.String()),
		zap.String("subscriber_id", sub.ID),
	)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			h.logger.Info("SSE client disconnected", zap.String("subscriber_id", sub.ID))
		}()

		fmt.Fprintf(w, "event: connected\ndata: {\"subscriberId\":%q}\n\n", sub.ID)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case n, ok := <-sub.Channel:
				if !ok {
					return
				}
				frame, err := service.FormatSSE(n)
				if err != nil {
					h.logger.Error("failed to format SSE event", zap.Error(err))
					continue
				}
				if _, err := w.Write(frame); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				// A failed flush means the client went away.
				if err := w.Flush(); err != nil {
					return
				}

			case <-sub.Done:
				return
			}
		}
	}))

	return nil
}

// GetSubscribers handles GET /v1/events/subscribers
func (h *EventsHandler) GetSubscribers(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"count": h.stream.SubscriberCount(userID),
	})
}
