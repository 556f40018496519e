package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HandleSSE streams catalog change events via Server-Sent Events.
//
// The handler watches every catalog subject and forwards each event to
// the client until the client disconnects:
//
//	GET /api/v1/books/events
//
//	event: book.created
//	data: {"event_id":"...","type":"book.created","book_id":1,"book":{...}}
//
//	event: book.deleted
//	data: {"event_id":"...","type":"book.deleted","book_id":1,...}
//
// A comment heartbeat goes out every 30 seconds to keep intermediate
// proxies from timing out the connection.
func HandleSSE(c echo.Context, pub *Publisher) error {
	ctx := c.Request().Context()

	watched, err := pub.Watch(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "event stream unavailable",
		})
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	// Heartbeat ticker to prevent proxy timeouts
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watched:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Response(), "event: %s\n", event.Type)
			fmt.Fprintf(c.Response(), "data: %s\n\n", data)
			c.Response().Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Response(), ": heartbeat\n\n")
			c.Response().Flush()

		case <-ctx.Done():
			// Client disconnected
			return nil
		}
	}
}
