package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func startSSE(c echo.Context) {
	header := c.Response().Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	flush(c)
}

// writeSSE writes one event. An empty name omits the event line.
func writeSSE(c echo.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return writeSSERaw(c, event, string(data))
}

func writeSSERaw(c echo.Context, event, data string) error {
	w := c.Response().Writer
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flush(c)
	return nil
}

func writeSSEComment(c echo.Context, comment string) error {
	if _, err := fmt.Fprintf(c.Response().Writer, ": %s\n\n", comment); err != nil {
		return err
	}
	flush(c)
	return nil
}

func flush(c echo.Context) {
	if flusher, ok := c.Response().Writer.(http.Flusher); ok {
		flusher.Flush()
	}
}
