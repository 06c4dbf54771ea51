package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/notify"
)

// handlePublish fans an event out to every open stream for its topic. The
// topic in the path wins over the one in the body.
func (s *Server) handlePublish(c echo.Context) error {
	topic := c.Param("topic")
	if topic == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "topic required"})
	}

	var ev notify.Event
	if err := json.NewDecoder(c.Request().Body).Decode(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid event"})
	}
	ev.Topic = topic
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}

	s.bus.Publish(ev)
	return c.NoContent(http.StatusAccepted)
}

// handleStream holds a server-sent event stream open. An empty topic
// receives every topic.
func (s *Server) handleStream(c echo.Context) error {
	topic := c.QueryParam("topic")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	id, events := s.bus.Listen(topic)
	defer s.bus.Unsubscribe(id)

	logger.Info("Stream client connected",
		logger.F("client_id", id), logger.F("topic", topic), logger.F("total", s.bus.ClientCount()))

	ping := time.NewTicker(s.keepAlive)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Stream marshal error", logger.F("error", err))
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		case <-ping.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case <-c.Request().Context().Done():
			logger.Info("Stream client disconnected", logger.F("client_id", id))
			return nil
		}
	}
}
