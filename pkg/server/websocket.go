package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/morph/pkg/protocol"
	"github.com/vango-dev/morph/pkg/runtime"
)

// readLoop reads client frames until the connection fails or the client
// closes. It blocks; the caller tears the session down afterwards.
func (s *Session[M]) readLoop() {
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.srv.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "error", err)
				s.srv.metrics.wsErrors.WithLabelValues("read").Inc()
			}
			return
		}
		s.srv.manager.Touch(s.ID)

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.srv.metrics.eventErrors.WithLabelValues("frame").Inc()
			s.sendError(protocol.ErrInvalidFrame, "malformed frame")
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)

		case protocol.FrameControl:
			if s.handleControlFrame(frame.Payload) {
				return
			}

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.srv.metrics.eventErrors.WithLabelValues("frame").Inc()
		}
	}
}

// handleEventFrame decodes a client event and dispatches it on the
// runtime loop.
func (s *Session[M]) handleEventFrame(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Warn("event decode error", "error", err)
		s.srv.metrics.eventErrors.WithLabelValues("decode").Inc()
		s.sendError(protocol.ErrInvalidEvent, "invalid event format")
		return
	}

	err = s.rt.Do(func() {
		if ev.Seq != 0 {
			if ev.Seq <= s.lastEvent {
				s.srv.metrics.eventErrors.WithLabelValues("duplicate").Inc()
				return
			}
			s.lastEvent = ev.Seq
		}
		s.srv.metrics.eventsTotal.WithLabelValues(eventLabel(ev.Type)).Inc()

		traceEvent(s.srv.tracer, s.ID, ev, func() (bool, error) {
			if !s.doc.Exists(ev.Node) {
				s.srv.metrics.eventErrors.WithLabelValues("unknown_node").Inc()
				s.sendError(protocol.ErrUnknownNode, fmt.Sprintf("node %d", ev.Node))
				return false, fmt.Errorf("unknown node %d", ev.Node)
			}
			return s.doc.DispatchEvent(ev.Node, ev.VDOM()), nil
		})
	})
	if err != nil && !errors.Is(err, runtime.ErrStopped) {
		s.logger.Warn("event dropped", "error", err)
	}
}

// handleControlFrame answers control messages. It reports whether the
// client asked to close.
func (s *Session[M]) handleControlFrame(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Warn("control decode error", "error", err)
		s.srv.metrics.eventErrors.WithLabelValues("control").Inc()
		return false
	}

	switch c.Type {
	case protocol.ControlPing:
		s.sendControl(protocol.Pong(c.Timestamp))

	case protocol.ControlPong:
		if c.Timestamp > 0 {
			rtt := time.Since(time.UnixMilli(int64(c.Timestamp)))
			s.logger.Debug("received pong", "rtt", rtt)
		}

	case protocol.ControlClose:
		s.logger.Info("client closing", "reason", c.Reason, "message", c.Message)
		s.forget = c.Reason == protocol.CloseNormal
		return true
	}
	return false
}

// writeLoop writes queued frames and heartbeats. When the session context
// ends it flushes what is queued, sends the close control frame and
// returns.
func (s *Session[M]) writeLoop() {
	defer close(s.writeDone)

	ticker := time.NewTicker(s.srv.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.out:
			if !s.write(data) {
				return
			}

		case <-ticker.C:
			ping := protocol.Ping(uint64(time.Now().UnixMilli()))
			if !s.write(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ping)).Encode()) {
				return
			}

		case <-s.ctx.Done():
			s.drain()
			return
		}
	}
}

// drain writes what is still queued, then the close control frame.
func (s *Session[M]) drain() {
	for {
		select {
		case data := <-s.out:
			if !s.write(data) {
				return
			}
		default:
			bye := protocol.Close(s.closeReason, s.closeMessage)
			if s.write(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(bye)).Encode()) {
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(s.srv.config.WriteTimeout))
			}
			return
		}
	}
}

// write sends one frame. A failed write closes the connection, which ends
// the read loop and with it the session.
func (s *Session[M]) write(data []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(s.srv.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		if s.ctx.Err() == nil {
			s.logger.Warn("write error", "error", err)
			s.srv.metrics.wsErrors.WithLabelValues("write").Inc()
		}
		s.conn.Close()
		return false
	}
	return true
}

// knownEvents bounds the label values of the events metric.
var knownEvents = map[string]bool{
	"click": true, "dblclick": true, "input": true, "change": true,
	"submit": true, "keydown": true, "keyup": true, "focus": true,
	"blur": true, "mouseenter": true, "mouseleave": true, "scroll": true,
}

func eventLabel(eventType string) string {
	if knownEvents[eventType] {
		return eventType
	}
	return "other"
}
