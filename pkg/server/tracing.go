package server

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/morph/pkg/protocol"
	"github.com/vango-dev/morph/pkg/runtime"
)

// DefaultTracerName is the instrumentation name of server spans.
const DefaultTracerName = "github.com/vango-dev/morph/pkg/server"

func newTracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return otel.Tracer(name)
}

// traceTick records a finished tick as a span. The span is backdated to
// the start of the tick.
func traceTick(tracer trace.Tracer, sessionID string, info runtime.TickInfo, sent int) {
	end := time.Now()
	_, span := tracer.Start(context.Background(), "morph.tick",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-info.Duration)),
		trace.WithAttributes(
			attribute.String("morph.session_id", sessionID),
			attribute.Int64("morph.tick", int64(info.Seq)),
			attribute.Int("morph.messages", info.Messages),
			attribute.Int("morph.effects", info.Effects),
			attribute.Int("morph.nodes", info.Stats.Nodes),
			attribute.Int("morph.mutations", sent),
			attribute.Int("morph.moved", info.Stats.Moved),
		),
	)
	if info.Stats.DuplicateKeys > 0 {
		span.AddEvent("duplicate keys", trace.WithAttributes(
			attribute.Int("morph.duplicate_keys", info.Stats.DuplicateKeys),
		))
	}
	span.End(trace.WithTimestamp(end))
}

// traceEvent wraps the dispatch of one client event. dispatch reports
// whether a listener handled it.
func traceEvent(tracer trace.Tracer, sessionID string, ev *protocol.Event, dispatch func() (bool, error)) {
	_, span := tracer.Start(context.Background(), "morph.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("morph.session_id", sessionID),
			attribute.String("morph.event.type", ev.Type),
			attribute.Int64("morph.event.node", int64(ev.Node)),
			attribute.Int64("morph.event.seq", int64(ev.Seq)),
		),
	)
	defer span.End()

	handled, err := dispatch()
	span.SetAttributes(attribute.Bool("morph.event.handled", handled))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
