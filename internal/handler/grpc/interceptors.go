package grpc

import (
	"context"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	traceIDKey    = "x-trace-id"
	appVersionKey = "x-app-version"
)

// UnaryInterceptor mirrors the HTTP trace-id and access-log middlewares for
// unary calls and adds the running version to the response header.
func (h *Handler) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	ctx = h.withTraceID(ctx)
	start := time.Now()

	resp, err := next(ctx, req)
	h.logCall(ctx, info.FullMethod, start, err)

	return resp, err
}

// StreamInterceptor does the same for streaming calls such as Health.Watch
// and reflection.
func (h *Handler) StreamInterceptor(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
	ctx := h.withTraceID(stream.Context())
	start := time.Now()

	err := next(srv, &tracedStream{ServerStream: stream, ctx: ctx})
	h.logCall(ctx, info.FullMethod, start, err)

	return err
}

// withTraceID stores a child logger carrying the caller's trace id (or a new
// one) in ctx and announces both the id and the app version as header
// metadata.
func (h *Handler) withTraceID(ctx context.Context) context.Context {
	traceID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(traceIDKey); len(values) > 0 && len(values[0]) <= 128 {
			traceID = values[0]
		}
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}

	header := metadata.Pairs(traceIDKey, traceID)
	if h.services != nil && h.services.AppInfoService != nil {
		header.Append(appVersionKey, h.services.AppInfoService.GetAppInfo(ctx).Version)
	}
	_ = grpc.SetHeader(ctx, header)

	l := h.logger.GetChildLogger()
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("trace_id", traceID)
	})
	return l.WithContext(ctx)
}

func (h *Handler) logCall(ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err)
	log := logger.FromContext(ctx)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("method", method).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Send()
}

// tracedStream replaces the stream context with the enriched one.
type tracedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedStream) Context() context.Context {
	return s.ctx
}
