package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/service"
	"github.com/MKhiriev/go-doc-locker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) PingContext(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type fixedAppInfo struct{}

func (fixedAppInfo) GetAppInfo(context.Context) models.AppVersionResponse {
	return models.AppVersionResponse{Version: "v2.0.1"}
}

// startServer serves h over an in-memory listener and returns a connected
// health client.
func startServer(t *testing.T, h *Handler) healthpb.HealthClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(
		grpc.UnaryInterceptor(h.UnaryInterceptor),
		grpc.StreamInterceptor(h.StreamInterceptor),
	)
	h.Register(server)

	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func newTestHandler(pinger Pinger) *Handler {
	return NewHandler(&service.Services{AppInfoService: fixedAppInfo{}}, pinger, logger.Nop())
}

func check(t *testing.T, client healthpb.HealthClient, name string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_FollowsDatabase(t *testing.T) {
	pinger := &fakePinger{}
	h := newTestHandler(pinger)
	client := startServer(t, h)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName), "not serving before the first probe")

	require.NoError(t, h.CheckReadiness(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))

	pinger.set(errors.New("connection refused"))
	require.Error(t, h.CheckReadiness(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))
}

func TestHealth_ShutdownIsFinal(t *testing.T) {
	h := newTestHandler(&fakePinger{})
	client := startServer(t, h)

	require.NoError(t, h.CheckReadiness(context.Background()))
	h.Shutdown()
	require.NoError(t, h.CheckReadiness(context.Background()))

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName))
}

func TestUnaryInterceptor_Headers(t *testing.T) {
	h := newTestHandler(&fakePinger{})
	client := startServer(t, h)

	t.Run("generated trace id", func(t *testing.T) {
		var header metadata.MD
		_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{}, grpc.Header(&header))
		require.NoError(t, err)

		require.Len(t, header.Get(traceIDKey), 1)
		assert.Len(t, header.Get(traceIDKey)[0], 36)
		assert.Equal(t, []string{"v2.0.1"}, header.Get(appVersionKey))
	})

	t.Run("caller trace id kept", func(t *testing.T) {
		ctx := metadata.AppendToOutgoingContext(context.Background(), traceIDKey, "trace-42")

		var header metadata.MD
		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.Header(&header))
		require.NoError(t, err)

		assert.Equal(t, []string{"trace-42"}, header.Get(traceIDKey))
	})
}
