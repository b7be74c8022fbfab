package alarm

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/common"
)

// LoggingInterceptor logs every unary call with its actor, status code and latency.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	started := time.Now()

	actor, ok := common.IncomingActor(ctx)
	if !ok {
		actor = "unknown"
	}

	ctx = logger.WithKV(logger.WithName(ctx, "grpc"), "method", info.FullMethod, "actor", actor)

	resp, err := handler(ctx, req)

	logger.DebugKV(ctx, "RPC handled",
		"code", status.Code(err).String(),
		"elapsed", time.Since(started),
	)

	return resp, err
}
