package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"go.uber.org/multierr"
	"google.golang.org/grpc"

	"github.com/oshokin/alarmify/internal/actuator"
	"github.com/oshokin/alarmify/internal/actuator/mock"
	api "github.com/oshokin/alarmify/internal/api/grpc/alarm"
	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/notify"
	repository "github.com/oshokin/alarmify/internal/repository/alarms"
	"github.com/oshokin/alarmify/internal/service/engine"
	"github.com/oshokin/alarmify/internal/version"
)

// Options controls the alarm-daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile specifies the path to persist alarm definitions.
	StateFile string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
	// Listening, when set, receives the bound address once the server accepts connections.
	Listening func(addr net.Addr)
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the engine and the gRPC server and blocks until ctx is canceled
// or the server stops. The engine is shut down before Run returns.
func Run(ctx context.Context, opts *Options) (err error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-daemon")

	settings, err := loadSettings(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	applyLogLevel(ctx, settings.LogLevel)

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(); err != nil {
			return err
		}
	}

	// Use StateFile from config unless overridden by command line option.
	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	logger.InfoKV(ctx, "Starting alarm daemon", version.KV()...)

	eng := engine.New(newActuator(settings), newNotifier(settings), settings)

	defer func() {
		// The serve context is gone by now; shutdown gets its own.
		err = multierr.Append(err, eng.Shutdown(context.WithoutCancel(ctx)))
	}()

	svc, err := newService(ctx, eng, repository.NewFileRepository(stateFile))
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	watcher, err := repository.Watch(ctx, stateFile, repository.DefaultDebounce, svc.reload)
	if err != nil {
		logger.WarnKV(ctx, "External edits of the state file will not be picked up", "error", err)
	} else {
		defer func() {
			err = multierr.Append(err, watcher.Close())
		}()
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(api.LoggingInterceptor))
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alarm daemon listening",
		"listen_address", lis.Addr().String(),
		"state_file", stateFile,
		"fade_in_supported", eng.FadeInSupported(),
	)

	if opts.Listening != nil {
		opts.Listening(lis.Addr())
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// loadSettings reads the settings file; a missing file means defaults.
func loadSettings(ctx context.Context, path string) (*config.Config, error) {
	settings, err := config.Load(path)

	switch {
	case err == nil:
		return settings, nil
	case errors.Is(err, os.ErrNotExist):
		logger.WarnKV(ctx, "Settings file not found, using defaults", "path", path)

		return config.Default(), nil
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}
}

func applyLogLevel(ctx context.Context, value string) {
	level, ok := logger.ParseLogLevel(value)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, using info", "log_level", value)
	}

	logger.SetLevel(level)
}

func newActuator(settings *config.Config) actuator.PlaybackActuator {
	// Validate admits only the mock actuator.
	return mock.New(mock.WithEntitlement(settings.Mock.IsEntitled()))
}

func newNotifier(settings *config.Config) notify.Notifier {
	notifiers := notify.Multi{notify.Log{}}

	if settings.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktop())
	}

	return notifiers
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise the configured daemon
// address is used, keeping its host so a loopback default stays local.
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
