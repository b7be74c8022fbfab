package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	api "github.com/oshokin/alarmify/internal/api/grpc/alarm"
	"github.com/oshokin/alarmify/internal/codec"
	"github.com/oshokin/alarmify/internal/config"
	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/common"
)

// Client is the daemon API used by the commands; *alarm.Client implements it.
type Client interface {
	AddAlarm(ctx context.Context, req domain.Request) (codec.View, error)
	RemoveAlarm(ctx context.Context, at string) (bool, error)
	RemoveAlarmByID(ctx context.Context, id string) (bool, error)
	ClearAlarms(ctx context.Context) (int, error)
	ListAlarms(ctx context.Context) ([]codec.View, error)
	Upcoming(ctx context.Context, days int) ([]api.Upcoming, error)
	NextTrigger(ctx context.Context) (string, error)
	Snooze(ctx context.Context, alarmID string, minutes int) (domain.SnoozeEntry, error)
	ListSnoozes(ctx context.Context) ([]domain.SnoozeEntry, error)
	Dismiss(ctx context.Context, alarmID string) (bool, error)
}

// Options configures how alarm-ctl reaches the daemon.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// Connect dials the daemon named by opts. A missing settings file means defaults.
func Connect(ctx context.Context, opts *Options) (*api.Client, error) {
	ctx = logger.WithName(ctx, "alarm-ctl")

	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	default:
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOpts := []api.Option{api.WithCallTimeout(cfg.Timeout)}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		logger.DebugKV(ctx, "Unable to detect actor", "error", err)
	} else {
		clientOpts = append(clientOpts, api.WithActor(actor))
	}

	client, err := api.Dial(ctx, serverAddress, clientOpts...)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Connected to alarm daemon", "server_address", serverAddress)

	return client, nil
}

// Commands renders daemon answers to out.
type Commands struct {
	client Client
	out    io.Writer
	now    func() time.Time

	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

// New builds the command set. Styles adapt to what out supports.
func New(client Client, out io.Writer) *Commands {
	r := lipgloss.NewRenderer(out)

	return &Commands{
		client:  client,
		out:     out,
		now:     time.Now,
		heading: r.NewStyle().Bold(true).TabWidth(lipgloss.NoTabConversion),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   r.NewStyle().Faint(true),
	}
}

func (c *Commands) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
