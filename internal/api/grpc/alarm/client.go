package alarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarmify/internal/codec"
	"github.com/oshokin/alarmify/internal/config"
	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/service/common"
)

// Client wraps a connection to the AlarmService with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm daemon.
	conn grpc.ClientConnInterface
	// closer releases conn; nil when the connection is owned by the caller.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call for the daemon's audit log.
	actor common.Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller to the daemon.
func WithActor(actor common.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// Upcoming is one future firing as returned by the daemon.
type Upcoming struct {
	// At is the due instant.
	At time.Time
	// Alarm is the alarm that fires.
	Alarm codec.View
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alarm daemon.
// Note: this uses insecure transport credentials; the daemon listens on
// loopback by default.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm daemon: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Closing the client leaves conn open.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// AddAlarm registers an alarm and returns it as stored by the daemon.
func (c *Client) AddAlarm(ctx context.Context, req domain.Request) (codec.View, error) {
	in, err := codec.RequestToStruct(req)
	if err != nil {
		return codec.View{}, err
	}

	out := new(structpb.Struct)
	if err = c.invoke(ctx, MethodAddAlarm, in, out); err != nil {
		return codec.View{}, fmt.Errorf("add alarm: %w", err)
	}

	return codec.ViewFromStruct(out)
}

// RemoveAlarm removes every alarm set for the given "HH:MM" time.
func (c *Client) RemoveAlarm(ctx context.Context, at string) (bool, error) {
	return c.remove(ctx, codec.FieldTime, at)
}

// RemoveAlarmByID removes one alarm by id.
func (c *Client) RemoveAlarmByID(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, codec.FieldID, id)
}

// ClearAlarms removes every alarm and returns how many were removed.
func (c *Client) ClearAlarms(ctx context.Context) (int, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.invoke(ctx, MethodClearAlarms, new(emptypb.Empty), out); err != nil {
		return 0, fmt.Errorf("clear alarms: %w", err)
	}

	return int(out.GetValue()), nil
}

// ListAlarms returns every registered alarm.
func (c *Client) ListAlarms(ctx context.Context) ([]codec.View, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, MethodListAlarms, new(emptypb.Empty), out); err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	items, err := codec.Structs(out)
	if err != nil {
		return nil, err
	}

	views := make([]codec.View, 0, len(items))

	for _, item := range items {
		view, err := codec.ViewFromStruct(item)
		if err != nil {
			return nil, err
		}

		views = append(views, view)
	}

	return views, nil
}

// Upcoming lists the firings within the next days; zero means the daemon default.
func (c *Client) Upcoming(ctx context.Context, days int) ([]Upcoming, error) {
	out := new(structpb.ListValue)
	//nolint:gosec // Day horizons are small.
	if err := c.invoke(ctx, MethodUpcoming, wrapperspb.Int32(int32(days)), out); err != nil {
		return nil, fmt.Errorf("list upcoming alarms: %w", err)
	}

	items, err := codec.Structs(out)
	if err != nil {
		return nil, err
	}

	result := make([]Upcoming, 0, len(items))

	for _, item := range items {
		at, view, err := codec.OccurrenceFromStruct(item)
		if err != nil {
			return nil, err
		}

		result = append(result, Upcoming{At: at, Alarm: view})
	}

	return result, nil
}

// NextTrigger returns a human description of the soonest alarm, or "" when
// nothing is scheduled.
func (c *Client) NextTrigger(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, MethodNextTrigger, new(emptypb.Empty), out); err != nil {
		return "", fmt.Errorf("next trigger: %w", err)
	}

	return out.GetValue(), nil
}

// Snooze silences a ringing alarm and schedules its replay in minutes.
func (c *Client) Snooze(ctx context.Context, alarmID string, minutes int) (domain.SnoozeEntry, error) {
	return c.snooze(ctx, codec.SnoozeRequest{AlarmID: alarmID, Minutes: minutes})
}

// SnoozeSnapshot schedules a replay of snap, which need not belong to a
// registered alarm.
func (c *Client) SnoozeSnapshot(ctx context.Context, snap domain.Snapshot, minutes int) (domain.SnoozeEntry, error) {
	return c.snooze(ctx, codec.SnoozeRequest{AlarmID: snap.AlarmID, Snapshot: &snap, Minutes: minutes})
}

func (c *Client) snooze(ctx context.Context, req codec.SnoozeRequest) (domain.SnoozeEntry, error) {
	in, err := codec.SnoozeRequestToStruct(req)
	if err != nil {
		return domain.SnoozeEntry{}, err
	}

	out := new(structpb.Struct)
	if err := c.invoke(ctx, MethodSnooze, in, out); err != nil {
		return domain.SnoozeEntry{}, fmt.Errorf("snooze alarm: %w", err)
	}

	return codec.SnoozeFromStruct(out)
}

// ListSnoozes returns the pending snoozes.
func (c *Client) ListSnoozes(ctx context.Context) ([]domain.SnoozeEntry, error) {
	out := new(structpb.ListValue)
	if err := c.invoke(ctx, MethodListSnoozes, new(emptypb.Empty), out); err != nil {
		return nil, fmt.Errorf("list snoozes: %w", err)
	}

	items, err := codec.Structs(out)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SnoozeEntry, 0, len(items))

	for _, item := range items {
		entry, err := codec.SnoozeFromStruct(item)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Dismiss ends a ringing alarm. It reports whether the alarm was ringing.
func (c *Client) Dismiss(ctx context.Context, alarmID string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, MethodDismiss, wrapperspb.String(alarmID), out); err != nil {
		return false, fmt.Errorf("dismiss alarm: %w", err)
	}

	return out.GetValue(), nil
}

func (c *Client) remove(ctx context.Context, field, value string) (bool, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		field: structpb.NewStringValue(value),
	}}

	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, MethodRemoveAlarm, in, out); err != nil {
		return false, fmt.Errorf("remove alarm: %w", err)
	}

	return out.GetValue(), nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	return c.conn.Invoke(common.OutgoingActor(callCtx, c.actor), FullMethod(method), in, out)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
