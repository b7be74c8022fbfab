package alarm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarmify/internal/codec"
	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/logger"
	"github.com/oshokin/alarmify/internal/service/engine"
)

// DefaultUpcomingDays is the horizon used when Upcoming is called with zero days.
const DefaultUpcomingDays = 7

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Add(ctx context.Context, req domain.Request) (domain.Definition, error)
	Remove(ctx context.Context, at string) (bool, error)
	RemoveByID(ctx context.Context, id string) bool
	Clear(ctx context.Context) int
	List() []domain.Definition
	NextTrigger(def domain.Definition) (time.Time, bool)
	NextTriggerDisplay() (string, bool)
	Upcoming(days int) []domain.Occurrence
	Snooze(ctx context.Context, snap domain.Snapshot, minutes int) (domain.SnoozeEntry, error)
	SnoozeAlarm(ctx context.Context, alarmID string, minutes int) (domain.SnoozeEntry, error)
	ActiveSnoozes() []domain.SnoozeEntry
	Dismiss(ctx context.Context, alarmID string) bool
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

var _ AlarmServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// AddAlarm registers an alarm, replacing one with the same identity.
func (s *Server) AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := codec.RequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	def, err := s.service.Add(ctx, in)
	if err != nil {
		return nil, toStatus(ctx, "unable to add alarm", err)
	}

	return s.encodeDefinition(ctx, def)
}

// RemoveAlarm removes an alarm by id, or the first alarm registered at a trigger time.
func (s *Server) RemoveAlarm(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fields := req.GetFields()
	if id := fields[codec.FieldID].GetStringValue(); id != "" {
		return wrapperspb.Bool(s.service.RemoveByID(ctx, id)), nil
	}

	at := fields[codec.FieldTime].GetStringValue()
	if at == "" {
		return nil, status.Error(codes.InvalidArgument, "id or time is required")
	}

	removed, err := s.service.Remove(ctx, at)
	if err != nil {
		return nil, toStatus(ctx, "unable to remove alarm", err)
	}

	return wrapperspb.Bool(removed), nil
}

// ClearAlarms removes every alarm and returns how many there were.
func (s *Server) ClearAlarms(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int32Value, error) {
	//nolint:gosec // The alarm count never approaches the int32 range.
	return wrapperspb.Int32(int32(s.service.Clear(ctx))), nil
}

// ListAlarms returns every registered alarm with its next trigger.
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	defs := s.service.List()
	items := make([]*structpb.Struct, 0, len(defs))

	for _, def := range defs {
		item, err := s.encodeDefinition(ctx, def)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return codec.StructList(items), nil
}

// Upcoming lists every occurrence within the requested number of days.
func (s *Server) Upcoming(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.ListValue, error) {
	days := int(req.GetValue())

	switch {
	case days < 0:
		return nil, status.Error(codes.InvalidArgument, "days must not be negative")
	case days == 0:
		days = DefaultUpcomingDays
	}

	occurrences := s.service.Upcoming(days)
	items := make([]*structpb.Struct, 0, len(occurrences))

	for _, o := range occurrences {
		item, err := codec.OccurrenceToStruct(o)
		if err != nil {
			return nil, toStatus(ctx, "unable to encode occurrence", err)
		}

		items = append(items, item)
	}

	return codec.StructList(items), nil
}

// NextTrigger returns a human description of the soonest alarm, or an empty
// string when nothing is scheduled.
func (s *Server) NextTrigger(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	display, _ := s.service.NextTriggerDisplay()

	return wrapperspb.String(display), nil
}

// Snooze stops a ringing alarm and schedules its replay. An inline snapshot
// is replayed even when its alarm has been removed since it fired.
func (s *Server) Snooze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := codec.SnoozeRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var entry domain.SnoozeEntry

	if in.Snapshot != nil {
		entry, err = s.service.Snooze(ctx, *in.Snapshot, in.Minutes)
	} else {
		entry, err = s.service.SnoozeAlarm(ctx, in.AlarmID, in.Minutes)
	}

	if err != nil {
		return nil, toStatus(ctx, "unable to snooze alarm", err)
	}

	out, err := codec.SnoozeToStruct(entry)
	if err != nil {
		return nil, toStatus(ctx, "unable to encode snooze", err)
	}

	return out, nil
}

// ListSnoozes returns the snoozes not yet due.
func (s *Server) ListSnoozes(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries := s.service.ActiveSnoozes()
	items := make([]*structpb.Struct, 0, len(entries))

	for _, e := range entries {
		item, err := codec.SnoozeToStruct(e)
		if err != nil {
			return nil, toStatus(ctx, "unable to encode snooze", err)
		}

		items = append(items, item)
	}

	return codec.StructList(items), nil
}

// Dismiss ends a ringing alarm.
func (s *Server) Dismiss(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	return wrapperspb.Bool(s.service.Dismiss(ctx, req.GetValue())), nil
}

func (s *Server) encodeDefinition(ctx context.Context, def domain.Definition) (*structpb.Struct, error) {
	next, _ := s.service.NextTrigger(def)

	out, err := codec.DefinitionToStruct(def, next)
	if err != nil {
		return nil, toStatus(ctx, "unable to encode alarm", err)
	}

	return out, nil
}

// toStatus maps domain errors onto gRPC codes. Unexpected failures are logged
// and reported with a generic message.
func toStatus(ctx context.Context, msg string, err error) error {
	switch {
	case domain.IsInvalidInput(err), errors.Is(err, codec.ErrBadField), errors.Is(err, codec.ErrNilMessage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		logger.ErrorKV(logger.WithName(ctx, "grpc"), msg, "error", err)

		return status.Error(codes.Internal, msg)
	}
}
