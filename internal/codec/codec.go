package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// Field names shared by every message.
const (
	FieldID            = "id"
	FieldTime          = "time"
	FieldContentRef    = "content_ref"
	FieldContentName   = "content_name"
	FieldVolume        = "volume"
	FieldFadeInEnabled = "fade_in_enabled"
	FieldFadeInMinutes = "fade_in_minutes"
	FieldWeekdays      = "weekdays"
	FieldSchedule      = "schedule"
	FieldNextTrigger   = "next_trigger"
	FieldAlarmID       = "alarm_id"
	FieldMinutes       = "minutes"
	FieldFireAt        = "fire_at"
	FieldAt            = "at"
	FieldAlarm         = "alarm"
	FieldSnapshot      = "snapshot"
)

var (
	// ErrNilMessage is returned when a message is missing.
	ErrNilMessage = errors.New("message must be provided")
	// ErrBadField is returned when a field has an unexpected type or value.
	ErrBadField = errors.New("malformed field")
)

// View is a definition as seen by clients: the raw request plus derived data.
type View struct {
	// Request holds the alarm fields.
	Request alarm.Request
	// Schedule is a human label of the weekday set, e.g. "weekdays".
	Schedule string
	// NextTrigger is the next due instant; zero when none.
	NextTrigger time.Time
}

// RequestToStruct encodes a raw alarm request.
func RequestToStruct(req alarm.Request) (*structpb.Struct, error) {
	days := make([]any, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		days = append(days, d)
	}

	fields := map[string]any{
		FieldTime:          req.Time,
		FieldContentRef:    req.Content.Ref,
		FieldContentName:   req.Content.Name,
		FieldVolume:        req.Volume,
		FieldFadeInEnabled: req.FadeIn.Enabled,
		FieldFadeInMinutes: req.FadeIn.Minutes,
		FieldWeekdays:      days,
	}

	if req.ID != "" {
		fields[FieldID] = req.ID
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode alarm request: %w", err)
	}

	return s, nil
}

// RequestFromStruct decodes a raw alarm request. Validation is left to
// alarm.NewDefinition.
func RequestFromStruct(s *structpb.Struct) (alarm.Request, error) {
	if s == nil {
		return alarm.Request{}, ErrNilMessage
	}

	volume, err := intField(s, FieldVolume)
	if err != nil {
		return alarm.Request{}, err
	}

	minutes, err := intField(s, FieldFadeInMinutes)
	if err != nil {
		return alarm.Request{}, err
	}

	days, err := stringList(s, FieldWeekdays)
	if err != nil {
		return alarm.Request{}, err
	}

	return alarm.Request{
		ID:   stringField(s, FieldID),
		Time: stringField(s, FieldTime),
		Content: alarm.Content{
			Ref:  stringField(s, FieldContentRef),
			Name: stringField(s, FieldContentName),
		},
		Volume: volume,
		FadeIn: alarm.FadeIn{
			Enabled: s.GetFields()[FieldFadeInEnabled].GetBoolValue(),
			Minutes: minutes,
		},
		Weekdays: days,
	}, nil
}

// DefinitionToStruct encodes a definition with its next due instant.
func DefinitionToStruct(def alarm.Definition, next time.Time) (*structpb.Struct, error) {
	s, err := RequestToStruct(def.Request())
	if err != nil {
		return nil, err
	}

	s.Fields[FieldSchedule] = structpb.NewStringValue(def.Weekdays.String())

	if !next.IsZero() {
		s.Fields[FieldNextTrigger] = structpb.NewStringValue(next.Format(time.RFC3339))
	}

	return s, nil
}

// ViewFromStruct decodes what DefinitionToStruct produced.
func ViewFromStruct(s *structpb.Struct) (View, error) {
	req, err := RequestFromStruct(s)
	if err != nil {
		return View{}, err
	}

	next, err := timeField(s, FieldNextTrigger)
	if err != nil {
		return View{}, err
	}

	return View{
		Request:     req,
		Schedule:    stringField(s, FieldSchedule),
		NextTrigger: next,
	}, nil
}

// SnapshotToStruct encodes a playback snapshot.
func SnapshotToStruct(snap alarm.Snapshot) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		FieldAlarmID:       snap.AlarmID,
		FieldContentRef:    snap.Content.Ref,
		FieldContentName:   snap.Content.Name,
		FieldVolume:        snap.Volume,
		FieldFadeInEnabled: snap.FadeIn.Enabled,
		FieldFadeInMinutes: snap.FadeIn.Minutes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return s, nil
}

// SnapshotFromStruct decodes a playback snapshot.
func SnapshotFromStruct(s *structpb.Struct) (alarm.Snapshot, error) {
	if s == nil {
		return alarm.Snapshot{}, ErrNilMessage
	}

	volume, err := intField(s, FieldVolume)
	if err != nil {
		return alarm.Snapshot{}, err
	}

	minutes, err := intField(s, FieldFadeInMinutes)
	if err != nil {
		return alarm.Snapshot{}, err
	}

	return alarm.Snapshot{
		AlarmID: stringField(s, FieldAlarmID),
		Content: alarm.Content{
			Ref:  stringField(s, FieldContentRef),
			Name: stringField(s, FieldContentName),
		},
		Volume: volume,
		FadeIn: alarm.FadeIn{
			Enabled: s.GetFields()[FieldFadeInEnabled].GetBoolValue(),
			Minutes: minutes,
		},
	}, nil
}

// SnoozeRequest asks for a replay of a registered alarm, or of an inline
// snapshot that does not need its alarm to still be registered.
type SnoozeRequest struct {
	// AlarmID names the registered alarm; ignored when Snapshot is set.
	AlarmID string
	// Snapshot is replayed as is when set.
	Snapshot *alarm.Snapshot
	// Minutes is the snooze length.
	Minutes int
}

// SnoozeRequestToStruct encodes a snooze request.
func SnoozeRequestToStruct(req SnoozeRequest) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldMinutes: structpb.NewNumberValue(float64(req.Minutes)),
	}}

	if req.AlarmID != "" {
		s.Fields[FieldAlarmID] = structpb.NewStringValue(req.AlarmID)
	}

	if req.Snapshot != nil {
		snap, err := SnapshotToStruct(*req.Snapshot)
		if err != nil {
			return nil, err
		}

		s.Fields[FieldSnapshot] = structpb.NewStructValue(snap)
	}

	return s, nil
}

// SnoozeRequestFromStruct decodes a snooze request. Either an alarm id or a
// snapshot with content is required, and minutes must be a whole number.
func SnoozeRequestFromStruct(s *structpb.Struct) (SnoozeRequest, error) {
	if s == nil {
		return SnoozeRequest{}, ErrNilMessage
	}

	minutes, err := intField(s, FieldMinutes)
	if err != nil {
		return SnoozeRequest{}, err
	}

	req := SnoozeRequest{
		AlarmID: stringField(s, FieldAlarmID),
		Minutes: minutes,
	}

	if v, ok := s.GetFields()[FieldSnapshot]; ok {
		inline := v.GetStructValue()
		if inline == nil {
			return SnoozeRequest{}, fmt.Errorf("%s must be an object: %w", FieldSnapshot, ErrBadField)
		}

		snap, err := SnapshotFromStruct(inline)
		if err != nil {
			return SnoozeRequest{}, err
		}

		if snap.Content.Ref == "" {
			return SnoozeRequest{}, fmt.Errorf("%s: %w", FieldSnapshot, alarm.ErrContentRequired)
		}

		if snap.Volume < 0 || snap.Volume > alarm.MaxVolume {
			return SnoozeRequest{}, fmt.Errorf("%s: %w", FieldSnapshot, alarm.ErrInvalidVolume)
		}

		if snap.AlarmID == "" {
			snap.AlarmID = req.AlarmID
		}

		req.Snapshot = &snap

		return req, nil
	}

	if req.AlarmID == "" {
		return SnoozeRequest{}, fmt.Errorf("%s or %s is required: %w", FieldAlarmID, FieldSnapshot, ErrBadField)
	}

	return req, nil
}

// SnoozeToStruct encodes a pending snooze.
func SnoozeToStruct(entry alarm.SnoozeEntry) (*structpb.Struct, error) {
	s, err := SnapshotToStruct(entry.Snapshot)
	if err != nil {
		return nil, err
	}

	s.Fields[FieldID] = structpb.NewStringValue(entry.ID)
	s.Fields[FieldFireAt] = structpb.NewStringValue(entry.FireAt.Format(time.RFC3339))

	return s, nil
}

// SnoozeFromStruct decodes a pending snooze.
func SnoozeFromStruct(s *structpb.Struct) (alarm.SnoozeEntry, error) {
	snap, err := SnapshotFromStruct(s)
	if err != nil {
		return alarm.SnoozeEntry{}, err
	}

	fireAt, err := timeField(s, FieldFireAt)
	if err != nil {
		return alarm.SnoozeEntry{}, err
	}

	return alarm.SnoozeEntry{
		ID:       stringField(s, FieldID),
		FireAt:   fireAt,
		Snapshot: snap,
	}, nil
}

// OccurrenceToStruct encodes one upcoming firing.
func OccurrenceToStruct(o alarm.Occurrence) (*structpb.Struct, error) {
	def, err := DefinitionToStruct(o.Alarm, time.Time{})
	if err != nil {
		return nil, err
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAt:    structpb.NewStringValue(o.At.Format(time.RFC3339)),
		FieldAlarm: structpb.NewStructValue(def),
	}}, nil
}

// OccurrenceFromStruct decodes one upcoming firing as a time and a view.
func OccurrenceFromStruct(s *structpb.Struct) (time.Time, View, error) {
	if s == nil {
		return time.Time{}, View{}, ErrNilMessage
	}

	at, err := timeField(s, FieldAt)
	if err != nil {
		return time.Time{}, View{}, err
	}

	view, err := ViewFromStruct(s.GetFields()[FieldAlarm].GetStructValue())
	if err != nil {
		return time.Time{}, View{}, err
	}

	return at, view, nil
}

// StructList wraps structs in a list value.
func StructList(items []*structpb.Struct) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(items))
	for _, item := range items {
		values = append(values, structpb.NewStructValue(item))
	}

	return &structpb.ListValue{Values: values}
}

// Structs unwraps a list of structs, rejecting non-struct entries.
func Structs(list *structpb.ListValue) ([]*structpb.Struct, error) {
	result := make([]*structpb.Struct, 0, len(list.GetValues()))

	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("item %d is not an object: %w", i, ErrBadField)
		}

		result = append(result, s)
	}

	return result, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}

	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, fmt.Errorf("%s must be a number: %w", name, ErrBadField)
	}

	n := v.GetNumberValue()
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%s must be an integer: %w", name, ErrBadField)
	}

	return int(n), nil
}

func stringList(s *structpb.Struct, name string) ([]string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, nil
	}

	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s must be a list: %w", name, ErrBadField)
	}

	var result []string

	for _, item := range list.GetValues() {
		str, isString := item.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, fmt.Errorf("%s must hold strings: %w", name, ErrBadField)
		}

		result = append(result, str.StringValue)
	}

	return result, nil
}

func timeField(s *structpb.Struct, name string) (time.Time, error) {
	raw := stringField(s, name)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrBadField)
	}

	return t, nil
}
