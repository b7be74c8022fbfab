package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarmify/internal/domain/alarm"
)

// TestDefinitionView carries the derived schedule and next trigger.
func TestDefinitionView(t *testing.T) {
	t.Parallel()

	def, _, err := alarm.NewDefinition(alarm.Request{
		Time:     "07:00",
		Content:  alarm.Content{Ref: "spotify:playlist:morning", Name: "Morning Energy"},
		Volume:   80,
		FadeIn:   alarm.FadeIn{Enabled: true, Minutes: 15},
		Weekdays: []string{"mon", "wed", "fri"},
	})
	require.NoError(t, err)

	next := time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC)

	s, err := DefinitionToStruct(def, next)
	require.NoError(t, err)

	view, err := ViewFromStruct(s)
	require.NoError(t, err)
	require.Equal(t, def.Request(), view.Request)
	require.Equal(t, "Monday, Wednesday, Friday", view.Schedule)
	require.True(t, next.Equal(view.NextTrigger))

	again, _, err := alarm.NewDefinition(view.Request)
	require.NoError(t, err)
	require.Equal(t, def, again)
}

// TestRequestFromStruct_Malformed rejects wrongly typed fields.
func TestRequestFromStruct_Malformed(t *testing.T) {
	t.Parallel()

	cases := []map[string]any{
		{FieldVolume: "loud"},
		{FieldVolume: 50.5},
		{FieldWeekdays: "monday"},
		{FieldWeekdays: []any{1.0}},
		{FieldFadeInMinutes: true},
	}

	for _, fields := range cases {
		s, err := structpb.NewStruct(fields)
		require.NoError(t, err)

		_, err = RequestFromStruct(s)
		require.ErrorIs(t, err, ErrBadField, "%v", fields)
	}

	_, err := RequestFromStruct(nil)
	require.ErrorIs(t, err, ErrNilMessage)
}

// TestSnoozeAndOccurrence decode what the daemon sends.
func TestSnoozeAndOccurrence(t *testing.T) {
	t.Parallel()

	fireAt := time.Date(2026, time.October, 14, 7, 5, 0, 0, time.UTC)
	entry := alarm.SnoozeEntry{
		ID:     "5f0c",
		FireAt: fireAt,
		Snapshot: alarm.Snapshot{
			AlarmID: "07:00@x",
			Content: alarm.Content{Ref: "x", Name: "X"},
			Volume:  40,
		},
	}

	s, err := SnoozeToStruct(entry)
	require.NoError(t, err)

	decoded, err := SnoozeFromStruct(s)
	require.NoError(t, err)
	require.Equal(t, entry.ID, decoded.ID)
	require.True(t, fireAt.Equal(decoded.FireAt))
	require.Equal(t, entry.Snapshot, decoded.Snapshot)

	def, _, err := alarm.NewDefinition(alarm.Request{Time: "07:00", Content: alarm.Content{Ref: "x"}})
	require.NoError(t, err)

	o, err := OccurrenceToStruct(alarm.Occurrence{At: fireAt, Alarm: def})
	require.NoError(t, err)

	list, err := Structs(StructList([]*structpb.Struct{o}))
	require.NoError(t, err)
	require.Len(t, list, 1)

	at, view, err := OccurrenceFromStruct(list[0])
	require.NoError(t, err)
	require.True(t, fireAt.Equal(at))
	require.Equal(t, def.ID, view.Request.ID)
	require.Equal(t, "every day", view.Schedule)

	_, err = Structs(&structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("x")}})
	require.ErrorIs(t, err, ErrBadField)
}

// TestSnoozeRequestFromStruct accepts an alarm id or an inline snapshot.
func TestSnoozeRequestFromStruct(t *testing.T) {
	t.Parallel()

	byID, err := SnoozeRequestFromStruct(&structpb.Struct{Fields: map[string]*structpb.Value{
		FieldAlarmID: structpb.NewStringValue("07:00@x"),
		FieldMinutes: structpb.NewNumberValue(9),
	}})
	require.NoError(t, err)
	require.Equal(t, SnoozeRequest{AlarmID: "07:00@x", Minutes: 9}, byID)

	snap := alarm.Snapshot{Content: alarm.Content{Ref: "x"}, Volume: 20}

	s, err := SnoozeRequestToStruct(SnoozeRequest{AlarmID: "07:00@x", Snapshot: &snap, Minutes: 3})
	require.NoError(t, err)

	inline, err := SnoozeRequestFromStruct(s)
	require.NoError(t, err)
	require.NotNil(t, inline.Snapshot)
	require.Equal(t, "07:00@x", inline.Snapshot.AlarmID)
	require.Equal(t, 3, inline.Minutes)

	tests := []struct {
		name   string
		fields map[string]*structpb.Value
	}{
		{name: "nothing to replay", fields: map[string]*structpb.Value{
			FieldMinutes: structpb.NewNumberValue(5),
		}},
		{name: "fractional minutes", fields: map[string]*structpb.Value{
			FieldAlarmID: structpb.NewStringValue("07:00@x"),
			FieldMinutes: structpb.NewNumberValue(2.5),
		}},
		{name: "snapshot not an object", fields: map[string]*structpb.Value{
			FieldSnapshot: structpb.NewStringValue("x"),
			FieldMinutes:  structpb.NewNumberValue(5),
		}},
	}

	for _, tt := range tests {
		_, err := SnoozeRequestFromStruct(&structpb.Struct{Fields: tt.fields})
		require.ErrorIs(t, err, ErrBadField, tt.name)
	}

	_, err = SnoozeRequestFromStruct(nil)
	require.ErrorIs(t, err, ErrNilMessage)
}
