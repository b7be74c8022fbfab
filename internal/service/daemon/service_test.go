package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarmify/internal/actuator/mock"
	"github.com/oshokin/alarmify/internal/config"
	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/notify"
	repository "github.com/oshokin/alarmify/internal/repository/alarms"
	"github.com/oshokin/alarmify/internal/service/engine"
)

var errTestLoad = errors.New("test load error")

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	// requests are returned from Load operations.
	requests []domain.Request
	// loadErr is the error to return from Load operations.
	loadErr error
	// saves counts Save operations.
	saves int
}

func (m *memoryRepository) Load(context.Context) ([]domain.Request, error) {
	return m.requests, m.loadErr
}

// Save stores the definitions so a later Load returns them.
func (m *memoryRepository) Save(_ context.Context, defs []domain.Definition) error {
	m.saves++
	m.requests = m.requests[:0]

	for _, d := range defs {
		m.requests = append(m.requests, d.Request())
	}

	return nil
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	eng := engine.New(mock.New(), notify.Log{}, config.Default())

	t.Cleanup(func() { require.NoError(t, eng.Shutdown(context.Background())) })

	return eng
}

func request(at, ref string) domain.Request {
	return domain.Request{Time: at, Content: domain.Content{Ref: ref}, Volume: 50}
}

func TestNewService_Restore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		s, err := newService(ctx, newTestEngine(t), &memoryRepository{loadErr: repository.ErrNotFound})
		require.NoError(t, err)
		require.Empty(t, s.List())
	})

	t.Run("load error", func(t *testing.T) {
		t.Parallel()

		_, err := newService(ctx, newTestEngine(t), &memoryRepository{loadErr: errTestLoad})
		require.ErrorIs(t, err, errTestLoad)
	})

	t.Run("skips invalid entries", func(t *testing.T) {
		t.Parallel()

		repo := &memoryRepository{requests: []domain.Request{
			request("07:00", "a"),
			request("99:00", "b"),
			request("08:00", "c"),
		}}

		s, err := newService(ctx, newTestEngine(t), repo)
		require.NoError(t, err)
		require.Len(t, s.List(), 2)
		require.Zero(t, repo.saves)
	})
}

func TestService_PersistsMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &memoryRepository{loadErr: repository.ErrNotFound}

	s, err := newService(ctx, newTestEngine(t), repo)
	require.NoError(t, err)

	repo.loadErr = nil

	_, err = s.Add(ctx, request("07:00", "a"))
	require.NoError(t, err)

	_, err = s.Add(ctx, request("08:00", "b"))
	require.NoError(t, err)
	require.Equal(t, 2, repo.saves)
	require.Len(t, repo.requests, 2)

	_, err = s.Add(ctx, request("bad", "c"))
	require.True(t, domain.IsInvalidInput(err))
	require.Equal(t, 2, repo.saves)

	removed, err := s.Remove(ctx, "07:00")
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, 3, repo.saves)

	removed, err = s.Remove(ctx, "07:00")
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, 3, repo.saves)

	require.True(t, s.RemoveByID(ctx, "08:00@b"))
	require.Empty(t, repo.requests)

	_, err = s.Add(ctx, request("09:00", "d"))
	require.NoError(t, err)
	require.Equal(t, 1, s.Clear(ctx))
	require.Empty(t, repo.requests)
}

func TestService_Reload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &memoryRepository{requests: []domain.Request{request("07:00", "a"), request("08:00", "b")}}

	s, err := newService(ctx, newTestEngine(t), repo)
	require.NoError(t, err)

	// Same content: nothing changes.
	s.reload(ctx)
	require.Len(t, s.List(), 2)

	// An external writer drops one alarm, edits another and adds a third.
	edited := request("08:00", "b")
	edited.Volume = 90

	repo.requests = []domain.Request{edited, request("09:30", "c")}
	s.reload(ctx)

	defs := s.List()
	require.Len(t, defs, 2)

	_, ok := s.Get("07:00@a")
	require.False(t, ok)

	def, ok := s.Get("08:00@b")
	require.True(t, ok)
	require.Equal(t, 90, def.Volume)

	_, ok = s.Get("09:30@c")
	require.True(t, ok)

	// A broken file leaves the engine untouched.
	repo.loadErr = errTestLoad
	s.reload(ctx)
	require.Len(t, s.List(), 2)
	require.Zero(t, repo.saves)
}
