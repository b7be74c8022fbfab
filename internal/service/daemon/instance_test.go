package daemon

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid int
	exe string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.exe }

func listOf(processes ...ps.Process) processLister {
	return func() ([]ps.Process, error) { return processes, nil }
}

func TestCheckSingleInstance(t *testing.T) {
	t.Parallel()

	t.Run("alone", func(t *testing.T) {
		t.Parallel()

		list := listOf(fakeProcess{pid: 10, exe: "alarm-daemon"}, fakeProcess{pid: 11, exe: "bash"})
		require.NoError(t, checkSingleInstance(list, 10, "alarm-daemon"))
	})

	t.Run("another daemon", func(t *testing.T) {
		t.Parallel()

		list := listOf(fakeProcess{pid: 10, exe: "alarm-daemon"}, fakeProcess{pid: 12, exe: "alarm-daemon"})
		err := checkSingleInstance(list, 10, "alarm-daemon")
		require.ErrorIs(t, err, ErrAlreadyRunning)
		require.Contains(t, err.Error(), "pid 12")
	})

	t.Run("listing fails", func(t *testing.T) {
		t.Parallel()

		errList := errors.New("no procfs")
		list := func() ([]ps.Process, error) { return nil, errList }
		require.ErrorIs(t, checkSingleInstance(list, 10, "alarm-daemon"), errList)
	})
}
