package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type journal struct {
	events []string
}

func (j *journal) dep(name string, requires ...string) *Dependency {
	return &Dependency{
		Name:     name,
		Requires: requires,
		StartFunc: func(context.Context) error {
			j.events = append(j.events, "start "+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			j.events = append(j.events, "stop "+name)
			return nil
		},
	}
}

func TestStartup_DependencyOrder(t *testing.T) {
	j := &journal{}
	s := NewStartup(nopLogger(), 1)
	s.AddDependency(j.dep("server", "database", "cache"))
	s.AddDependency(j.dep("migrations", "database"))
	s.AddDependency(j.dep("database"))
	s.AddDependency(j.dep("cache"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start cache", "start database", "start migrations", "start server"}, j.events)
	assert.Equal(t, StartupStatusStarted, s.Status("server"))

	j.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop server", "stop migrations", "stop database", "stop cache"}, j.events)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	s := NewStartup(nopLogger(), 3).WithBackoffUnit(time.Millisecond)
	s.AddDependency(&Dependency{
		Name: "database",
		StartFunc: func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestStartup_GivesUp(t *testing.T) {
	s := NewStartup(nopLogger(), 2).WithBackoffUnit(time.Millisecond)
	s.AddDependency(&Dependency{
		Name:      "database",
		StartFunc: func(context.Context) error { return errors.New("connection refused") },
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, StartupStatusFailed, s.Status("database"))
}

func TestStartup_UnknownAndCyclicDependencies(t *testing.T) {
	s := NewStartup(nopLogger(), 1)
	s.AddDependency(&Dependency{Name: "server", Requires: []string{"database"}})
	assert.ErrorContains(t, s.Start(context.Background()), "unknown dependency 'database'")

	s = NewStartup(nopLogger(), 1)
	s.AddDependency(&Dependency{Name: "a", Requires: []string{"b"}})
	s.AddDependency(&Dependency{Name: "b", Requires: []string{"a"}})
	assert.ErrorContains(t, s.Start(context.Background()), "dependency cycle")
}

func TestStartup_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStartup(nopLogger(), 5).WithBackoffUnit(time.Hour)
	s.AddDependency(&Dependency{
		Name: "database",
		StartFunc: func(context.Context) error {
			cancel()
			return errors.New("connection refused")
		},
	})

	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
}
