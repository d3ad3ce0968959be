package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name      string
	startErr  error
	log       *[]string
}

func (m *fakeModule) GetName() string { return m.name }

func (m *fakeModule) OnStart(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	*m.log = append(*m.log, "start:"+m.name)
	return nil
}

func (m *fakeModule) OnStop(ctx context.Context) error {
	*m.log = append(*m.log, "stop:"+m.name)
	return nil
}

func TestHostStartsInOrderAndStopsInReverse(t *testing.T) {
	var log []string
	a := &fakeModule{name: "a", log: &log}
	b := &fakeModule{name: "b", log: &log}
	c := &fakeModule{name: "c", log: &log}

	h := NewHost(a, b, c)
	require.NoError(t, h.Start(context.Background()))
	assert.Equal(t, []string{"start:a", "start:b", "start:c"}, log)

	log = nil
	require.NoError(t, h.Stop(context.Background()))
	assert.Equal(t, []string{"stop:c", "stop:b", "stop:a"}, log)
}

func TestHostStartUnwindsAlreadyStartedModulesOnFailure(t *testing.T) {
	var log []string
	a := &fakeModule{name: "a", log: &log}
	b := &fakeModule{name: "b", log: &log, startErr: errors.New("boom")}
	c := &fakeModule{name: "c", log: &log}

	h := NewHost(a, b, c)
	err := h.Start(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"start:a", "stop:a"}, log)
}
