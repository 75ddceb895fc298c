package spinner

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunReturnsFnResult(t *testing.T) {
	var out bytes.Buffer
	calls := 0
	err := Run(context.Background(), &out, "Pensando...", func() error {
		calls++
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	errBoom := errors.New("boom")
	err = Run(context.Background(), &out, "Pensando...", func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
}

func TestModelStopsOnDone(t *testing.T) {
	m := newModel("Pensando...")
	assert.Contains(t, m.View(), "Pensando...")

	next, cmd := m.Update(doneMsg{})
	assert.NotNil(t, cmd)
	assert.Empty(t, next.View())
}
