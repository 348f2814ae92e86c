package debug_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/docql/internal/debug"
)

func TestLogger(t *testing.T) {
	t.Cleanup(func() { debug.Init(false) })

	var buf bytes.Buffer
	debug.Configure(false, debug.Options{Output: &buf})
	debug.Debug("hidden")
	debug.Error("hidden too")
	assert.False(t, debug.Enabled())
	assert.Empty(t, buf.String())

	debug.Configure(true, debug.Options{Output: &buf})
	debug.Debug("compiled query", "table", "users")
	assert.True(t, debug.Enabled())
	assert.Contains(t, buf.String(), "msg=\"compiled query\"")
	assert.Contains(t, buf.String(), "table=users")

	buf.Reset()
	debug.Configure(true, debug.Options{Output: &buf, JSON: true})
	debug.With("component", "store").Info("ready")
	assert.Contains(t, buf.String(), `"component":"store"`)
	assert.Contains(t, buf.String(), `"msg":"ready"`)
}
