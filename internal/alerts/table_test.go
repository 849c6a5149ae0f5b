package alerts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbsu/internal/frame"
)

func TestMessageWithTable(t *testing.T) {
	f, err := frame.New([]string{"table", "rows"},
		[]any{"events", int64(1200)},
		[]any{"users", int64(35)},
	)
	require.NoError(t, err)

	msg := MessageWithTable("Nightly load", f)

	assert.True(t, strings.HasPrefix(msg, "Nightly load\n```+"))
	assert.True(t, strings.HasSuffix(msg, "+\n```"))
	assert.Contains(t, msg, "table")
	assert.Contains(t, msg, "events")
	assert.Contains(t, msg, "1200")
	assert.NotContains(t, msg, "TABLE", "headers keep their case")
}
