package alerts

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/infrastructure"
)

func newTestRegistry(t *testing.T) (*Registry, *config.Paths) {
	t.Helper()
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	return NewRegistry(paths, infrastructure.DiscardLogger()), paths
}

func TestRegistry_EnsureDefaults(t *testing.T) {
	r, paths := newTestRegistry(t)
	require.NoError(t, r.EnsureDefaults())

	stored, err := r.Alerters()
	require.NoError(t, err)
	assert.Equal(t, DefaultAlerters(), stored)

	data, err := os.ReadFile(paths.AlertersFile)
	require.NoError(t, err)
	var raw map[string][]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []string{"Mufasa", ":lion_face:"}, raw["mufasa"])

	channels, err := r.Channels()
	require.NoError(t, err)
	assert.Empty(t, channels)
	assert.FileExists(t, paths.ChannelsFile)

	require.NoError(t, r.DeleteAlerters("skull"))
	require.NoError(t, r.EnsureDefaults())
	stored, err = r.Alerters()
	require.NoError(t, err)
	assert.NotContains(t, stored, "skull", "existing storage is not reseeded")
}

func TestRegistry_Channels(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.StoreChannels(map[string]string{
		"ops":  "https://hooks.slack.com/services/T/B/1",
		"data": "https://hooks.slack.com/services/T/B/2",
	}))
	require.NoError(t, r.StoreChannels(map[string]string{"ops": "https://hooks.slack.com/services/T/B/3"}))

	url, err := r.Webhook("ops")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/3", url)

	require.NoError(t, r.DeleteChannels("data", "never-stored"))
	channels, err := r.Channels()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ops": "https://hooks.slack.com/services/T/B/3"}, channels)

	_, err = r.Webhook("data")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestRegistry_StoreAlertersConflict(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.StoreDefaultAlerters(false))

	err := r.StoreAlerters(map[string]Alerter{"robot": {Username: "Robo", Emoji: ":robot_face:"}}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlerterConflict)
	assert.Equal(t, apperrors.ErrTypeConflict, apperrors.TypeOf(err))

	a, err := r.Alerter("robot")
	require.NoError(t, err)
	assert.Equal(t, "Alert_Bot", a.Username, "conflicting store leaves storage unchanged")

	require.NoError(t, r.StoreDefaultAlerters(false), "identical definitions do not conflict")

	require.NoError(t, r.StoreAlerters(map[string]Alerter{
		"robot": {Username: "Robo", Emoji: ":robot_face:"},
		"owl":   {Username: "Night", Emoji: ":owl:"},
	}, true))
	a, err = r.Alerter("robot")
	require.NoError(t, err)
	assert.Equal(t, "Robo", a.Username)

	_, err = r.Alerter("missing")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestRegistry_CorruptFile(t *testing.T) {
	r, paths := newTestRegistry(t)
	require.NoError(t, os.MkdirAll(paths.BaseDir, 0755))
	require.NoError(t, os.WriteFile(paths.AlertersFile, []byte(`{"bad": ["only-one"]}`), 0600))

	_, err := r.Alerters()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestAlertText(t *testing.T) {
	text := NewAlertText("nightly load failed")
	assert.True(t, text.Active)
	assert.Equal(t, "nightly load failed", text.String())
}
