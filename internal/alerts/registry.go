package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
)

// ErrAlerterConflict is returned when storing would redefine an alerter
var ErrAlerterConflict = errors.New("alerter conflict")

// Registry persists channels and alerters as JSON files
type Registry struct {
	mu           sync.Mutex
	alertersFile string
	channelsFile string
	logger       *slog.Logger
}

// NewRegistry creates a registry backed by the files in paths
func NewRegistry(paths *config.Paths, logger *slog.Logger) *Registry {
	return &Registry{
		alertersFile: paths.AlertersFile,
		channelsFile: paths.ChannelsFile,
		logger:       logger.With(slog.String("component", "alerts_registry")),
	}
}

// EnsureDefaults creates missing storage files, seeding the default alerters
func (r *Registry) EnsureDefaults() error {
	if _, err := os.Stat(r.alertersFile); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("No stored alerters found, creating storage", slog.String("path", r.alertersFile))
		if err := r.StoreDefaultAlerters(false); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := os.Stat(r.channelsFile); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("No stored channels found, creating storage", slog.String("path", r.channelsFile))
		return writeJSON(r.channelsFile, map[string]string{})
	}
	return nil
}

// Alerters returns every stored alerter
func (r *Registry) Alerters() (map[string]Alerter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadAlerters()
}

// Alerter returns one stored alerter
func (r *Registry) Alerter(id string) (Alerter, error) {
	stored, err := r.Alerters()
	if err != nil {
		return Alerter{}, err
	}
	a, ok := stored[id]
	if !ok {
		return Alerter{}, apperrors.NewNotFoundError(fmt.Sprintf("alerter %q", id)).WithContext("alerter", id)
	}
	return a, nil
}

// Channels returns every stored channel and its webhook URL
func (r *Registry) Channels() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadChannels()
}

// Webhook returns the webhook URL of a stored channel
func (r *Registry) Webhook(channel string) (string, error) {
	stored, err := r.Channels()
	if err != nil {
		return "", err
	}
	url, ok := stored[channel]
	if !ok {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("channel %q", channel)).WithContext("channel", channel)
	}
	return url, nil
}

// StoreChannels merges channels into storage, replacing existing ids
func (r *Registry) StoreChannels(channels map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadChannels()
	if err != nil {
		return err
	}
	for id, url := range channels {
		stored[id] = url
	}
	return writeJSON(r.channelsFile, stored)
}

// DeleteChannels removes channels; unknown ids are ignored
func (r *Registry) DeleteChannels(ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadChannels()
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(stored, id)
	}
	return writeJSON(r.channelsFile, stored)
}

// StoreAlerters merges alerters into storage. Redefining a stored alerter
// fails with ErrAlerterConflict unless overwrite is set; storing an
// identical definition is not a conflict.
func (r *Registry) StoreAlerters(alerters map[string]Alerter, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadAlerters()
	if err != nil {
		return err
	}

	if !overwrite {
		var conflicts []string
		for id, a := range alerters {
			if prev, ok := stored[id]; ok && prev != a {
				conflicts = append(conflicts, id)
			}
		}
		if len(conflicts) > 0 {
			sort.Strings(conflicts)
			return apperrors.NewConflictError(
				fmt.Sprintf("storing would overwrite alerters %s", strings.Join(conflicts, ", ")), ErrAlerterConflict).
				WithContext("alerters", conflicts)
		}
	}

	for id, a := range alerters {
		stored[id] = a
	}
	return writeJSON(r.alertersFile, stored)
}

// StoreDefaultAlerters stores the alerters from DefaultAlerters
func (r *Registry) StoreDefaultAlerters(overwrite bool) error {
	return r.StoreAlerters(DefaultAlerters(), overwrite)
}

// DeleteAlerters removes alerters; unknown ids are ignored
func (r *Registry) DeleteAlerters(ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadAlerters()
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(stored, id)
	}
	return writeJSON(r.alertersFile, stored)
}

func (r *Registry) loadAlerters() (map[string]Alerter, error) {
	stored := make(map[string]Alerter)
	if err := readJSON(r.alertersFile, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *Registry) loadChannels() (map[string]string, error) {
	stored := make(map[string]string)
	if err := readJSON(r.channelsFile, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// readJSON leaves v untouched when the file does not exist
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode registry", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
