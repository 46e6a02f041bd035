package app

import (
	"log/slog"

	"github.com/tgienger/stask/internal/models"
	"github.com/tgienger/stask/internal/store"
)

// Settings keys for persisted view preferences
const (
	settingFilter       = "view.filter"
	settingSortKey      = "view.sort_key"
	settingSortDir      = "view.sort_direction"
	settingSortGrouping = "view.sort_grouping"
)

// loadPrefs overlays any stored preferences on the given defaults. Unset or
// unparsable values keep the default.
func loadPrefs(settings store.Settings, filter models.StatusFilter, sort models.TaskSort, logger *slog.Logger) (models.StatusFilter, models.TaskSort) {
	if settings == nil {
		return filter, sort
	}

	read := func(key string) string {
		v, err := settings.GetSetting(key)
		if err != nil {
			logger.Warn("failed to read setting", slog.String("key", key), slog.Any("error", err))
			return ""
		}
		return v
	}

	if v := read(settingFilter); v != "" {
		if f, err := models.ParseStatusFilter(v); err == nil {
			filter = f
		} else {
			logger.Warn("ignoring stored filter", slog.Any("error", err))
		}
	}
	if v := read(settingSortKey); v != "" {
		if k, err := models.ParseSortKey(v); err == nil {
			sort.Key = k
		} else {
			logger.Warn("ignoring stored sort key", slog.Any("error", err))
		}
	}
	if v := read(settingSortDir); v != "" {
		if d, err := models.ParseSortDirection(v); err == nil {
			sort.Direction = d
		} else {
			logger.Warn("ignoring stored sort direction", slog.Any("error", err))
		}
	}
	if v := read(settingSortGrouping); v != "" {
		if g, err := models.ParseCompletedGrouping(v); err == nil {
			sort.Grouping = g
		} else {
			logger.Warn("ignoring stored grouping", slog.Any("error", err))
		}
	}
	return filter, sort
}

func saveFilter(settings store.Settings, f models.StatusFilter, logger *slog.Logger) {
	if settings == nil {
		return
	}
	if err := settings.SetSetting(settingFilter, f.String()); err != nil {
		logger.Warn("failed to save filter", slog.Any("error", err))
	}
}

func saveSort(settings store.Settings, s models.TaskSort, logger *slog.Logger) {
	if settings == nil {
		return
	}
	pairs := [][2]string{
		{settingSortKey, s.Key.String()},
		{settingSortDir, s.Direction.String()},
		{settingSortGrouping, s.Grouping.String()},
	}
	for _, kv := range pairs {
		if err := settings.SetSetting(kv[0], kv[1]); err != nil {
			logger.Warn("failed to save sort", slog.String("key", kv[0]), slog.Any("error", err))
			return
		}
	}
}
