package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"parley/internal/config"
	"parley/internal/llm"
)

const settingsKey = "settings"

// Settings holds the dynamic application settings stored in the database.
type Settings struct {
	SystemPrompt     string   `json:"system_prompt"`
	MainModel        string   `json:"main_model"`
	ComparisonModels []string `json:"comparison_models"`
	SupportModel     string   `json:"support_model"`
}

// SettingsService persists settings as a JSON blob in the key/value
// settings table and validates model choices against the gateway's table.
type SettingsService struct {
	db       *sql.DB
	registry *llm.Registry
}

func NewSettingsService(db *sql.DB, registry *llm.Registry) *SettingsService {
	return &SettingsService{db: db, registry: registry}
}

// InitAndGet implements the "smart initialization" logic: reuse stored
// settings when present, otherwise pick a default model from the gateway's
// table (falling back to the bootstrap config when the gateway is down).
func (s *SettingsService) InitAndGet(ctx context.Context, bootstrap *config.BootstrapConfig) (*Settings, error) {
	settings, err := s.Get(ctx)
	if err == nil {
		slog.Info("Found existing settings in database.")
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	slog.Info("No settings found. Performing smart initialization...")

	defaultModel := bootstrap.MainModel
	list, err := s.registry.Models(ctx)
	if err != nil {
		slog.Warn("Could not reach gateway for model list during init, using bootstrap default.", "error", err)
	} else if len(list.Models) == 0 {
		slog.Warn("Gateway reports no models, using bootstrap default.")
	} else if defaultModel == "" {
		m := list.Models[0]
		defaultModel = llm.TargetKey(m.ProviderID, m.ID)
		slog.Info("Automatically selected default model from gateway.", "model", defaultModel)
	}

	initial := &Settings{
		SystemPrompt: bootstrap.SystemPrompt,
		MainModel:    defaultModel,
		SupportModel: defaultModel,
	}
	if err := s.save(ctx, initial); err != nil {
		return nil, fmt.Errorf("failed to save initial settings: %w", err)
	}
	slog.Info("Successfully initialized and saved new settings.")
	return initial, nil
}

// Get retrieves the current settings.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", settingsKey).Scan(&raw)
	if err != nil {
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save is the public method for saving settings, which includes validation
// of every chosen model against the gateway's table.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	list, err := s.registry.Models(ctx)
	if err != nil {
		slog.Warn("Could not list models for validation, saving settings without check.", "error", err)
	} else {
		known := make([]string, 0, len(list.Models))
		for _, m := range list.Models {
			known = append(known, llm.TargetKey(m.ProviderID, m.ID), m.ID)
		}
		if !slices.Contains(known, settings.MainModel) {
			return fmt.Errorf("main model '%s' not known to the gateway", settings.MainModel)
		}
		if settings.SupportModel != "" && !slices.Contains(known, settings.SupportModel) {
			return fmt.Errorf("support model '%s' not known to the gateway", settings.SupportModel)
		}
		for _, target := range settings.ComparisonModels {
			if !slices.Contains(known, target) {
				return fmt.Errorf("comparison model '%s' not known to the gateway", target)
			}
		}
	}
	return s.save(ctx, settings)
}

// save writes the JSON blob without validation.
func (s *SettingsService) save(ctx context.Context, settings *Settings) error {
	val, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		settingsKey, string(val))
	return err
}
