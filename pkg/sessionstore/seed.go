package sessionstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// SessionYAML represents a session in a YAML seed file.
type SessionYAML struct {
	ID          string `yaml:"id"`
	CandidateID string `yaml:"candidate_id,omitempty"`
	Position    string `yaml:"position,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

// SeedConfig is the top-level YAML seed file for sessions.
type SeedConfig struct {
	Sessions []SessionYAML `yaml:"sessions"`
}

// LoadSeedFile reads a sessions YAML file and creates any sessions that do not
// exist yet. Existing sessions are left untouched.
func LoadSeedFile(ctx context.Context, path string, st Store) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("sessionstore: read seed file: %w", err)
	}
	return SeedFromYAML(ctx, data, st)
}

// SeedFromYAML parses YAML data and creates missing sessions in the store.
func SeedFromYAML(ctx context.Context, data []byte, st Store) error {
	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("sessionstore: parse seed file: %w", err)
	}

	created := 0
	for _, s := range cfg.Sessions {
		existing, err := st.Get(ctx, s.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		status := model.SessionStatus(s.Status)
		if s.Status == "" {
			status = model.StatusScheduled
		}
		rec := &model.SessionRecord{
			ID:          s.ID,
			CandidateID: s.CandidateID,
			Position:    s.Position,
			Status:      status,
		}
		if err := st.Create(ctx, rec); err != nil {
			slog.Error("failed to seed session", "id", s.ID, "err", err)
			continue
		}
		created++
	}

	slog.Info("seeded sessions from YAML", "total", len(cfg.Sessions), "created", created)
	return nil
}
