package config

import (
	"fmt"
	"sort"

	"nfl-pool/models"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// poolFile mirrors the YAML layout of the pool settings seed file:
//
//	seasons:
//	  - season: 2024
//	    synthetic_participant_id: favorites
//	    legacy_tie_break: false
//	    inter_week_delay: 2s
type poolFile struct {
	Seasons []models.PoolSettings `koanf:"seasons"`
}

// LoadPoolSettingsFile reads per-season pool settings from a YAML seed file.
// Entries are returned in season order; duplicate seasons are rejected.
func LoadPoolSettingsFile(path string) ([]models.PoolSettings, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load pool settings file %s: %w", path, err)
	}

	var pf poolFile
	if err := k.UnmarshalWithConf("", &pf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse pool settings file %s: %w", path, err)
	}

	seen := make(map[int]bool, len(pf.Seasons))
	for _, s := range pf.Seasons {
		if s.Season == 0 {
			return nil, fmt.Errorf("pool settings entry without a season in %s", path)
		}
		if seen[s.Season] {
			return nil, fmt.Errorf("duplicate pool settings for season %d in %s", s.Season, path)
		}
		if s.InterWeekDelay < 0 {
			return nil, fmt.Errorf("season %d: inter_week_delay must not be negative", s.Season)
		}
		seen[s.Season] = true
	}

	sort.Slice(pf.Seasons, func(i, j int) bool { return pf.Seasons[i].Season < pf.Seasons[j].Season })
	return pf.Seasons, nil
}
