package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines the linear combination weights for the five score
// factors. The defaults sum to 1.0 so the combined pre-boost score stays
// in [0, 1].
type Weights struct {
	Recency      float64 `json:"recency"`      // Weight for time decay (default: 0.20)
	Engagement   float64 `json:"engagement"`   // Weight for interaction volume (default: 0.25)
	Relationship float64 `json:"relationship"` // Weight for follow-graph affinity (default: 0.25)
	Quality      float64 `json:"quality"`      // Weight for content signals (default: 0.15)
	Relevance    float64 `json:"relevance"`    // Weight for the relevance stub (default: 0.15)
}

// Boosts defines the multiplicative post-hoc adjustments applied after the
// weighted sum. They compound in a fixed order: freshness, popularity,
// novelty.
type Boosts struct {
	FreshHour           float64 `json:"fresh_hour"`           // Multiplier for posts under 1h old (default: 1.5)
	FreshSixHours       float64 `json:"fresh_six_hours"`      // Multiplier for posts under 6h old (default: 1.2)
	Popular             float64 `json:"popular"`              // Multiplier above the popularity threshold (default: 1.3)
	PopularityThreshold float64 `json:"popularity_threshold"` // Stored popularity score cutoff (default: 100)
	Novelty             float64 `json:"novelty"`              // Multiplier for unseen authors (default: 1.1)
}

// Decay parameterizes the exponential recency factor.
type Decay struct {
	HalfLifeHours float64 `json:"half_life_hours"` // Hours per half-life unit (default: 24)
	Factor        float64 `json:"factor"`          // Decay applied per half-life (default: 0.5)
}

// Diversity caps repetition in the sampled pool.
type Diversity struct {
	MaxPerAuthor int `json:"max_per_author"` // Max posts per author in a page pool (default: 2)
	MaxPerTag    int `json:"max_per_tag"`    // Max posts sharing one tag (default: 3)
}

// Config is the immutable tuning configuration injected into the feed
// engine at construction. Tests can build alternate tunings without
// cross-test interference.
type Config struct {
	Weights   Weights   `json:"weights"`
	Boosts    Boosts    `json:"boosts"`
	Decay     Decay     `json:"decay"`
	Diversity Diversity `json:"diversity"`

	// MinScore filters scored candidates below this value. It is compared
	// against the final 0-100 scaled score; the default of 0.1 therefore
	// only excludes near-zero scores. Preserved as-is pending a product
	// decision on the intended scale.
	MinScore float64 `json:"min_score"`

	// CandidateMultiplier sizes the retrieval pool at multiplier*limit.
	CandidateMultiplier int `json:"candidate_multiplier"`

	// SampleMultiplier sizes the diversity-sampled pool at multiplier*limit.
	SampleMultiplier int `json:"sample_multiplier"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string `json:"version"` // Config version for future compatibility
	Config  Config `json:"config"`  // Tuning overrides
}

// DefaultConfig returns the default feed ranking configuration.
//
// Combined formula: total = (recency * 0.20) + (engagement * 0.25) +
// (relationship * 0.25) + (quality * 0.15) + (relevance * 0.15), followed by
// freshness/popularity/novelty boosts and scaling to 0-100.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Recency:      0.20,
			Engagement:   0.25,
			Relationship: 0.25,
			Quality:      0.15,
			Relevance:    0.15,
		},
		Boosts: Boosts{
			FreshHour:           1.5,
			FreshSixHours:       1.2,
			Popular:             1.3,
			PopularityThreshold: 100,
			Novelty:             1.1,
		},
		Decay: Decay{
			HalfLifeHours: 24,
			Factor:        0.5,
		},
		Diversity: Diversity{
			MaxPerAuthor: 2,
			MaxPerTag:    3,
		},
		MinScore:            0.1,
		CandidateMultiplier: 3,
		SampleMultiplier:    2,
	}
}

// LoadCalibration loads a ranking configuration from a JSON calibration
// file. Partial configurations are merged with defaults for graceful
// degradation; on any error the defaults are returned alongside the error.
func LoadCalibration(filePath string) (*Config, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultConfig(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var calibration CalibrationConfig
	if err := json.Unmarshal(data, &calibration); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultConfig(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultConfig()
	merged := MergeCalibration(defaults, &calibration.Config)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override values onto a base configuration. Only
// non-zero values from the override are applied, which allows partial
// calibration files.
func MergeCalibration(base *Config, override *Config) *Config {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultConfig()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	mergeFloat(&result.Weights.Recency, override.Weights.Recency)
	mergeFloat(&result.Weights.Engagement, override.Weights.Engagement)
	mergeFloat(&result.Weights.Relationship, override.Weights.Relationship)
	mergeFloat(&result.Weights.Quality, override.Weights.Quality)
	mergeFloat(&result.Weights.Relevance, override.Weights.Relevance)

	mergeFloat(&result.Boosts.FreshHour, override.Boosts.FreshHour)
	mergeFloat(&result.Boosts.FreshSixHours, override.Boosts.FreshSixHours)
	mergeFloat(&result.Boosts.Popular, override.Boosts.Popular)
	mergeFloat(&result.Boosts.PopularityThreshold, override.Boosts.PopularityThreshold)
	mergeFloat(&result.Boosts.Novelty, override.Boosts.Novelty)

	mergeFloat(&result.Decay.HalfLifeHours, override.Decay.HalfLifeHours)
	mergeFloat(&result.Decay.Factor, override.Decay.Factor)

	mergeInt(&result.Diversity.MaxPerAuthor, override.Diversity.MaxPerAuthor)
	mergeInt(&result.Diversity.MaxPerTag, override.Diversity.MaxPerTag)

	mergeFloat(&result.MinScore, override.MinScore)
	mergeInt(&result.CandidateMultiplier, override.CandidateMultiplier)
	mergeInt(&result.SampleMultiplier, override.SampleMultiplier)

	return &result
}

func mergeFloat(dst *float64, override float64) {
	if override != 0 {
		*dst = override
	}
}

func mergeInt(dst *int, override int) {
	if override != 0 {
		*dst = override
	}
}

// logCalibrationOverrides logs which values were overridden from defaults.
func logCalibrationOverrides(defaults *Config, loaded *Config) {
	var overrides []string

	check := func(name string, def, got float64) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, def, got))
		}
	}
	checkInt := func(name string, def, got int) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %d -> %d", name, def, got))
		}
	}

	check("weights.recency", defaults.Weights.Recency, loaded.Weights.Recency)
	check("weights.engagement", defaults.Weights.Engagement, loaded.Weights.Engagement)
	check("weights.relationship", defaults.Weights.Relationship, loaded.Weights.Relationship)
	check("weights.quality", defaults.Weights.Quality, loaded.Weights.Quality)
	check("weights.relevance", defaults.Weights.Relevance, loaded.Weights.Relevance)
	check("boosts.fresh_hour", defaults.Boosts.FreshHour, loaded.Boosts.FreshHour)
	check("boosts.fresh_six_hours", defaults.Boosts.FreshSixHours, loaded.Boosts.FreshSixHours)
	check("boosts.popular", defaults.Boosts.Popular, loaded.Boosts.Popular)
	check("boosts.popularity_threshold", defaults.Boosts.PopularityThreshold, loaded.Boosts.PopularityThreshold)
	check("boosts.novelty", defaults.Boosts.Novelty, loaded.Boosts.Novelty)
	check("decay.half_life_hours", defaults.Decay.HalfLifeHours, loaded.Decay.HalfLifeHours)
	check("decay.factor", defaults.Decay.Factor, loaded.Decay.Factor)
	checkInt("diversity.max_per_author", defaults.Diversity.MaxPerAuthor, loaded.Diversity.MaxPerAuthor)
	checkInt("diversity.max_per_tag", defaults.Diversity.MaxPerTag, loaded.Diversity.MaxPerTag)
	check("min_score", defaults.MinScore, loaded.MinScore)
	checkInt("candidate_multiplier", defaults.CandidateMultiplier, loaded.CandidateMultiplier)
	checkInt("sample_multiplier", defaults.SampleMultiplier, loaded.SampleMultiplier)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
