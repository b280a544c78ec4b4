// Package ranking provides the multi-factor post scoring model used by
// feed generation, with calibration support for deploy-time tuning.
//
// Basic Usage:
//
//	// Load configuration (typically at startup)
//	cfg, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default ranking config", "error", err)
//	}
//
//	scorer := ranking.NewScorer(cfg)
//	score := scorer.Score(post, viewer, seenAuthors)
//
// Score Factors:
//
// Five independent factor functions each map a candidate post (and an
// optional viewer) to a normalized [0, 1] sub-score: RecencyScore,
// EngagementScore, RelationshipScore, QualityScore, and RelevanceScore.
// All of them are total over their domain; missing optional fields take an
// explicit fallback branch rather than failing.
//
// Combining:
//
// Scorer.Score combines the factors as a weighted sum (weights summing to
// 1.0), applies multiplicative freshness/popularity/novelty boosts in a
// fixed order, scales to 0-100, and clamps.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of weights, boosts, and
// thresholds via JSON configuration files loaded at startup. Partial files
// are merged over defaults for graceful degradation.
package ranking
