package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

type ScoringConfig struct {
	ClassifierURL  string
	MatchEngineURL string
	Timeout        time.Duration
}

var (
	scoringConfig *ScoringConfig
	scoringOnce   sync.Once
)

func LoadScoringConfig() *ScoringConfig {
	scoringOnce.Do(func() {
		classifierURL := os.Getenv("CLASSIFIER_URL")
		if classifierURL == "" {
			classifierURL = "http://localhost:5001/classify"
		}
		matchEngineURL := os.Getenv("MATCH_ENGINE_URL")
		if matchEngineURL == "" {
			matchEngineURL = "http://localhost:5000/match"
		}
		timeout := 5 * time.Second
		if v := os.Getenv("SCORING_TIMEOUT_SECONDS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				timeout = time.Duration(n) * time.Second
			}
		}
		scoringConfig = &ScoringConfig{
			ClassifierURL:  classifierURL,
			MatchEngineURL: matchEngineURL,
			Timeout:        timeout,
		}
	})
	return scoringConfig
}
