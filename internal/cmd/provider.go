package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/assess"
	"github.com/MeKo-Tech/sitescout/internal/datasource"
	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/spf13/viper"
)

const (
	defaultAssessTimeout = 30 * time.Second
	defaultModelHint     = assess.DefaultGeminiModel
)

// apiKey resolves the Gemini credential: config or flag first, then the
// GEMINI_API_KEY and API_KEY environment variables.
func apiKey() string {
	if k := viper.GetString("assess.api_key"); k != "" {
		return k
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("API_KEY")
}

// randSource returns the seeded source for synthetic values, or the global
// one when seed is 0.
func randSource() geo.Source {
	if seed := viper.GetInt64("seed"); seed != 0 {
		return geo.Locked(geo.NewSource(uint64(seed)))
	}
	return geo.DefaultSource()
}

// remoteProvider builds the configured remote provider. It returns nil when
// the synthetic generator is selected or no Gemini credential is present.
func remoteProvider() (assess.Provider, error) {
	switch name := viper.GetString("assess.provider"); name {
	case "", "gemini":
		key := apiKey()
		if key == "" {
			logger.Warn("no Gemini API key configured, assessments will be synthetic")
			return nil, nil
		}
		return assess.NewGeminiProvider(assess.GeminiConfig{
			APIKey:   key,
			Endpoint: viper.GetString("assess.endpoint"),
			Model:    viper.GetString("assess.model"),
			Region:   viper.GetString("assess.region"),
		})
	case "overpass":
		src := datasource.NewOverpassDataSource(viper.GetString("overpass.endpoint"), &http.Client{Timeout: 2 * time.Minute})
		return assess.NewOverpassProvider(src), nil
	case "synthetic":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported assessment provider: %s", name)
	}
}

// newAdapter builds the assessment adapter from configuration.
func newAdapter(rng geo.Source) (*assess.Adapter, error) {
	remote, err := remoteProvider()
	if err != nil {
		return nil, err
	}

	adapter := assess.NewAdapter(assess.Config{
		Remote:      remote,
		Fallback:    assess.NewSynthetic(rng),
		Timeout:     viper.GetDuration("assess.timeout"),
		RateLimit:   viper.GetFloat64("assess.rate_limit"),
		BreakerName: viper.GetString("assess.provider"),
		Logger:      logger,
	})

	logger.Debug("assessment adapter ready",
		"provider", viper.GetString("assess.provider"),
		"remote", adapter.HasRemote(),
	)
	return adapter, nil
}
