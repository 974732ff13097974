package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/premium/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete load run: readiness, generation, submission,
// determinism and rejection checks.
func Run(ctx context.Context, config *Config) error {
	_, err := run(ctx, config)
	return err
}

func run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	if config.Workers <= 0 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting premium load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("profiles", config.NumProfiles),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	if err := checkServiceReady(ctx, config); err != nil {
		return stats, fmt.Errorf("service readiness check failed: %w", err)
	}

	profiles, err := generateProfiles(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("profile generation failed: %w", err)
	}

	first := submitProfiles(ctx, config, profiles, stats)

	var errs []error
	if err := verifyDeterminism(ctx, config, profiles, first, stats); err != nil {
		errs = append(errs, err)
	}
	if err := verifyRejections(ctx, config, profiles[0], stats); err != nil {
		errs = append(errs, err)
	}

	if config.OutputFile != "" {
		if err := saveProfilesToFile(ctx, config.OutputFile, profiles); err != nil {
			logger.Get().Warn(ctx, "failed to save profiles to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if err := errors.Join(errs...); err != nil {
		return stats, err
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceReady verifies the estimator has loaded its artifact.
func checkServiceReady(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service readiness")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/readyz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is ready")
	return nil
}

// saveProfilesToFile writes the generated profiles as a JSON array.
func saveProfilesToFile(ctx context.Context, filename string, profiles []Profile) error {
	if len(profiles) == 0 {
		return ErrNoProfiles
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "profiles saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, requestsPerSecond, meanPremium float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	if stats.Successful > 0 {
		meanPremium = stats.SumPremium / float64(stats.Successful)
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("profilesGenerated", stats.ProfilesGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("cached", stats.CachedResponses),
		logger.Int("determinismChecked", stats.DeterminismChecked),
		logger.Int("determinismMismatches", stats.DeterminismMismatches),
		logger.Int("invalidSubmitted", stats.InvalidSubmitted),
		logger.Int("invalidRejected", stats.InvalidRejected),
		logger.Float64("minPremium", stats.MinPremium),
		logger.Float64("maxPremium", stats.MaxPremium),
		logger.Float64("meanPremium", meanPremium),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
