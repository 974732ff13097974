package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/pkg/logger"
)

// randomInt returns a uniform integer in [lo, hi] using crypto/rand.
func randomInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo+1)))
	if err != nil {
		return lo
	}
	return lo + int(n.Int64())
}

// generateProfiles creates NumProfiles random valid profiles.
func generateProfiles(ctx context.Context, config *Config, stats *Stats) ([]Profile, error) {
	logger.Get().Info(ctx, "generating profiles", logger.Int("numProfiles", config.NumProfiles))

	if config.NumProfiles <= 0 {
		return nil, ErrNoProfiles
	}

	specs := profile.Fields()
	profiles := make([]Profile, config.NumProfiles)

	type profileResult struct {
		index   int
		profile Profile
		err     error
	}

	resultChan := make(chan profileResult, config.NumProfiles)

	workerCount := minInt(max(config.Workers, 1), config.NumProfiles)
	perWorker := config.NumProfiles / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumProfiles // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- profileResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- profileResult{index: i, profile: randomProfile(specs)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumProfiles; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during profile generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate profile %d: %w", result.index, result.err)
			}
			profiles[result.index] = result.profile
		}
	}

	stats.ProfilesGenerated = len(profiles)
	logger.Get().Info(ctx, "generated profiles", logger.Int("count", len(profiles)))

	return profiles, nil
}

// randomProfile draws every field uniformly from its declared domain.
func randomProfile(specs []profile.FieldSpec) Profile {
	p := make(Profile, len(specs))
	for _, f := range specs {
		switch f.Kind {
		case profile.KindInteger:
			p[f.Name] = randomInt(f.Min, f.Max)
		case profile.KindCategorical:
			p[f.Name] = f.Values[randomInt(0, len(f.Values)-1)]
		}
	}
	return p
}

// invalidCase is a profile the service must reject on Field.
type invalidCase struct {
	Name    string
	Field   string
	Profile Profile
}

// invalidProfiles derives one broken profile per rule from a valid base.
func invalidProfiles(base Profile) []invalidCase {
	mutate := func(name, field string, fn func(p Profile)) invalidCase {
		p := make(Profile, len(base))
		for k, v := range base {
			p[k] = v
		}
		fn(p)
		return invalidCase{Name: name, Field: field, Profile: p}
	}

	return []invalidCase{
		mutate("age below range", profile.FieldAge, func(p Profile) { p[profile.FieldAge] = 17 }),
		mutate("age above range", profile.FieldAge, func(p Profile) { p[profile.FieldAge] = 101 }),
		mutate("fractional income", profile.FieldIncomeLakhs, func(p Profile) { p[profile.FieldIncomeLakhs] = 10.5 }),
		mutate("genetical risk out of range", profile.FieldGeneticalRisk, func(p Profile) { p[profile.FieldGeneticalRisk] = 6 }),
		mutate("numeric as string", profile.FieldDependants, func(p Profile) { p[profile.FieldDependants] = "two" }),
		mutate("unknown plan", profile.FieldInsurancePlan, func(p Profile) { p[profile.FieldInsurancePlan] = "Platinum" }),
		mutate("unknown region", profile.FieldRegion, func(p Profile) { p[profile.FieldRegion] = "Central" }),
		mutate("missing smoking status", profile.FieldSmokingStatus, func(p Profile) { delete(p, profile.FieldSmokingStatus) }),
		mutate("unknown key", "Height", func(p Profile) { p["Height"] = 180 }),
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
