package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// verifyDeterminism resubmits up to DeterminismSampleSize successful profiles
// and requires each to price exactly as before.
func verifyDeterminism(ctx context.Context, config *Config, profiles []Profile, first []submission, stats *Stats) error {
	log.Println("verifying determinism...")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	var mismatches int
	for i, p := range profiles {
		if stats.DeterminismChecked >= DeterminismSampleSize {
			break
		}
		if !first[i].ok {
			continue
		}
		again, err := submitSingleProfile(ctx, client, url, p)
		if err != nil {
			return fmt.Errorf("resubmit profile %d: %w", i, err)
		}
		stats.DeterminismChecked++
		if again.premium != first[i].premium {
			mismatches++
			log.Printf("profile %d priced %.2f then %.2f", i, first[i].premium, again.premium)
		}
	}

	stats.DeterminismMismatches = mismatches
	if mismatches > 0 {
		return fmt.Errorf("%w: %d of %d", ErrNondeterministic, mismatches, stats.DeterminismChecked)
	}

	log.Printf("determinism verified on %d profiles", stats.DeterminismChecked)
	return nil
}

// verifyRejections submits invalid variants of base and requires a 422 naming the broken field.
func verifyRejections(ctx context.Context, config *Config, base Profile, stats *Stats) error {
	log.Println("verifying rejection of invalid profiles...")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	var missed []string
	for _, c := range invalidProfiles(base) {
		stats.InvalidSubmitted++
		status, body, err := client.postJSON(ctx, url, c.Profile)
		if err != nil {
			return fmt.Errorf("submit %q: %w", c.Name, err)
		}

		var resp ErrorResponse
		_ = json.Unmarshal(body, &resp)
		if status == StatusUnprocessableEntity && resp.Field == c.Field {
			stats.InvalidRejected++
			if config.Verbose {
				log.Printf("rejected %s: %s", c.Name, resp.Message)
			}
			continue
		}
		missed = append(missed, fmt.Sprintf("%s (HTTP %d, field %q)", c.Name, status, resp.Field))
	}

	if len(missed) > 0 {
		return fmt.Errorf("%w: %v", ErrNotRejected, missed)
	}

	log.Printf("all %d invalid profiles rejected", stats.InvalidRejected)
	return nil
}
