package drift

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/facsexne/facsexne/internal/constants"
)

// pcgStream selects the PCG increment. It is fixed so a seed alone
// determines the stream.
const pcgStream = 0x9e3779b97f4a7c15

// SeedSource names where a run's seed came from.
type SeedSource string

const (
	SeedExplicit   SeedSource = "explicit"
	SeedFromEnv    SeedSource = "env"
	SeedFromConfig SeedSource = "config"
	SeedFromLegacy SeedSource = "legacy-env"
	SeedFromClock  SeedSource = "clock"
)

// NewSource returns a deterministic random source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgStream)
}

// ResolveSeed picks the run's seed: the flag seed, then FACSEXNE_SEED,
// then the configured seed, then GSL_RNG_SEED, then the wall clock.
// Blank variables are skipped. getenv is usually os.Getenv.
func ResolveSeed(flag, configured *uint64, getenv func(string) string) (uint64, SeedSource, error) {
	if flag != nil {
		return *flag, SeedExplicit, nil
	}

	if v := strings.TrimSpace(getenv(constants.SeedEnvVar)); v != "" {
		seed, err := ParseSeed(v)
		if err != nil {
			return 0, "", fmt.Errorf("invalid %s: %w", constants.SeedEnvVar, err)
		}
		return seed, SeedFromEnv, nil
	}

	if configured != nil {
		return *configured, SeedFromConfig, nil
	}

	if v := strings.TrimSpace(getenv(constants.LegacySeedEnvVar)); v != "" {
		seed, err := ParseSeed(v)
		if err != nil {
			return 0, "", fmt.Errorf("invalid %s: %w", constants.LegacySeedEnvVar, err)
		}
		return seed, SeedFromLegacy, nil
	}

	return uint64(time.Now().UnixNano()), SeedFromClock, nil
}

// ParseSeed parses a decimal or 0x-prefixed unsigned seed.
func ParseSeed(s string) (uint64, error) {
	seed, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing seed %q: %w", s, err)
	}
	return seed, nil
}
