package config

import (
	"os"
	"strconv"
	"strings"
)

// rankEnvVars are consulted in order when no explicit rank is configured.
// They cover torchrun-style launchers, SLURM and LSF/JSM.
var rankEnvVars = []string{"RANK", "LOCAL_RANK", "SLURM_PROCID", "JSM_NAMESPACE_RANK"}

// ResolveRank returns the process rank: Dist.Rank when non-negative,
// otherwise the first parseable launcher variable, otherwise 0.
func (c Config) ResolveRank() int {
	if c.Dist.Rank >= 0 {
		return c.Dist.Rank
	}

	return rankFromEnv(os.LookupEnv)
}

func rankFromEnv(lookup func(string) (string, bool)) int {
	for _, key := range rankEnvVars {
		raw, ok := lookup(key)
		if !ok {
			continue
		}

		rank, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || rank < 0 {
			continue
		}

		return rank
	}

	return 0
}

// IsPrimary reports whether rank identifies the process that performs I/O.
func IsPrimary(rank int) bool {
	return rank == 0
}
