package config

import (
	"fmt"
	"strconv"
	"strings"

	"fanpool/models"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStakeTierCoefficients is tier 1 (full commitment) down to tier 3 (minimal)
	DefaultStakeTierCoefficients = "1=1.0,2=0.7,3=0.3"

	// DefaultParticipationTiers maps a scan's participation type to tier:multiplier
	DefaultParticipationTiers = "watch_only=2:0.7,watch_and_party=3:1.0"
)

// ParseStakeTierCoefficients parses "tier=coefficient" pairs, e.g. "1=1.0,2=0.7,3=0.3".
// Every tier from 1 to 3 must be present and coefficients must lie in (0, 1].
func ParseStakeTierCoefficients(raw string) (map[int]decimal.Decimal, error) {
	result := make(map[int]decimal.Decimal, 3)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		tier, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || tier < 1 || tier > 3 {
			return nil, fmt.Errorf("invalid tier %q", key)
		}
		coefficient, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid coefficient for tier %d: %w", tier, err)
		}
		if !coefficient.IsPositive() || coefficient.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("coefficient for tier %d must be in (0, 1]", tier)
		}
		if !models.WithinScale(coefficient, models.TierMultiplierScale) {
			return nil, fmt.Errorf("coefficient for tier %d has more than %d decimal places", tier, models.TierMultiplierScale)
		}
		result[tier] = coefficient
	}

	for tier := 1; tier <= 3; tier++ {
		if _, ok := result[tier]; !ok {
			return nil, fmt.Errorf("missing coefficient for tier %d", tier)
		}
	}
	return result, nil
}

// ParseParticipationTiers parses "type=tier:multiplier" pairs,
// e.g. "watch_only=2:0.7,watch_and_party=3:1.0".
func ParseParticipationTiers(raw string) (map[string]ParticipationTier, error) {
	result := make(map[string]ParticipationTier)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, rule, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		tierStr, multiplierStr, ok := strings.Cut(rule, ":")
		if !ok {
			return nil, fmt.Errorf("malformed tier rule %q", rule)
		}
		tier, err := strconv.Atoi(strings.TrimSpace(tierStr))
		if err != nil || tier < 1 || tier > 3 {
			return nil, fmt.Errorf("invalid tier %q for %s", tierStr, name)
		}
		multiplier, err := decimal.NewFromString(strings.TrimSpace(multiplierStr))
		if err != nil || !multiplier.IsPositive() {
			return nil, fmt.Errorf("invalid multiplier %q for %s", multiplierStr, name)
		}
		if !models.WithinScale(multiplier, models.TierMultiplierScale) {
			return nil, fmt.Errorf("multiplier for %s has more than %d decimal places", name, models.TierMultiplierScale)
		}
		result[strings.TrimSpace(name)] = ParticipationTier{Tier: tier, Multiplier: multiplier}
	}

	for _, required := range []string{"watch_only", "watch_and_party"} {
		if _, ok := result[required]; !ok {
			return nil, fmt.Errorf("missing participation tier for %s", required)
		}
	}
	return result, nil
}
