package refis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
)

// ItemKey derives the identity ("OR") key of a single debt simulation.
// Two simulations of the same underlying debt share the key regardless
// of the payment plan chosen, which is what enables the best-of
// comparison. The key is recomputable from the item fields at any time.
func ItemKey(entity string, profile Profile, category Category, description string, year int, principal decimal.Decimal) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s",
		entity, profile, category, description, year, money.Round(principal).StringFixed(2))
}

// MemberSignature identifies one member inside a group key.
func MemberSignature(description string, year int, principal decimal.Decimal) string {
	return fmt.Sprintf("%d|%s|%s", year, strings.TrimSpace(description), money.Round(principal).StringFixed(2))
}

// GroupKey derives the identity key of a joint negotiation over a set of
// debts. Member signatures are sorted, so the key is independent of
// member ordering.
func GroupKey(entity string, profile Profile, category Category, signatures []string) string {
	sorted := append([]string(nil), signatures...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s|%s|%s|[%s]", entity, profile, category, strings.Join(sorted, ";"))
}

// LegacyGroupKey is the fallback key for imported groups whose member
// set can no longer be resolved.
func LegacyGroupKey(entity string, profile Profile, category Category) string {
	return fmt.Sprintf("%s|%s|%s|[legacy]", entity, profile, category)
}
