// Package bundle serialises the whole simulation state to a portable
// JSON document and restores it, healing identity keys that older
// exports left out.
package bundle

import (
	"fmt"

	"github.com/refis-sim/refis-sim/internal/platform/httpx"
	"github.com/refis-sim/refis-sim/internal/refis"
)

// Version is the bundle format version this build writes and accepts.
const Version = 1

// Bundle is the portable snapshot of every stored item and group plus
// the identifier counters, so a restore continues numbering where the
// exporting instance stopped.
type Bundle struct {
	Version     int           `json:"version"`
	Items       []refis.Item  `json:"items"`
	Groups      []refis.Group `json:"groups"`
	NextItemID  int64         `json:"nextItemId,omitempty"`
	NextGroupID int64         `json:"nextGroupId,omitempty"`
}

// Normalize validates the bundle and repairs what older exports may
// lack: an absent version field is read as the current format, blank
// item keys are recomputed from the row, blank group keys are rebuilt
// from whichever member items still resolve and fall back to a legacy
// marker when none do, and absent identifier counters are derived from
// the highest identifier present.
func (b *Bundle) Normalize() error {
	// Exports from before the version field was introduced decode as 0.
	if b.Version == 0 {
		b.Version = Version
	}
	if b.Version != Version {
		return fmt.Errorf("%w: unsupported bundle version %d", httpx.ErrValidation, b.Version)
	}

	byID := make(map[int64]refis.Item, len(b.Items))
	var maxItem int64
	for i := range b.Items {
		it := &b.Items[i]
		if it.ID <= 0 {
			return fmt.Errorf("%w: item with non-positive id %d", httpx.ErrValidation, it.ID)
		}
		if !it.Category.Valid() {
			return fmt.Errorf("%w: item %d has unknown category %q", httpx.ErrValidation, it.ID, it.Category)
		}
		if it.Key == "" {
			it.Key = refis.ItemKey(it.Entity, it.Profile, it.Category, it.Description, it.Year, it.Principal)
		}
		byID[it.ID] = *it
		if it.ID > maxItem {
			maxItem = it.ID
		}
	}

	var maxGroup int64
	for i := range b.Groups {
		g := &b.Groups[i]
		if g.ID <= 0 {
			return fmt.Errorf("%w: group with non-positive id %d", httpx.ErrValidation, g.ID)
		}
		if !g.Category.Valid() {
			return fmt.Errorf("%w: group %d has unknown category %q", httpx.ErrValidation, g.ID, g.Category)
		}
		if g.Key == "" {
			g.Key = healGroupKey(*g, byID)
		}
		if g.ID > maxGroup {
			maxGroup = g.ID
		}
	}

	if b.NextItemID <= maxItem {
		b.NextItemID = maxItem + 1
	}
	if b.NextGroupID <= maxGroup {
		b.NextGroupID = maxGroup + 1
	}
	return nil
}

// healGroupKey rebuilds a group key from the member items that still
// resolve. Members whose id is gone are skipped; only when none resolve
// does the key degrade to the legacy marker, which stays stable across
// reloads.
func healGroupKey(g refis.Group, items map[int64]refis.Item) string {
	signatures := make([]string, 0, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if it, ok := items[id]; ok {
			signatures = append(signatures, it.Signature())
		}
	}
	if len(signatures) == 0 {
		return refis.LegacyGroupKey(g.Entity, g.Profile, g.Category)
	}
	return refis.GroupKey(g.Entity, g.Profile, g.Category, signatures)
}
