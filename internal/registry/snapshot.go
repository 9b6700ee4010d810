package registry

import (
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"modelhub/internal/core"
)

// Snapshot is an immutable, ordered view of the catalog at a point in time.
// It is built once per successful refresh and replaced wholesale; readers
// always see either the pre- or post-refresh snapshot in full, never a mix.
// Callers must treat the entries returned by List and Get as read-only.
type Snapshot struct {
	entries   []core.Entry
	index     map[string]int
	version   uint64
	digest    uint64
	createdAt time.Time
}

func newSnapshot(entries []core.Entry, version uint64) *Snapshot {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ID] = i
	}
	return &Snapshot{
		entries:   entries,
		index:     index,
		version:   version,
		digest:    digestEntries(entries),
		createdAt: time.Now().UTC(),
	}
}

// emptySnapshot is what List returns before the first refresh completes.
func emptySnapshot() *Snapshot {
	return newSnapshot(nil, 0)
}

// List returns the entries in snapshot order.
func (s *Snapshot) List() []core.Entry {
	return s.entries
}

// Get returns the entry with the given id.
func (s *Snapshot) Get(id string) (core.Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return core.Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

// Version returns the snapshot's monotonically increasing version.
func (s *Snapshot) Version() uint64 { return s.version }

// Digest returns a content hash of the snapshot, used to detect unchanged
// refreshes and skip redundant cache writes.
func (s *Snapshot) Digest() uint64 { return s.digest }

// CreatedAt returns when the snapshot was installed.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// digestEntries computes an order-sensitive xxhash over every field that
// affects selection.
func digestEntries(entries []core.Entry) uint64 {
	h := xxhash.New()
	for _, e := range entries {
		writeField(h, e.ID)
		writeField(h, e.Provider)
		writeField(h, e.Name)
		writeField(h, string(e.Tier))
		for _, c := range e.Capabilities.List() {
			writeField(h, string(c))
		}
		if e.Pricing != nil {
			writeField(h, strconv.FormatFloat(e.Pricing.InputPer1M, 'g', -1, 64))
			writeField(h, strconv.FormatFloat(e.Pricing.OutputPer1M, 'g', -1, 64))
		}
		writeField(h, strconv.Itoa(e.ContextWindow))
		writeField(h, strconv.Itoa(e.MaxOutputTokens))
		for _, k := range sortedKeys(e.Metadata) {
			writeField(h, k)
			writeField(h, e.Metadata[k])
		}
		h.WriteString("\x1e")
	}
	return h.Sum64()
}

func writeField(h *xxhash.Digest, s string) {
	h.WriteString(s)
	h.WriteString("\x1f")
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
