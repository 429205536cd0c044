package pool

import (
	"sort"

	"github.com/covguard/fuzzcheck/internal/domain"
)

// LookupFeature returns the handle of f if it is already present in the
// pool.
func (p *Pool[V, C, S]) LookupFeature(f domain.Feature) (FeatureHandle[V, C, S], bool) {
	idx := sort.Search(len(p.features), func(i int) bool {
		return p.features[i].Feature >= f
	})
	if idx < len(p.features) && p.features[idx].Feature == f {
		return p.features[idx].Key, true
	}
	return FeatureHandle[V, C, S]{}, false
}

// ClassifyFeatures splits a sensor-observed, deduplicated feature set into
// the existing-feature handles and new-feature values that Add expects,
// each in ascending order.
func (p *Pool[V, C, S]) ClassifyFeatures(observed []domain.Feature) (existing []FeatureHandle[V, C, S], created []domain.Feature) {
	sorted := append([]domain.Feature(nil), observed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i, f := range sorted {
		if i > 0 && sorted[i-1] == f {
			continue
		}
		if key, ok := p.LookupFeature(f); ok {
			existing = append(existing, key)
		} else {
			created = append(created, f)
		}
	}
	return existing, created
}
