package pool

import "sort"

// insertFeature inserts newEntry into the sorted features-iteration vector
// and the matching feature group, creating the group if this is the first
// feature seen with that GroupID.
//
// It returns the handle of the group newEntry now belongs to.
func (p *Pool[V, C, S]) insertFeature(newEntry FeatureForIteration[V, C, S]) GroupHandle {
	insertionIdx := sort.Search(len(p.features), func(i int) bool {
		return newEntry.Feature < p.features[i].Feature
	})
	p.features = append(p.features, FeatureForIteration[V, C, S]{})
	copy(p.features[insertionIdx+1:], p.features[insertionIdx:])
	p.features[insertionIdx] = newEntry

	groupID := newEntry.Feature.GroupID()

	groupIndex := sort.Search(len(p.featureGroups), func(i int) bool {
		return groupID <= p.slabFeatureGroups.Get(p.featureGroups[i]).ID
	})

	var groupKey GroupHandle
	if groupIndex < len(p.featureGroups) && p.slabFeatureGroups.Get(p.featureGroups[groupIndex]).ID == groupID {
		groupKey = p.featureGroups[groupIndex]
		group := p.slabFeatureGroups.Get(groupKey)
		switch {
		case group.Start == insertionIdx+1:
			group.Start--
		case insertionIdx >= group.Start && insertionIdx <= group.End:
			group.End++
		default:
			panic("pool: insert_feature: insertion index does not border or belong to its group's range")
		}
	} else {
		group := FeatureGroup{ID: groupID, Start: insertionIdx, End: insertionIdx + 1}
		group.OldSize = group.Size()
		groupKey = p.slabFeatureGroups.Insert(group)
		p.featureGroups = append(p.featureGroups, GroupHandle{})
		copy(p.featureGroups[groupIndex+1:], p.featureGroups[groupIndex:])
		p.featureGroups[groupIndex] = groupKey
	}

	for _, laterGroupKey := range p.featureGroups[groupIndex+1:] {
		laterGroup := p.slabFeatureGroups.Get(laterGroupKey)
		laterGroup.Start++
		laterGroup.End++
	}

	return groupKey
}
