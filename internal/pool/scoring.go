package pool

// scoreOfFeature is the score one feature contributes to one input
// exhibiting it. Features are bucketed by group so a single
// instruction site that emits many correlated features cannot dominate an
// input's score; within a group, a feature's weight is shared equally among
// the inputs currently exhibiting it.
func scoreOfFeature(groupSize, featureMultiplicity int) float64 {
	return 1.0 / (float64(groupSize) * float64(featureMultiplicity))
}
