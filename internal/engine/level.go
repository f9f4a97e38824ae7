package engine

// levelBands splits the aggregated reserve score into six fixed-width
// bands. The boundaries are constants on purpose: only the sigmoid
// parameters are tunable, so the final scale stays stable even as
// raw-metric sensitivity changes.
const levelBands = 6

var levelLabels = [levelBands]string{
	"Critical - System under heavy load",
	"Critical - System under heavy load",
	"Low - Resource constrained",
	"Moderate - Adequate performance",
	"Good - Ample resources",
	"Excellent - Abundant resources",
}

// LevelFromScore bands an overall reserve score in (0,1) onto the 0-5
// integer scale with its label. The two lowest bands share the Critical
// label, giving the product's five labeled tiers.
func LevelFromScore(score float64) (int, string) {
	level := int(score * levelBands)
	if level < 0 {
		level = 0
	}
	if level > levelBands-1 {
		level = levelBands - 1
	}
	return level, levelLabels[level]
}
