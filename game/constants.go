package game

const (
	MaxHP            = 5
	ProjectileRadius = 10.0
	PlayerRadius     = 20.0
	SpawnMargin      = 60.0
	MaxNameLength    = 32

	// Arrow speed in world units per tick; per second it scales with the tick rate.
	ArrowSpeedPerTick = 30.0
)

// Palette is indexed by join order, so colours do not depend on how many
// players happen to be connected at the moment someone joins.
var Palette = []int{
	0x0000ff,
	0xe6194b,
	0x3cb44b,
	0xffe119,
	0xf58231,
	0x911eb4,
	0x46f0f0,
	0xf032e6,
}

func colourFor(joinOrder uint64) int {
	return Palette[joinOrder%uint64(len(Palette))]
}
