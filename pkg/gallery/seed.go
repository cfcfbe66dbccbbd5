package gallery

// SeedResult reports what a seed operation did.
type SeedResult int

const (
	SeedSkip SeedResult = iota
	SeedSeeded
	SeedError
)

func (r SeedResult) String() string {
	switch r {
	case SeedSkip:
		return "skip"
	case SeedSeeded:
		return "seeded"
	case SeedError:
		return "error"
	default:
		return "unknown"
	}
}
