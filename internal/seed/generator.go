package seed

import (
	"fmt"
	"math/rand/v2"

	"cursor-paging/pkg/gallery"

	"github.com/twitsprout/tools/clock"
)

// picsumImages is the number of distinct images picsum.photos serves by id.
const picsumImages = 1085

// Generator produces synthetic pictures.
type Generator struct {
	Clock clock.Clock
	rand  *rand.Rand
}

// NewGenerator returns a Generator whose URLs are derived from seed, so two
// generators with the same seed produce the same URLs.
func NewGenerator(c clock.Clock, seed uint64) *Generator {
	if c == nil {
		c = &clock.Default{}
	}
	return &Generator{
		Clock: c,
		rand:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns n pictures with ids firstID, firstID+1, ... The created
// time is the time each record is constructed.
func (g *Generator) Generate(firstID int64, n int) []gallery.Picture {
	pictures := make([]gallery.Picture, n)
	for i := range pictures {
		pictures[i] = gallery.Picture{
			ID:      firstID + int64(i),
			URL:     g.url(),
			Created: gallery.NewTimestamp(g.Clock.Now()),
		}
	}
	return pictures
}

func (g *Generator) url() string {
	return fmt.Sprintf("https://picsum.photos/640/480/?image=%d", g.rand.IntN(picsumImages))
}
