package game

import (
	"math/rand"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
)

// DeckBuilder produces a player's initial draw pile. Every dealt card must
// come from the shared card factory so ids are globally unique from turn one.
type DeckBuilder interface {
	Build(playerID string, cards *CardFactory, cat *catalog.Catalog) []*Card
}

// RandomDeckBuilder deals NCards random prototypes, picking a unit with
// probability UnitRatio and a spell otherwise. With no spell prototypes in
// the catalog it deals units only.
type RandomDeckBuilder struct {
	NCards    int
	UnitRatio float64
	Rand      *rand.Rand
}

// Build implements DeckBuilder. Prototype ids are drawn from the catalog's
// sorted id lists, so a seeded Rand yields a reproducible deck.
func (b *RandomDeckBuilder) Build(playerID string, cards *CardFactory, cat *catalog.Catalog) []*Card {
	unitIDs := cat.UnitIDs()
	spellIDs := cat.SpellIDs()

	deck := make([]*Card, 0, b.NCards)
	for i := 0; i < b.NCards; i++ {
		ids := unitIDs
		if len(spellIDs) > 0 && b.Rand.Float64() > b.UnitRatio {
			ids = spellIDs
		}
		if len(ids) == 0 {
			break
		}
		deck = append(deck, cards.Create(ids[b.Rand.Intn(len(ids))]))
	}
	return deck
}
