package game

// Player is the dealer-side record for one seat. Hand and deck contents are
// private; anything leaving the dealer goes through Public().
type Player struct {
	ID              string
	SeatIndex       int
	Color           [4]float64
	Cost            int
	MaxCost         int
	Deck            []*Card
	Hand            []*Card
	HomeRowPrefix   string
	FirstRowPrefix  string
	SecondRowPrefix string
}

// PublicPlayer is the redacted projection broadcast to every client. It
// exposes hand/deck sizes only, never their contents.
type PublicPlayer struct {
	ID              string     `json:"id"`
	SeatIndex       int        `json:"seat_index"`
	Color           [4]float64 `json:"color"`
	Cost            int        `json:"cost"`
	MaxCost         int        `json:"max_cost"`
	NTefuda         int        `json:"n_tefuda"`
	NCardsInDeck    int        `json:"n_cards_in_deck"`
	HomeRowPrefix   string     `json:"home_row_prefix"`
	FirstRowPrefix  string     `json:"first_row_prefix"`
	SecondRowPrefix string     `json:"second_row_prefix"`
}

// Public returns the redacted projection of the player.
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:              p.ID,
		SeatIndex:       p.SeatIndex,
		Color:           p.Color,
		Cost:            p.Cost,
		MaxCost:         p.MaxCost,
		NTefuda:         len(p.Hand),
		NCardsInDeck:    len(p.Deck),
		HomeRowPrefix:   p.HomeRowPrefix,
		FirstRowPrefix:  p.FirstRowPrefix,
		SecondRowPrefix: p.SecondRowPrefix,
	}
}

// DrawCard pops the top card of the deck into the hand. It returns nil when
// the deck is exhausted.
func (p *Player) DrawCard() *Card {
	if len(p.Deck) == 0 {
		return nil
	}
	card := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	p.Hand = append(p.Hand, card)
	return card
}

// HandCard finds a card in the player's hand by id.
func (p *Player) HandCard(cardID string) (*Card, bool) {
	for _, card := range p.Hand {
		if card.ID == cardID {
			return card, true
		}
	}
	return nil, false
}

// RemoveFromHand removes a card from the hand, preserving insertion order
// of the remaining cards. It reports whether the card was present.
func (p *Player) RemoveFromHand(cardID string) bool {
	for i, card := range p.Hand {
		if card.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
