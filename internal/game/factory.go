package game

import (
	"fmt"
	"sort"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
)

// Card is a drawn-but-unresolved instance of a prototype. It lives in
// exactly one player's hand until played.
type Card struct {
	ID          string `json:"id"`
	PrototypeID string `json:"prototype_id"`
}

// UnitInstance is a unit card played onto the board. Live stats are mutable
// and reset to the o_* baseline each turn; skill and tag lists are copied
// from the prototype at creation, so later catalog edits never reach
// existing instances.
type UnitInstance struct {
	ID                 string   `json:"id"`
	PrototypeID        string   `json:"prototype_id"`
	PlayerID           string   `json:"player_id"`
	Cost               int      `json:"cost"`
	Power              int      `json:"power"`
	Attack             int      `json:"attack"`
	Defense            int      `json:"defense"`
	OPower             int      `json:"o_power"`
	OAttack            int      `json:"o_attack"`
	ODefense           int      `json:"o_defense"`
	NTurnsUntilMovable int      `json:"n_turns_until_movable"`
	SkillIDs           []string `json:"skill_id_list"`
	Tags               []string `json:"tag_list"`
	Description        string   `json:"description"`
}

// ResetStats restores the live stats to the baseline copied at creation.
func (u *UnitInstance) ResetStats() {
	u.Power = u.OPower
	u.Attack = u.OAttack
	u.Defense = u.ODefense
}

// CardFactory stamps out Card instances with sequential zero-padded ids and
// keeps every card ever created for the life of the game. Entries are never
// deleted: played cards stay in the registry even after leaving a hand.
type CardFactory struct {
	nCreated int
	cards    map[string]*Card
}

// NewCardFactory creates an empty card registry.
func NewCardFactory() *CardFactory {
	return &CardFactory{cards: make(map[string]*Card)}
}

// Create allocates the next card id for the given prototype.
func (f *CardFactory) Create(prototypeID string) *Card {
	card := &Card{
		ID:          fmt.Sprintf("%04d", f.nCreated),
		PrototypeID: prototypeID,
	}
	f.nCreated++
	f.cards[card.ID] = card
	return card
}

// Get looks up a card by id.
func (f *CardFactory) Get(cardID string) (*Card, bool) {
	card, ok := f.cards[cardID]
	return card, ok
}

// Count returns how many cards have been created.
func (f *CardFactory) Count() int {
	return f.nCreated
}

// UnitFactory stamps out UnitInstance values from unit prototypes. Unlike
// the card registry, entries are deleted when a unit dies.
type UnitFactory struct {
	prototypes map[string]*catalog.UnitPrototype
	nCreated   int
	units      map[string]*UnitInstance
}

// NewUnitFactory creates a unit registry over the given prototype table.
func NewUnitFactory(prototypes map[string]*catalog.UnitPrototype) *UnitFactory {
	return &UnitFactory{
		prototypes: prototypes,
		units:      make(map[string]*UnitInstance),
	}
}

// Create builds a new instance of a prototype for a player. Fresh units
// start with a movement cooldown of 1: they cannot act the turn they are
// placed.
func (f *UnitFactory) Create(prototypeID, playerID string) (*UnitInstance, error) {
	proto, ok := f.prototypes[prototypeID]
	if !ok {
		return nil, fmt.Errorf("game: unknown unit prototype %q", prototypeID)
	}
	unit := &UnitInstance{
		ID:                 fmt.Sprintf("%s.%04d", prototypeID, f.nCreated),
		PrototypeID:        prototypeID,
		PlayerID:           playerID,
		Cost:               proto.Cost,
		Power:              proto.Power,
		Attack:             proto.Attack,
		Defense:            proto.Defense,
		OPower:             proto.Power,
		OAttack:            proto.Attack,
		ODefense:           proto.Defense,
		NTurnsUntilMovable: 1,
		SkillIDs:           append([]string(nil), proto.SkillIDs...),
		Tags:               append([]string(nil), proto.Tags...),
		Description:        proto.Description,
	}
	f.nCreated++
	f.units[unit.ID] = unit
	return unit, nil
}

// Get looks up a live unit by id.
func (f *UnitFactory) Get(unitID string) (*UnitInstance, bool) {
	unit, ok := f.units[unitID]
	return unit, ok
}

// Delete removes a dead unit from the registry.
func (f *UnitFactory) Delete(unitID string) {
	delete(f.units, unitID)
}

// Live returns the live units sorted by id.
func (f *UnitFactory) Live() []*UnitInstance {
	units := make([]*UnitInstance, 0, len(f.units))
	for _, unit := range f.units {
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}
