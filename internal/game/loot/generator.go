// Package loot generates kill rewards from monster loot tables: a gold
// roll scaled by the monster's level and rarity, and rarity-weighted item
// drops. Generation is stateless; every random draw comes from the
// injected dice source, so a seeded source replays identically.
package loot

import (
	"math"
	"sort"

	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/monster"
)

// Gold roll bounds per monster level, before the rarity multiplier.
const (
	goldPerLevelMin = 5
	goldPerLevelMax = 15
)

// tierWeights maps a monster rarity to item-tier drop weights. Only tiers
// actually present in the monster's loot table enter the draw; absent
// tiers contribute no weight.
var tierWeights = map[string]map[string]int{
	"common": {"common": 70, "uncommon": 24, "rare": 5, "epic": 1},
	"elite":  {"common": 50, "uncommon": 30, "rare": 15, "epic": 4, "legendary": 1},
	"rare":   {"common": 35, "uncommon": 30, "rare": 22, "epic": 10, "legendary": 3},
	"boss":   {"common": 20, "uncommon": 30, "rare": 28, "epic": 15, "legendary": 7},
}

// Drop is one item drop in a reward bundle.
type Drop struct {
	ItemID string `json:"itemId"`
	Rarity string `json:"rarity"`
}

// Reward is the complete outcome of a kill.
type Reward struct {
	Gold  int    `json:"gold"`
	Items []Drop `json:"items"`
}

// Generator rolls rewards for defeated monsters. The item registry is
// consulted only to drop references to unknown items from content packs.
type Generator struct {
	items *inventory.Registry
	src   dice.Source
}

// NewGenerator builds a Generator drawing randomness from src.
func NewGenerator(items *inventory.Registry, src dice.Source) *Generator {
	return &Generator{items: items, src: src}
}

// Generate rolls the reward bundle for a kill of the given template.
//
// Postcondition: Gold >= 0; len(Items) <= the table's MaxDrops; every
// returned item ID exists in the registry.
func (g *Generator) Generate(tmpl *monster.Template) Reward {
	mult := monster.RarityMultiplier[tmpl.Rarity]
	if mult == 0 {
		mult = 1
	}

	gold := dice.Range(g.src, goldPerLevelMin*tmpl.Level, goldPerLevelMax*tmpl.Level)
	reward := Reward{Gold: int(math.Floor(float64(gold) * mult))}

	if tmpl.Loot == nil {
		return reward
	}
	for i := 0; i < tmpl.Loot.MaxDrops; i++ {
		if !dice.Chance(g.src, tmpl.Loot.DropChance*100) {
			continue
		}
		tier, ok := g.rollTier(tmpl.Rarity, tmpl.Loot)
		if !ok {
			continue
		}
		pool := tmpl.Loot.Items[tier]
		itemID := pool[dice.Range(g.src, 0, len(pool)-1)]
		if _, known := g.items.Item(itemID); !known {
			continue
		}
		reward.Items = append(reward.Items, Drop{ItemID: itemID, Rarity: tier})
	}
	return reward
}

// rollTier draws an item rarity tier weighted by the monster's rarity,
// restricted to tiers the loot table actually stocks. Tiers are walked in
// ascending rarity order so the draw is stable for a given source.
func (g *Generator) rollTier(monsterRarity string, table *monster.LootTable) (string, bool) {
	weights := tierWeights[monsterRarity]
	if weights == nil {
		weights = tierWeights["common"]
	}

	var tiers []string
	total := 0
	for tier, pool := range table.Items {
		if len(pool) == 0 {
			continue
		}
		if w := weights[tier]; w > 0 {
			tiers = append(tiers, tier)
			total += w
		}
	}
	if total == 0 {
		return "", false
	}
	sort.Slice(tiers, func(i, j int) bool {
		return inventory.RarityOrder[tiers[i]] < inventory.RarityOrder[tiers[j]]
	})

	draw := dice.Range(g.src, 0, total-1)
	for _, tier := range tiers {
		draw -= weights[tier]
		if draw < 0 {
			return tier, true
		}
	}
	return tiers[len(tiers)-1], true
}
