// Package main provides an offline encounter simulator for balance work:
// it runs seeded, deterministic fights between a class and a monster
// template and prints aggregate outcomes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/combat"
	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/effect"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/loot"
	"github.com/ravenfell/server/internal/game/monster"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

func main() {
	classesDir := flag.String("classes", "content/classes", "class YAML directory")
	itemsDir := flag.String("items", "content/items", "item YAML directory")
	monstersDir := flag.String("monsters", "content/monsters", "monster YAML directory")
	effectsDir := flag.String("effects", "content/effects", "effect YAML directory")
	classID := flag.String("class", "warrior", "class to simulate")
	level := flag.Int("level", 1, "character level")
	monsterID := flag.String("monster", "", "monster template to fight (required)")
	runs := flag.Int("runs", 1000, "number of encounters")
	seed := flag.Int64("seed", 1, "dice seed; same seed, same outcomes")
	verbose := flag.Bool("verbose", false, "print the combat log of the first encounter")
	flag.Parse()

	if *monsterID == "" {
		flag.Usage()
		os.Exit(2)
	}

	classes, err := ruleset.LoadRegistry(*classesDir)
	if err != nil {
		log.Fatalf("loading classes: %v", err)
	}
	items, err := inventory.LoadRegistry(*itemsDir)
	if err != nil {
		log.Fatalf("loading items: %v", err)
	}
	monsters, err := monster.LoadDirectory(*monstersDir)
	if err != nil {
		log.Fatalf("loading monsters: %v", err)
	}
	effects, err := effect.LoadDirectory(*effectsDir)
	if err != nil {
		log.Fatalf("loading effects: %v", err)
	}

	class, ok := classes.Class(*classID)
	if !ok {
		log.Fatalf("unknown class %q", *classID)
	}
	tmpl, ok := monsters.Get(*monsterID)
	if !ok {
		log.Fatalf("unknown monster %q", *monsterID)
	}

	src := dice.NewSeededSource(*seed)
	lootGen := loot.NewGenerator(items, src)

	var (
		wins, losses int
		totalTurns   int
		totalGold    int
		totalHPLeft  int
	)

	for i := 0; i < *runs; i++ {
		c := character.New(uuid.New(), "Simulant", class, false)
		c.Level = *level
		base := stats.BaseStats(class, *level)
		c.HP = base.MaxHP

		sess := combat.NewSession(combat.Config{
			Character:   c,
			Class:       class,
			PlayerStats: stats.Resolve(base, inventory.StatBonuses{}, passive.Bonuses{XPMult: 1, GoldMult: 1}),
			Template:    tmpl,
			Effects:     effects,
			Items:       items,
			Loot:        lootGen,
			Source:      src,
			Logger:      zap.NewNop(),
		})

		for sess.State() == combat.StateInCombat {
			var err error
			if sess.CurrentActor() == combat.SideMonster {
				_, err = sess.MonsterTurn()
			} else {
				_, err = sess.PlayerAttack()
			}
			if err != nil {
				log.Fatalf("run %d: %v", i, err)
			}
		}

		totalTurns += sess.Turn()
		switch sess.State() {
		case combat.StateVictory:
			wins++
			totalHPLeft += c.HP
			totalGold += sess.Rewards().Gold
		case combat.StateDefeat:
			losses++
		}

		if *verbose && i == 0 {
			for _, entry := range sess.GetState().Log {
				fmt.Println(entry.Message)
			}
		}
	}

	fmt.Printf("%s L%d vs %s: %d runs (seed %d)\n", class.Name, *level, tmpl.Name, *runs, *seed)
	fmt.Printf("  wins:   %d (%.1f%%)\n", wins, pct(wins, *runs))
	fmt.Printf("  losses: %d (%.1f%%)\n", losses, pct(losses, *runs))
	fmt.Printf("  avg rounds: %.1f\n", avg(totalTurns, *runs))
	if wins > 0 {
		fmt.Printf("  avg hp left on win: %.1f\n", avg(totalHPLeft, wins))
		fmt.Printf("  avg gold per win:   %.1f\n", avg(totalGold, wins))
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
