package combat

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ravenfell/server/internal/game/character"
	"github.com/ravenfell/server/internal/game/effect"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/monster"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/game/stats"
)

// maxSrc draws the maximum every time: every chance check fails.
type maxSrc struct{}

func (maxSrc) Intn(n int) int { return n - 1 }

// seqSrc replays scripted draws, then draws maximums.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(n int) int {
	if s.i >= len(s.vals) {
		return n - 1
	}
	v := s.vals[s.i]
	s.i++
	if v >= n {
		v = n - 1
	}
	return v
}

func warriorClass() *ruleset.Class {
	return &ruleset.Class{
		ID:   "warrior",
		Name: "Warrior",
		Starting: ruleset.StartingStats{
			Strength: 5, Dexterity: 3, Constitution: 4,
			Intelligence: 1, Wisdom: 2, MaxHP: 110,
		},
		Skills: []ruleset.Skill{
			{ID: "power_strike", Name: "Power Strike", UnlockLevel: 1, Cooldown: 2, Damage: "2d6+3", Scaling: "attack"},
			{ID: "execute", Name: "Execute", UnlockLevel: 10, Cooldown: 5, Damage: "4d6", Scaling: "attack"},
		},
	}
}

// warriorStats is the resolved level-1 block for the class above, bare of
// equipment.
func warriorStats() stats.Final {
	return stats.Final{
		Attack: 5, Defense: 4, Magic: 1, Agility: 3, MaxHP: 110,
		Crit: 1.5, Dodge: 0.9, Block: 0.8,
	}
}

func goblin() *monster.Template {
	return &monster.Template{
		ID: "goblin", Name: "Goblin", Level: 1, Rarity: "common",
		HP: 50, Attack: 10, Defense: 3, Agility: 4, XPReward: 25,
	}
}

func testEffects() *effect.Registry {
	reg := effect.NewRegistry()
	reg.Register(&effect.Definition{ID: "poison", Name: "Poison", Kind: effect.KindDOT})
	reg.Register(&effect.Definition{ID: "regeneration", Name: "Regeneration", Kind: effect.KindHOT})
	reg.Register(&effect.Definition{ID: "battle_fury", Name: "Battle Fury", Kind: effect.KindBuff, Stat: "attack"})
	return reg
}

func newTestSession(t *testing.T, src interface{ Intn(int) int }, tmpl *monster.Template) *Session {
	t.Helper()
	c := character.New(uuid.New(), "Brindle", warriorClass(), false)
	return NewSession(Config{
		Character:   c,
		Class:       warriorClass(),
		PlayerStats: warriorStats(),
		Template:    tmpl,
		Effects:     testEffects(),
		Items:       inventory.NewRegistry(),
		Source:      src,
		NoVariance:  true,
	})
}

func TestTurnOrder(t *testing.T) {
	// Goblin agility 4 beats warrior agility 3.
	s := newTestSession(t, maxSrc{}, goblin())
	if s.CurrentActor() != SideMonster {
		t.Errorf("faster monster should act first, got %s", s.CurrentActor())
	}

	// Ties go to the player.
	slow := goblin()
	slow.Agility = 3
	s = newTestSession(t, maxSrc{}, slow)
	if s.CurrentActor() != SidePlayer {
		t.Errorf("player should win agility ties, got %s", s.CurrentActor())
	}
}

// TestFightToVictory plays a whole deterministic fight: no variance, no
// crits, no dodges. Warrior hits for round(5 - 3*0.5) = 4, goblin for
// round(10 - 4*0.5) = 8; the goblin dies on the 13th player swing.
func TestFightToVictory(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin())

	var last *ActionResult
	for s.State() == StateInCombat {
		var err error
		if s.CurrentActor() == SideMonster {
			last, err = s.MonsterTurn()
		} else {
			last, err = s.PlayerAttack()
		}
		if err != nil {
			t.Fatalf("turn failed: %v", err)
		}
	}

	if s.State() != StateVictory {
		t.Fatalf("state = %s, want VICTORY", s.State())
	}
	if !last.Victory || last.Rewards == nil {
		t.Fatalf("final result = %+v", last)
	}
	if last.Rewards.XP != 25 {
		t.Errorf("reward xp = %d, want 25", last.Rewards.XP)
	}
	if s.char.HP != 6 { // 110 - 13 goblin hits of 8
		t.Errorf("player hp = %d, want 6", s.char.HP)
	}
	if s.mon.CurrentHP != 0 {
		t.Errorf("monster hp = %d, want 0", s.mon.CurrentHP)
	}
}

func TestMonsterAttackDefeat(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin())
	s.char.HP = 8

	res, err := s.MonsterTurn()
	if err != nil {
		t.Fatalf("monster turn: %v", err)
	}
	if !res.Defeat || s.State() != StateDefeat {
		t.Fatalf("result = %+v, state = %s", res, s.State())
	}
	if s.char.HP != 0 {
		t.Errorf("player hp = %d, want 0", s.char.HP)
	}
}

func TestTerminalStateRejectsActions(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin())
	s.char.HP = 8
	if _, err := s.MonsterTurn(); err != nil {
		t.Fatal(err)
	}

	monHP := s.mon.CurrentHP
	logLen := len(s.log)
	for name, act := range map[string]func() (*ActionResult, error){
		"attack":  s.PlayerAttack,
		"flee":    s.PlayerFlee,
		"monster": s.MonsterTurn,
		"skill":   func() (*ActionResult, error) { return s.PlayerSkill("power_strike") },
	} {
		if _, err := act(); !errors.Is(err, ErrInvalidTurn) {
			t.Errorf("%s after defeat: err = %v, want ErrInvalidTurn", name, err)
		}
	}
	if s.mon.CurrentHP != monHP || len(s.log) != logLen {
		t.Error("rejected action mutated session")
	}
}

func TestActionOutOfTurn(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin()) // monster acts first
	if _, err := s.PlayerAttack(); !errors.Is(err, ErrInvalidTurn) {
		t.Errorf("attack out of turn: err = %v, want ErrInvalidTurn", err)
	}
}

func TestCriticalHit(t *testing.T) {
	slow := goblin()
	slow.Agility = 3 // player first
	// Draws: dodge fails, block fails, crit succeeds.
	s := newTestSession(t, &seqSrc{vals: []int{9999, 9999, 0}}, slow)

	res, err := s.PlayerAttack()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Crit {
		t.Fatal("expected a critical hit")
	}
	if res.Damage != 5 { // round(3.5 * 1.5)
		t.Errorf("crit damage = %d, want 5", res.Damage)
	}
}

func TestPlayerDodge(t *testing.T) {
	// First draw 0 lands under the warrior's 0.9% dodge.
	s := newTestSession(t, &seqSrc{vals: []int{0}}, goblin())

	res, err := s.MonsterTurn()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Dodged || res.Damage != 0 {
		t.Fatalf("result = %+v, want dodge for 0", res)
	}
	if s.char.HP != 110 {
		t.Errorf("player hp = %d after dodge, want 110", s.char.HP)
	}
}

func TestPlayerBlock(t *testing.T) {
	// Dodge fails, block succeeds, crit fails: 8 damage halved to 4.
	s := newTestSession(t, &seqSrc{vals: []int{9999, 0, 9999}}, goblin())

	res, err := s.MonsterTurn()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Blocked || res.Damage != 4 {
		t.Fatalf("result = %+v, want block for 4", res)
	}
	if s.char.HP != 106 {
		t.Errorf("player hp = %d, want 106", s.char.HP)
	}
}

func TestPlayerSkill(t *testing.T) {
	slow := goblin()
	slow.Agility = 3
	s := newTestSession(t, maxSrc{}, slow)

	// 2d6 rolls max: bonus 12+3, damage = round(15 + 5 - 1.5) = 19.
	res, err := s.PlayerSkill("power_strike")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Damage != 19 {
		t.Fatalf("result = %+v, want 19 damage", res)
	}
	if s.mon.CurrentHP != 31 {
		t.Errorf("monster hp = %d, want 31", s.mon.CurrentHP)
	}

	if s.char.SkillCooldowns["power_strike"] != 2 || s.char.GlobalCooldown != 1 {
		t.Errorf("cooldowns = %v gcd = %d", s.char.SkillCooldowns, s.char.GlobalCooldown)
	}

	if _, err := s.MonsterTurn(); err != nil { // round wraps, cooldowns step
		t.Fatal(err)
	}
	if s.char.SkillCooldowns["power_strike"] != 1 || s.char.GlobalCooldown != 0 {
		t.Errorf("after wrap: cooldowns = %v gcd = %d", s.char.SkillCooldowns, s.char.GlobalCooldown)
	}
	res, err = s.PlayerSkill("power_strike")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Message == "" {
		t.Errorf("skill on cooldown should fail softly, got %+v", res)
	}
}

func TestPlayerSkillLocked(t *testing.T) {
	slow := goblin()
	slow.Agility = 3
	s := newTestSession(t, maxSrc{}, slow)

	res, err := s.PlayerSkill("execute") // unlocks at 10
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("locked skill should fail softly")
	}

	if _, err := s.PlayerSkill("fireball"); !errors.Is(err, ErrUnknownSkill) {
		t.Errorf("unknown skill err = %v, want ErrUnknownSkill", err)
	}
}

func TestFlee(t *testing.T) {
	slow := goblin()
	slow.Agility = 3
	// Chance = clamp(50 + 0, 30, 90) = 50; draw 0 succeeds.
	s := newTestSession(t, &seqSrc{vals: []int{0}}, slow)
	res, err := s.PlayerFlee()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fled || s.State() != StateFled {
		t.Fatalf("result = %+v state = %s", res, s.State())
	}
	if res.Rewards != nil {
		t.Error("flee granted rewards")
	}

	// Failure: the monster gets a free attack.
	s = newTestSession(t, maxSrc{}, slow)
	res, err = s.PlayerFlee()
	if err != nil {
		t.Fatal(err)
	}
	if res.Fled || res.Success {
		t.Fatalf("flee should have failed: %+v", res)
	}
	if s.char.HP != 102 { // free hit for 8
		t.Errorf("player hp = %d, want 102", s.char.HP)
	}
	if s.State() != StateInCombat {
		t.Errorf("state = %s, want IN_COMBAT", s.State())
	}
}

func TestDOTFinishesMonster(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin())
	s.mon.CurrentHP = 3
	s.applyEffect(SideMonster, "poison", 2, 5)

	// The monster acts first: its strike lands, then its own poison ticks
	// and kills it.
	res, err := s.MonsterTurn()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Victory || s.State() != StateVictory {
		t.Fatalf("result = %+v state = %s", res, s.State())
	}
	if res.Rewards == nil || res.Rewards.XP != 25 {
		t.Errorf("rewards = %+v", res.Rewards)
	}
}

func TestUseItem(t *testing.T) {
	slow := goblin()
	slow.Agility = 3
	s := newTestSession(t, maxSrc{}, slow)

	items := inventory.NewRegistry()
	if err := items.Register(&inventory.ItemDef{
		ID: "health_potion", Name: "Health Potion", Rarity: "common",
		Stackable: true, MaxStack: 5,
		Consume: &inventory.Consumable{EffectID: "regeneration", Duration: 3, Magnitude: 5},
	}); err != nil {
		t.Fatal(err)
	}
	s.items = items
	if _, err := s.char.Backpack.Add("health_potion", 2, items); err != nil {
		t.Fatal(err)
	}
	s.char.HP = 50

	res, err := s.PlayerUseItem("health_potion")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.EffectApplied != "Regeneration" {
		t.Fatalf("result = %+v", res)
	}
	// The first regeneration pulse lands as the turn ends.
	if s.char.HP != 55 {
		t.Errorf("player hp = %d, want 55", s.char.HP)
	}
	if inst, ok := s.char.Backpack.Find("health_potion"); !ok || inst.Quantity != 1 {
		t.Errorf("potion stack not consumed: %+v", inst)
	}
}

func TestUseItemMissing(t *testing.T) {
	slow := goblin()
	slow.Agility = 3
	s := newTestSession(t, maxSrc{}, slow)

	items := inventory.NewRegistry()
	if err := items.Register(&inventory.ItemDef{
		ID: "health_potion", Name: "Health Potion", Rarity: "common",
		Stackable: true, MaxStack: 5,
		Consume: &inventory.Consumable{EffectID: "regeneration", Duration: 3, Magnitude: 5},
	}); err != nil {
		t.Fatal(err)
	}
	s.items = items

	res, err := s.PlayerUseItem("health_potion")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Errorf("using an item not in the backpack should fail softly: %+v", res)
	}
}

func TestMonsterAbilityPriority(t *testing.T) {
	tmpl := goblin()
	tmpl.Abilities = []monster.Ability{
		{ID: "fire_breath", Name: "Fire Breath", Damage: "1d4", Cooldown: 2},
	}
	s := newTestSession(t, maxSrc{}, tmpl)

	// First turn: ability is ready. Max 1d4 roll: round(10+4-2) = 12.
	res, err := s.MonsterTurn()
	if err != nil {
		t.Fatal(err)
	}
	if res.Damage != 12 {
		t.Errorf("ability damage = %d, want 12", res.Damage)
	}
	if s.mon.Cooldowns["fire_breath"] != 2 {
		t.Errorf("cooldown = %d, want 2", s.mon.Cooldowns["fire_breath"])
	}

	if _, err := s.PlayerAttack(); err != nil { // round wraps, cooldown 2 -> 1
		t.Fatal(err)
	}

	// Second monster turn: ability cooling down, basic attack for 8.
	res, err = s.MonsterTurn()
	if err != nil {
		t.Fatal(err)
	}
	if res.Damage != 8 {
		t.Errorf("basic attack damage = %d, want 8", res.Damage)
	}
}

func TestGetStateSnapshot(t *testing.T) {
	s := newTestSession(t, maxSrc{}, goblin())
	if _, err := s.MonsterTurn(); err != nil {
		t.Fatal(err)
	}

	snap := s.GetState()
	if snap.State != StateInCombat || snap.CurrentActor != SidePlayer {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.PlayerHP != 102 || snap.MonsterHP != 50 {
		t.Errorf("hp in snapshot = %d/%d", snap.PlayerHP, snap.MonsterHP)
	}
	if len(snap.Log) == 0 {
		t.Error("snapshot log empty")
	}

	// The snapshot must not alias the live log.
	snap.Log[0].Message = "tampered"
	if s.log[0].Message == "tampered" {
		t.Error("snapshot shares log storage with session")
	}
}

func TestEngineSessionLifecycle(t *testing.T) {
	e := NewEngine(testEffects(), inventory.NewRegistry(), nil, maxSrc{}, nil)
	c := character.New(uuid.New(), "Brindle", warriorClass(), false)

	s, err := e.Start(c, warriorClass(), warriorStats(), 0, goblin())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Start(c, warriorClass(), warriorStats(), 0, goblin()); !errors.Is(err, ErrAlreadyInCombat) {
		t.Errorf("second start err = %v, want ErrAlreadyInCombat", err)
	}

	got, err := e.Session(c.ID)
	if err != nil || got != s {
		t.Errorf("Session() = %v, %v", got, err)
	}

	e.End(c.ID)
	if _, err := e.Session(c.ID); !errors.Is(err, ErrNotInCombat) {
		t.Errorf("after End err = %v, want ErrNotInCombat", err)
	}
	if e.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d", e.ActiveSessions())
	}
}
