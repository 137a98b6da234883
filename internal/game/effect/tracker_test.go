package effect_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ravenfell/server/internal/game/effect"
)

func poison(duration, magnitude int) effect.Active {
	return effect.Active{ID: "poison", Name: "Poison", Kind: effect.KindDOT, Magnitude: magnitude, Duration: duration}
}

func TestTracker_Add_RefreshesInsteadOfStacking(t *testing.T) {
	tr := effect.NewTracker()
	tr.Add(poison(3, 5))
	tr.Add(poison(5, 8))

	active := tr.Active()
	if len(active) != 1 {
		t.Fatalf("active effects = %d, want 1 (no stacking)", len(active))
	}
	if active[0].Duration != 5 || active[0].Magnitude != 8 {
		t.Errorf("refresh should overwrite: got duration %d magnitude %d, want 5 and 8",
			active[0].Duration, active[0].Magnitude)
	}
}

func TestTracker_Tick_AppliesThenDecrements(t *testing.T) {
	tr := effect.NewTracker()
	tr.Add(poison(2, 4))

	pulses := tr.Tick()
	if len(pulses) != 1 || pulses[0].Amount != 4 || pulses[0].Expired {
		t.Fatalf("first tick = %+v, want amount 4 not expired", pulses)
	}
	pulses = tr.Tick()
	if len(pulses) != 1 || !pulses[0].Expired {
		t.Fatalf("second tick = %+v, want expired", pulses)
	}
	if tr.Has("poison") {
		t.Error("poison should be removed after its duration elapses")
	}
}

// TestTracker_ExpiryAfterInitialDuration verifies the §8 property: an effect
// with initial duration N is gone after exactly N ticks, and present before.
func TestTracker_ExpiryAfterInitialDuration(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		duration := rapid.IntRange(1, 12).Draw(rt, "duration")
		tr := effect.NewTracker()
		tr.Add(poison(duration, 1))

		for i := 0; i < duration-1; i++ {
			tr.Tick()
			if !tr.Has("poison") {
				rt.Fatalf("effect expired early after %d/%d ticks", i+1, duration)
			}
		}
		tr.Tick()
		if tr.Has("poison") {
			rt.Fatalf("effect still active after %d ticks", duration)
		}
	})
}

func TestTracker_Modifier_BuffAndDebuff(t *testing.T) {
	tr := effect.NewTracker()
	tr.Add(effect.Active{ID: "war_cry", Name: "War Cry", Kind: effect.KindBuff, Stat: "attack", Magnitude: 6, Duration: 3})
	tr.Add(effect.Active{ID: "weakness", Name: "Weakness", Kind: effect.KindDebuff, Stat: "attack", Magnitude: 2, Duration: 3})
	tr.Add(effect.Active{ID: "regen", Name: "Regeneration", Kind: effect.KindHOT, Magnitude: 5, Duration: 3})

	if mod := tr.Modifier("attack"); mod != 4 {
		t.Errorf("attack modifier = %d, want 4 (buff 6 - debuff 2)", mod)
	}
	if mod := tr.Modifier("defense"); mod != 0 {
		t.Errorf("defense modifier = %d, want 0", mod)
	}
}

func TestTracker_Clear(t *testing.T) {
	tr := effect.NewTracker()
	tr.Add(poison(4, 2))
	tr.Clear()
	if len(tr.Active()) != 0 {
		t.Error("Clear should remove all effects")
	}
}

func TestTracker_Remove_NoOpWhenAbsent(t *testing.T) {
	tr := effect.NewTracker()
	tr.Remove("missing")
	tr.Add(poison(2, 2))
	tr.Remove("poison")
	if tr.Has("poison") {
		t.Error("Remove should delete the effect")
	}
}

func TestTracker_ActiveIsSnapshot(t *testing.T) {
	tr := effect.NewTracker()
	tr.Add(poison(3, 5))
	snap := tr.Active()
	snap[0].Duration = 99
	if tr.Active()[0].Duration != 3 {
		t.Error("mutating the snapshot must not affect the tracker")
	}
}
