package passive

// Progress is an account's permanent upgrade state. It persists across
// character deaths; hardcore deletion removes the character but never
// touches Progress.
type Progress struct {
	// Levels maps passive ID to purchased level.
	Levels map[string]int `json:"levels"`
	// Souls is the spendable soul balance.
	Souls int `json:"souls"`
	// LegacyPoints is the spendable legacy-point balance.
	LegacyPoints int `json:"legacyPoints"`
	// SoulsSpent accumulates every soul ever spent; used for respec refunds.
	SoulsSpent int `json:"soulsSpent"`
	// LegacySpent accumulates every legacy point ever spent.
	LegacySpent int `json:"legacySpent"`
	// TotalDeaths counts every character death on the account.
	TotalDeaths int `json:"totalDeaths"`
	// HighestLevel is the highest character level ever reached.
	HighestLevel int `json:"highestLevel"`
}

// NewProgress returns a zeroed Progress with an allocated level map.
func NewProgress() *Progress {
	return &Progress{Levels: make(map[string]int)}
}

// Level returns the purchased level of the passive with the given ID.
func (p *Progress) Level(id string) int {
	return p.Levels[id]
}

// RecordDeath bumps the death counter and folds in the dying character's
// level. Called for both normal and hardcore deaths.
func (p *Progress) RecordDeath(characterLevel int) {
	p.TotalDeaths++
	if characterLevel > p.HighestLevel {
		p.HighestLevel = characterLevel
	}
}
