package game

const DiceSides = 6

// RollDie returns a uniform die face in [1, 6].
func RollDie(r Roller) int {
	return r.Intn(DiceSides) + 1
}

// DiceRound is a head-to-head roll: a against b.
type DiceRound struct {
	A int `json:"a"`
	B int `json:"b"`
}

// RollRound rolls a die for each side, A first.
func RollRound(r Roller) DiceRound {
	a := RollDie(r)
	b := RollDie(r)
	return DiceRound{A: a, B: b}
}

// Winner returns 1 when A wins, -1 when B wins and 0 on a tie.
func (d DiceRound) Winner() int {
	switch {
	case d.A > d.B:
		return 1
	case d.A < d.B:
		return -1
	default:
		return 0
	}
}

// ToDetails returns round details for the audit log
func (d DiceRound) ToDetails() map[string]interface{} {
	return map[string]interface{}{
		"roll_a": d.A,
		"roll_b": d.B,
	}
}
