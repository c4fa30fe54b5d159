package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollDieRange(t *testing.T) {
	rollers := map[string]Roller{
		"crypto": CryptoRoller{},
		"seeded": NewSeededRoller(42),
	}
	for name, r := range rollers {
		t.Run(name, func(t *testing.T) {
			seen := make(map[int]bool)
			for i := 0; i < 2000; i++ {
				v := RollDie(r)
				require.GreaterOrEqual(t, v, 1)
				require.LessOrEqual(t, v, 6)
				seen[v] = true
			}
			assert.Len(t, seen, 6)
		})
	}
}

func TestSeededRollerDeterministic(t *testing.T) {
	a, b := NewSeededRoller(7), NewSeededRoller(7)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Intn(100), b.Intn(100))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestScriptedRoller(t *testing.T) {
	r := Faces(6, 2)
	round := RollRound(r)
	assert.Equal(t, DiceRound{A: 6, B: 2}, round)
	assert.Equal(t, 1, round.Winner())
	// exhausted script repeats the last value
	assert.Equal(t, 2, RollDie(r))

	assert.Equal(t, -1, DiceRound{A: 1, B: 3}.Winner())
	assert.Equal(t, 0, DiceRound{A: 4, B: 4}.Winner())
}

func TestRollRobbery(t *testing.T) {
	victim := decimal.NewFromInt(1000)

	t.Run("success takes at most ten percent", func(t *testing.T) {
		r := &ScriptedRoller{Floats: []float64{0.1, 0}}
		roll := RollRobbery(r, victim)
		require.True(t, roll.Success)
		assert.True(t, decimal.NewFromInt(100).Equal(roll.Stolen), roll.Stolen.String())
	})

	t.Run("success rounds down to cents", func(t *testing.T) {
		r := &ScriptedRoller{Floats: []float64{0.29, 0.33333}}
		roll := RollRobbery(r, decimal.RequireFromString("123.45"))
		require.True(t, roll.Success)
		// 12.345 * 0.66667 = 8.2300...
		assert.True(t, decimal.RequireFromString("8.23").Equal(roll.Stolen), roll.Stolen.String())
	})

	t.Run("failure penalty bounds", func(t *testing.T) {
		for _, u := range []float64{0, 0.5, 0.999999} {
			r := &ScriptedRoller{Floats: []float64{0.3, u}}
			roll := RollRobbery(r, victim)
			require.False(t, roll.Success)
			assert.True(t, roll.Penalty.GreaterThan(decimal.NewFromInt(20)), roll.Penalty.String())
			assert.True(t, roll.Penalty.LessThanOrEqual(decimal.NewFromInt(200)), roll.Penalty.String())
		}
	})

	t.Run("broke victim", func(t *testing.T) {
		r := &ScriptedRoller{Floats: []float64{0.0}}
		roll := RollRobbery(r, decimal.Zero)
		assert.True(t, roll.Success)
		assert.True(t, roll.Stolen.IsZero())
	})
}
