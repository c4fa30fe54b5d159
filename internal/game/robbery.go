package game

import "github.com/shopspring/decimal"

const RobSuccessChance = 0.3

var (
	robShare      = decimal.RequireFromString("0.1")
	penaltyMin    = decimal.NewFromInt(20)
	penaltyMax    = decimal.NewFromInt(200)
	penaltyWindow = penaltyMax.Sub(penaltyMin)
)

// RobberyRoll is the random part of a robbery attempt, decided before the
// ledger is touched.
type RobberyRoll struct {
	Success bool
	// Stolen is in (0, victim*0.1] rounded down to cents; zero only when the
	// victim has less than 0.10.
	Stolen decimal.Decimal
	// Penalty is in (20, 200] rounded up to cents.
	Penalty decimal.Decimal
}

// RollRobbery draws the outcome of a robbery against a victim holding
// victimBalance.
func RollRobbery(r Roller, victimBalance decimal.Decimal) RobberyRoll {
	if r.Float64() >= RobSuccessChance {
		u := decimal.NewFromFloat(r.Float64())
		penalty := penaltyMax.Sub(penaltyWindow.Mul(u)).RoundCeil(2)
		if penalty.LessThanOrEqual(penaltyMin) {
			penalty = penaltyMin.Add(decimal.RequireFromString("0.01"))
		}
		return RobberyRoll{Penalty: penalty}
	}

	if !victimBalance.IsPositive() {
		return RobberyRoll{Success: true, Stolen: decimal.Zero}
	}
	u := decimal.NewFromFloat(r.Float64())
	ceiling := victimBalance.Mul(robShare)
	stolen := ceiling.Mul(decimal.NewFromInt(1).Sub(u)).RoundFloor(2)
	if stolen.GreaterThan(ceiling) {
		stolen = ceiling.RoundFloor(2)
	}
	return RobberyRoll{Success: true, Stolen: stolen}
}
