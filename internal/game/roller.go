package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// Roller is the source of randomness for every game. Implementations must
// be safe for concurrent use.
type Roller interface {
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// CryptoRoller draws from crypto/rand. It is the production default.
type CryptoRoller struct{}

func (CryptoRoller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// Fallback - should never happen
		return 0
	}
	return int(v.Int64())
}

const float53 = 1 << 53

func (CryptoRoller) Float64() float64 {
	v, err := rand.Int(rand.Reader, big.NewInt(float53))
	if err != nil {
		return 0
	}
	return float64(v.Int64()) / float53
}

// SeededRoller is deterministic for a given seed.
type SeededRoller struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

func NewSeededRoller(seed uint64) *SeededRoller {
	return &SeededRoller{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *SeededRoller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *SeededRoller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// ScriptedRoller replays fixed values in order and repeats the last one
// once exhausted. Dice values are given as faces (1-6) via Faces.
type ScriptedRoller struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
	ii, fi int
}

// Faces builds a ScriptedRoller whose Intn calls produce the given die faces.
func Faces(faces ...int) *ScriptedRoller {
	ints := make([]int, len(faces))
	for i, f := range faces {
		ints[i] = f - 1
	}
	return &ScriptedRoller{Ints: ints}
}

func (r *ScriptedRoller) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Ints) == 0 || n <= 0 {
		return 0
	}
	v := r.Ints[min(r.ii, len(r.Ints)-1)]
	r.ii++
	if v >= n {
		v = n - 1
	}
	return v
}

func (r *ScriptedRoller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Floats) == 0 {
		return 0
	}
	v := r.Floats[min(r.fi, len(r.Floats)-1)]
	r.fi++
	return v
}
