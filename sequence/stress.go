package sequence

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sarchlab/memverify/txn"
)

// StressConstraints constrain the random transactions of a Stress provider.
type StressConstraints struct {
	WriteProbability float64
	ReadProbability  float64
	IdleProbability  float64
	DataMin          byte
	DataMax          byte
}

// DefaultStressConstraints returns evenly distributed constraints over the
// full data range.
func DefaultStressConstraints() StressConstraints {
	return StressConstraints{
		WriteProbability: 0.4,
		ReadProbability:  0.4,
		IdleProbability:  0.2,
		DataMin:          0x00,
		DataMax:          0xFF,
	}
}

// Validate checks that the probabilities form a distribution and that the
// data range is not empty.
func (c StressConstraints) Validate() error {
	probs := []float64{c.WriteProbability, c.ReadProbability, c.IdleProbability}
	for _, p := range probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("probability %v is out of [0, 1]", p)
		}
	}

	sum := c.WriteProbability + c.ReadProbability + c.IdleProbability
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("write, read and idle probabilities sum to %v, not 1",
			sum)
	}

	if c.DataMin > c.DataMax {
		return errors.New("data min is larger than data max")
	}

	return nil
}

// A Stress provider generates an infinite constrained-random sequence. The
// same seed always generates the same sequence.
type Stress struct {
	constraints StressConstraints
	seed        int64
	rng         *rand.Rand
}

// NewStress creates a Stress provider. It panics if the constraints are
// invalid.
func NewStress(constraints StressConstraints, seed int64) *Stress {
	err := constraints.Validate()
	if err != nil {
		panic(err)
	}

	return &Stress{
		constraints: constraints,
		seed:        seed,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed of the sequence.
func (s *Stress) Seed() int64 {
	return s.seed
}

// Constraints returns the constraints of the sequence.
func (s *Stress) Constraints() StressConstraints {
	return s.constraints
}

// Restart reseeds the generator, so that the sequence repeats from its first
// transaction.
func (s *Stress) Restart() {
	s.rng = rand.New(rand.NewSource(s.seed))
}

// Next generates the next transaction. It never runs out.
func (s *Stress) Next() (txn.Transaction, bool) {
	c := s.constraints
	r := s.rng.Float64()

	switch {
	case r < c.WriteProbability:
		return txn.Write(s.data()), true
	case r < c.WriteProbability+c.ReadProbability:
		return txn.Read(), true
	default:
		return txn.Idle(), true
	}
}

func (s *Stress) data() byte {
	span := int(s.constraints.DataMax) - int(s.constraints.DataMin) + 1
	return s.constraints.DataMin + byte(s.rng.Intn(span))
}
