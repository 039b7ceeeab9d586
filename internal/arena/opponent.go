package arena

import (
	"math/rand"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// CorrectChance is the probability the computer opponent answers correctly.
func CorrectChance(d domain.Difficulty) float64 {
	switch d {
	case domain.Moderate:
		return 0.6
	case domain.Hard:
		return 0.8
	default:
		return 0.4
	}
}

// Opponent is the computer player used on Player2's turn in single-player games.
type Opponent struct {
	rnd      *rand.Rand
	thinkMin time.Duration
	thinkMax time.Duration
}

func NewOpponent(rnd *rand.Rand, thinkMin, thinkMax time.Duration) *Opponent {
	return &Opponent{rnd: rnd, thinkMin: thinkMin, thinkMax: thinkMax}
}

// ThinkingDelay is uniform in [thinkMin, thinkMax].
func (o *Opponent) ThinkingDelay() time.Duration {
	if o.thinkMax <= o.thinkMin {
		return o.thinkMin
	}
	return o.thinkMin + time.Duration(o.rnd.Int63n(int64(o.thinkMax-o.thinkMin)+1))
}

// Choose returns the index of the picked answer.
func (o *Opponent) Choose(answers []int, correct int, d domain.Difficulty) int {
	correctIdx := indexOf(answers, correct)
	if o.rnd.Float64() < CorrectChance(d) && correctIdx >= 0 {
		return correctIdx
	}
	wrong := make([]int, 0, len(answers))
	for i, a := range answers {
		if a != correct {
			wrong = append(wrong, i)
		}
	}
	if len(wrong) == 0 {
		return correctIdx
	}
	return wrong[o.rnd.Intn(len(wrong))]
}
