package arena

import (
	"math/rand"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
)

// ChoiceCount is the number of answers offered per question.
const ChoiceCount = 4

// maxDistractorDraws bounds rejection sampling for inputs with too few valid candidates.
const maxDistractorDraws = 1000

var operators = []domain.Operator{domain.Add, domain.Subtract, domain.Multiply}

// QuestionSource produces questions and their answer choices.
type QuestionSource interface {
	Question(d domain.Difficulty) domain.Question
	Answers(correct int, d domain.Difficulty) []int
}

// Generator is the random QuestionSource. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// OperandMax returns the inclusive upper bound for operands at difficulty d.
func OperandMax(d domain.Difficulty) int {
	switch d {
	case domain.Moderate:
		return 20
	case domain.Hard:
		return 50
	default:
		return 10
	}
}

// Question draws an operator and two operands in [1, OperandMax(d)].
func (g *Generator) Question(d domain.Difficulty) domain.Question {
	op := operators[g.rnd.Intn(len(operators))]
	hi := OperandMax(d)
	a := g.rnd.Intn(hi) + 1
	b := g.rnd.Intn(hi) + 1
	return domain.NewQuestion(op, a, b)
}

// Answers returns the correct answer plus three distinct positive distractors, shuffled.
func (g *Generator) Answers(correct int, d domain.Difficulty) []int {
	answers := make([]int, 0, ChoiceCount)
	answers = append(answers, correct)
	seen := map[int]bool{correct: true}

	for draws := 0; len(answers) < ChoiceCount && draws < maxDistractorDraws; draws++ {
		sign := -1
		if g.rnd.Float64() > 0.5 {
			sign = 1
		}
		candidate := correct + sign*g.offset(d)
		if candidate <= 0 || seen[candidate] {
			continue
		}
		seen[candidate] = true
		answers = append(answers, candidate)
	}
	for next := 1; len(answers) < ChoiceCount; next++ {
		if !seen[next] {
			seen[next] = true
			answers = append(answers, next)
		}
	}

	g.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers
}

func (g *Generator) offset(d domain.Difficulty) int {
	switch d {
	case domain.Moderate:
		return g.rnd.Intn(8) + 2
	case domain.Hard:
		return g.rnd.Intn(15) + 5
	default:
		return g.rnd.Intn(5) + 1
	}
}

// indexOf returns the position of v in answers or -1.
func indexOf(answers []int, v int) int {
	for i, a := range answers {
		if a == v {
			return i
		}
	}
	return -1
}
