package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("arena already started")
	// ErrInputDisabled is returned for selections outside an open human turn.
	ErrInputDisabled = errors.New("input disabled")
	// ErrInvalidChoice is returned for a choice index outside the displayed answers.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrNotAwaitingNext is returned when Advance is called before the question resolved.
	ErrNotAwaitingNext = errors.New("not awaiting next question")
	// ErrGameOver is returned for input after the last question.
	ErrGameOver = errors.New("game over")
)

// Phase is the controller state.
type Phase int

const (
	Idle Phase = iota
	AwaitingAnswer
	Resolving
	AwaitingNext
	GameOver
)

func (p Phase) String() string {
	switch p {
	case AwaitingAnswer:
		return "awaiting_answer"
	case Resolving:
		return "resolving"
	case AwaitingNext:
		return "awaiting_next"
	case GameOver:
		return "game_over"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Idle, AwaitingAnswer, Resolving, AwaitingNext, GameOver} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// State is a point-in-time copy of the game.
type State struct {
	Phase          Phase           `json:"phase"`
	QuestionNumber int             `json:"questionNumber"`
	TotalQuestions int             `json:"totalQuestions"`
	Turn           Side            `json:"turn"`
	Scores         [2]PlayerScore  `json:"scores"`
	TimeRemaining  int             `json:"timeRemaining"`
	Thinking       bool            `json:"thinking"`
	Question       domain.Question `json:"question"`
	Answers        []int           `json:"answers"`
}

// Options wires collaborators into a Machine. Nil fields get defaults.
type Options struct {
	Scheduler Scheduler
	Rand      *rand.Rand
	Questions QuestionSource
	Renderer  Renderer
	Recorder  ScoreRecorder
	Logger    *zap.Logger
	Clock     func() time.Time
	Timing    Timing
}

// Machine is the turn controller for one game. It is not safe for concurrent
// use: every method and every scheduled callback must run on one goroutine.
// Loop provides that guarantee for wall-clock schedulers.
type Machine struct {
	cfg       Config
	timing    Timing
	sched     Scheduler
	source    QuestionSource
	opponent  *Opponent
	render    Renderer
	recorder  ScoreRecorder
	log       *zap.Logger
	now       func() time.Time
	countdown *Countdown

	phase      Phase
	epoch      uint64
	number     int
	turn       Side
	ledger     Ledger
	thinking   bool
	question   domain.Question
	answers    []int
	correctIdx int
	startedAt  time.Time
	pending    func() bool
	done       chan struct{}
}

func NewMachine(cfg Config, opts Options) *Machine {
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Questions == nil {
		opts.Questions = NewGenerator(opts.Rand)
	}
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	timing := opts.Timing.withDefaults()

	return &Machine{
		cfg:       cfg.Normalize(),
		timing:    timing,
		sched:     opts.Scheduler,
		source:    opts.Questions,
		opponent:  NewOpponent(opts.Rand, timing.ThinkMin, timing.ThinkMax),
		render:    opts.Renderer,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		now:       opts.Clock,
		countdown: NewCountdown(opts.Scheduler, timing.Tick),
		done:      make(chan struct{}),
	}
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Done is closed once the game is over and every score record has been attempted.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Start begins the game with question 1 on Player1's turn.
func (m *Machine) Start() error {
	if m.phase != Idle {
		return ErrAlreadyStarted
	}
	m.startedAt = m.now()
	m.number = 1
	m.turn = Player1
	m.log.Debug("arena started",
		zap.String("player1", m.cfg.Player1),
		zap.String("player2", m.cfg.Player2),
		zap.String("mode", string(m.cfg.Mode)),
		zap.String("difficulty", string(m.cfg.Difficulty)),
	)
	m.present()
	return nil
}

// Select applies a human pick of choice (0-based) for the current turn.
func (m *Machine) Select(choice int) error {
	if m.phase == GameOver {
		return ErrGameOver
	}
	if m.phase != AwaitingAnswer || m.thinking || m.computerTurn() {
		m.log.Debug("selection ignored", zap.Stringer("phase", m.phase), zap.Bool("thinking", m.thinking))
		return ErrInputDisabled
	}
	if choice < 0 || choice >= len(m.answers) {
		return ErrInvalidChoice
	}
	m.resolve(choice, false)
	return nil
}

// Advance presents the next question after a resolution.
func (m *Machine) Advance() error {
	if m.phase == GameOver {
		return ErrGameOver
	}
	if m.phase != AwaitingNext {
		return ErrNotAwaitingNext
	}
	m.present()
	return nil
}

// Abort voids every pending callback without rendering a summary or persisting.
func (m *Machine) Abort() {
	if m.phase == GameOver {
		return
	}
	m.phase = GameOver
	m.epoch++
	m.cancelPending()
	m.countdown.Stop()
	m.thinking = false
	close(m.done)
}

func (m *Machine) State() State {
	answers := make([]int, len(m.answers))
	copy(answers, m.answers)
	return State{
		Phase:          m.phase,
		QuestionNumber: m.number,
		TotalQuestions: m.cfg.TotalQuestions,
		Turn:           m.turn,
		Scores:         m.ledger.Snapshot(),
		TimeRemaining:  m.countdown.Remaining(),
		Thinking:       m.thinking,
		Question:       m.question,
		Answers:        answers,
	}
}

func (m *Machine) computerTurn() bool {
	return m.cfg.Mode == domain.SinglePlayer && m.turn == Player2
}

func (m *Machine) present() {
	m.epoch++
	m.cancelPending()
	epoch := m.epoch

	m.question = m.source.Question(m.cfg.Difficulty)
	m.answers = m.source.Answers(m.question.Answer, m.cfg.Difficulty)
	m.correctIdx = indexOf(m.answers, m.question.Answer)
	m.thinking = m.computerTurn()
	m.phase = AwaitingAnswer

	m.render.Question(QuestionView{
		Number:        m.number,
		Total:         m.cfg.TotalQuestions,
		Turn:          m.turn,
		PlayerName:    m.cfg.Name(m.turn),
		Text:          m.question.Text(),
		Answers:       append([]int(nil), m.answers...),
		TimeRemaining: m.timing.TimeLimit,
		ComputerTurn:  m.thinking,
		Scores:        m.ledger.Snapshot(),
	})
	m.countdown.Start(m.timing.TimeLimit, m.render.Tick, func() { m.expire(epoch) })

	if m.thinking {
		m.pending = m.sched.AfterFunc(m.opponent.ThinkingDelay(), func() { m.computerMove(epoch) })
	}
}

func (m *Machine) computerMove(epoch uint64) {
	if epoch != m.epoch || m.phase != AwaitingAnswer || !m.thinking {
		return
	}
	m.pending = nil
	m.thinking = false
	choice := m.opponent.Choose(m.answers, m.question.Answer, m.cfg.Difficulty)
	m.resolve(choice, true)
}

func (m *Machine) resolve(choice int, fromComputer bool) {
	m.countdown.Stop()
	m.phase = Resolving

	correct := m.answers[choice] == m.question.Answer
	m.ledger.Record(m.turn, correct)
	m.render.Reveal(RevealView{
		Responder: m.turn,
		Correct:   m.correctIdx,
		Selected:  choice,
		Scores:    m.ledger.Snapshot(),
	})
	if !fromComputer {
		m.render.Feedback(correct)
	}

	epoch := m.epoch
	m.pending = m.sched.AfterFunc(m.timing.ResolveDelay, func() { m.afterResolve(epoch) })
}

func (m *Machine) expire(epoch uint64) {
	if epoch != m.epoch || m.phase != AwaitingAnswer {
		return
	}
	m.cancelPending()
	m.thinking = false
	m.phase = Resolving
	m.render.Reveal(RevealView{
		Responder: m.turn,
		Correct:   m.correctIdx,
		Selected:  -1,
		TimedOut:  true,
		Scores:    m.ledger.Snapshot(),
	})
	m.afterResolve(epoch)
}

func (m *Machine) afterResolve(epoch uint64) {
	if epoch != m.epoch || m.phase != Resolving {
		return
	}
	m.pending = nil
	if m.number >= m.cfg.TotalQuestions {
		m.finish()
		return
	}
	m.number++
	m.turn = m.turn.Other()
	m.phase = AwaitingNext
	m.render.Next(NextView{
		Number:     m.number,
		Turn:       m.turn,
		PlayerName: m.cfg.Name(m.turn),
	})
	if m.timing.AutoAdvance > 0 {
		m.pending = m.sched.AfterFunc(m.timing.AutoAdvance, func() {
			if epoch == m.epoch && m.phase == AwaitingNext {
				m.present()
			}
		})
	}
}

func (m *Machine) finish() {
	m.phase = GameOver
	m.epoch++
	m.cancelPending()
	m.countdown.Stop()
	m.thinking = false

	m.render.Summary(m.summary())

	records := m.records()
	go m.persist(records)
}

func (m *Machine) summary() Summary {
	var s Summary
	for _, side := range []Side{Player1, Player2} {
		score := m.ledger.Get(side)
		s.Players[side] = PlayerResult{
			Name:    m.cfg.Name(side),
			Score:   score.Score,
			Correct: score.Correct,
			Points:  m.ledger.Points(side),
		}
	}
	switch {
	case s.Players[Player1].Score > s.Players[Player2].Score:
		s.Winner = Player1
	case s.Players[Player2].Score > s.Players[Player1].Score:
		s.Winner = Player2
	default:
		s.Tie = true
	}
	return s
}

func (m *Machine) records() []domain.ScoreRecord {
	if m.cfg.SessionID <= 0 {
		return nil
	}
	elapsed := int(m.now().Sub(m.startedAt) / time.Second)
	record := func(side Side, userID int64) domain.ScoreRecord {
		score := m.ledger.Get(side)
		return domain.ScoreRecord{
			SessionID:      m.cfg.SessionID,
			UserID:         userID,
			Score:          m.ledger.Points(side),
			CorrectAnswers: score.Correct,
			TotalQuestions: m.cfg.TotalQuestions,
			TimeSpent:      elapsed,
		}
	}

	var out []domain.ScoreRecord
	if m.cfg.Player1ID > 0 {
		out = append(out, record(Player1, m.cfg.Player1ID))
	}
	if m.cfg.Player2ID > 0 && m.cfg.Mode == domain.Multiplayer {
		out = append(out, record(Player2, m.cfg.Player2ID))
	}
	return out
}

func (m *Machine) persist(records []domain.ScoreRecord) {
	defer close(m.done)
	if m.recorder == nil {
		return
	}
	for _, rec := range records {
		ctx, cancel := context.WithTimeout(context.Background(), m.timing.PersistTimeout)
		id, err := m.recorder.RecordScore(ctx, rec)
		cancel()
		if err != nil {
			m.log.Warn("failed to save score",
				zap.Int64("session_id", rec.SessionID),
				zap.Int64("user_id", rec.UserID),
				zap.Error(err),
			)
			continue
		}
		m.log.Info("score saved",
			zap.Int64("score_id", id),
			zap.Int64("user_id", rec.UserID),
			zap.Int("score", rec.Score),
		)
	}
}

func (m *Machine) cancelPending() {
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}
}
