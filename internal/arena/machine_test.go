package arena

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const resolveDelay = 1500 * time.Millisecond

func newTestMachine(t *testing.T, cfg Config, rec ScoreRecorder) (*Machine, *manualScheduler, *recordingRenderer) {
	t.Helper()
	sched := newManualScheduler()
	r := &recordingRenderer{}
	m := NewMachine(cfg, Options{
		Scheduler: sched,
		Rand:      rand.New(rand.NewSource(1)),
		Questions: scriptedSource{},
		Renderer:  r,
		Recorder:  rec,
		Clock:     sched.Now,
	})
	return m, sched, r
}

func multiplayerConfig() Config {
	return Config{Player1: "Ana", Player2: "Ben", Mode: domain.Multiplayer, Difficulty: domain.Easy}
}

// answer selects a choice and waits out the resolution delay.
func answer(t *testing.T, m *Machine, sched *manualScheduler, choice int) {
	t.Helper()
	require.NoError(t, m.Select(choice))
	sched.Advance(resolveDelay)
}

func waitDone(t *testing.T, m *Machine) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("machine did not finish persisting")
	}
}

func TestTurnsAlternateRegardlessOfCorrectness(t *testing.T) {
	m, sched, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())

	choices := []int{scriptedCorrect, scriptedCorrect, scriptedWrong, scriptedWrong, scriptedCorrect,
		scriptedWrong, scriptedCorrect, scriptedCorrect, scriptedWrong, scriptedCorrect}
	for i, choice := range choices {
		answer(t, m, sched, choice)
		if i < len(choices)-1 {
			require.Equal(t, AwaitingNext, m.State().Phase)
			require.NoError(t, m.Advance())
		}
	}

	require.Len(t, r.questions, DefaultTotalQuestions)
	for i, q := range r.questions {
		want := Player1
		if i%2 == 1 {
			want = Player2
		}
		require.Equal(t, want, q.Turn, "question %d", i+1)
		require.Equal(t, i+1, q.Number)
	}
	require.Len(t, r.nexts, DefaultTotalQuestions-1)
	require.Len(t, r.summaries, 1)
	require.Equal(t, GameOver, m.State().Phase)
	waitDone(t, m)
}

func TestScoreIncrementsOnlyForCorrectResponder(t *testing.T) {
	m, sched, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())

	require.NoError(t, m.Select(scriptedCorrect))
	require.Equal(t, [2]PlayerScore{{Score: 1, Correct: 1}, {}}, m.State().Scores)
	require.Equal(t, []bool{true}, r.feedback)
	sched.Advance(resolveDelay)
	require.NoError(t, m.Advance())

	require.NoError(t, m.Select(scriptedWrong))
	require.Equal(t, [2]PlayerScore{{Score: 1, Correct: 1}, {}}, m.State().Scores)
	require.Equal(t, []bool{true, false}, r.feedback)

	last := r.reveals[len(r.reveals)-1]
	require.Equal(t, Player2, last.Responder)
	require.Equal(t, scriptedCorrect, last.Correct)
	require.Equal(t, scriptedWrong, last.Selected)
}

func TestFourPlusThreeScenario(t *testing.T) {
	m, _, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())

	q := r.questions[0]
	require.Equal(t, "4 + 3 = ?", q.Text)
	require.Equal(t, 10, q.TimeRemaining)
	require.Equal(t, 0, m.State().Scores[Player1].Score)

	require.NoError(t, m.Select(scriptedCorrect))
	require.Equal(t, 1, m.State().Scores[Player1].Score)
}

func TestGameEndsAfterTotalQuestions(t *testing.T) {
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 3
	m, sched, r := newTestMachine(t, cfg, nil)
	require.NoError(t, m.Start())

	answer(t, m, sched, scriptedCorrect)
	require.NoError(t, m.Advance())
	answer(t, m, sched, scriptedCorrect)
	require.Equal(t, 0, r.summaryCount())
	require.NoError(t, m.Advance())
	answer(t, m, sched, scriptedCorrect)

	require.Equal(t, 1, r.summaryCount())
	require.ErrorIs(t, m.Advance(), ErrGameOver)
	require.ErrorIs(t, m.Select(0), ErrGameOver)
	require.Equal(t, 0, sched.pending())
	waitDone(t, m)
}

func TestTimeoutCountsAsWrongAndAdvancesTurn(t *testing.T) {
	m, sched, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())

	sched.Advance(10 * time.Second)

	st := m.State()
	require.Equal(t, AwaitingNext, st.Phase)
	require.Equal(t, Player2, st.Turn)
	require.Equal(t, 2, st.QuestionNumber)
	require.Equal(t, [2]PlayerScore{}, st.Scores)
	require.Equal(t, 0, st.TimeRemaining)

	require.Len(t, r.reveals, 1)
	require.True(t, r.reveals[0].TimedOut)
	require.Equal(t, -1, r.reveals[0].Selected)
	require.Equal(t, scriptedCorrect, r.reveals[0].Correct)
	require.Empty(t, r.feedback)
	require.Len(t, r.ticks, 10)
}

func TestTimeoutOnLastQuestionEndsGame(t *testing.T) {
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 1
	m, sched, r := newTestMachine(t, cfg, nil)
	require.NoError(t, m.Start())

	sched.Advance(10 * time.Second)

	require.Equal(t, GameOver, m.State().Phase)
	require.Equal(t, 1, r.summaryCount())
	require.True(t, r.summaries[0].Tie)
	waitDone(t, m)
}

func TestFirstEventWinsAndStaleCallbacksAreIgnored(t *testing.T) {
	m, sched, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())

	sched.Advance(4 * time.Second)
	require.NoError(t, m.Select(scriptedCorrect))
	require.ErrorIs(t, m.Select(scriptedWrong), ErrInputDisabled)
	require.ErrorIs(t, m.Advance(), ErrNotAwaitingNext)

	sched.Advance(30 * time.Second)
	require.Len(t, r.reveals, 1)
	require.Equal(t, AwaitingNext, m.State().Phase)
	require.Equal(t, 6, m.State().TimeRemaining)
}

func TestInvalidChoiceIsRejected(t *testing.T) {
	m, _, _ := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())
	require.ErrorIs(t, m.Select(4), ErrInvalidChoice)
	require.ErrorIs(t, m.Select(-1), ErrInvalidChoice)
	require.Equal(t, AwaitingAnswer, m.State().Phase)
	require.ErrorIs(t, m.Start(), ErrAlreadyStarted)
}

func TestComputerTurnLocksHumanInput(t *testing.T) {
	cfg := Config{Player1: "Ana", Mode: domain.SinglePlayer, Difficulty: domain.Hard}
	m, sched, r := newTestMachine(t, cfg, nil)
	require.NoError(t, m.Start())

	answer(t, m, sched, scriptedCorrect)
	require.NoError(t, m.Advance())

	st := m.State()
	require.Equal(t, Player2, st.Turn)
	require.True(t, st.Thinking)
	require.True(t, r.questions[1].ComputerTurn)
	require.Equal(t, ComputerName, r.questions[1].PlayerName)
	require.ErrorIs(t, m.Select(scriptedCorrect), ErrInputDisabled)

	sched.Advance(1500 * time.Millisecond)
	require.Len(t, r.reveals, 2)
	require.Equal(t, Player2, r.reveals[1].Responder)
	require.False(t, m.State().Thinking)
	require.Len(t, r.feedback, 1, "computer moves get no feedback")

	require.ErrorIs(t, m.Select(scriptedCorrect), ErrInputDisabled)
	sched.Advance(resolveDelay)
	require.Equal(t, Player1, m.State().Turn)
	require.Equal(t, AwaitingNext, m.State().Phase)
}

func TestComputerPlaysWholeGame(t *testing.T) {
	cfg := Config{Mode: domain.SinglePlayer, Difficulty: domain.Moderate}
	m, sched, r := newTestMachine(t, cfg, nil)
	require.NoError(t, m.Start())

	for i := 0; i < DefaultTotalQuestions; i++ {
		if m.State().Turn == Player1 {
			require.NoError(t, m.Select(scriptedWrong))
		}
		sched.Advance(1500*time.Millisecond + resolveDelay)
		if i < DefaultTotalQuestions-1 {
			require.NoError(t, m.Advance())
		}
	}

	require.Equal(t, GameOver, m.State().Phase)
	require.Len(t, r.summaries, 1)
	s := r.summaries[0]
	require.Equal(t, DefaultPlayer1, s.Players[Player1].Name)
	require.Equal(t, ComputerName, s.Players[Player2].Name)
	require.Equal(t, 0, s.Players[Player1].Score)
	waitDone(t, m)
}

func TestWinnerAndPersistedRecords(t *testing.T) {
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 14
	cfg.Player1ID = 1
	cfg.Player2ID = 2
	cfg.SessionID = 9
	rec := &fakeRecorder{}
	m, sched, r := newTestMachine(t, cfg, rec)
	require.NoError(t, m.Start())

	p2Correct := 0
	for i := 0; i < cfg.TotalQuestions; i++ {
		choice := scriptedCorrect
		if m.State().Turn == Player2 {
			if p2Correct == 5 {
				choice = scriptedWrong
			} else {
				p2Correct++
			}
		}
		answer(t, m, sched, choice)
		if i < cfg.TotalQuestions-1 {
			require.NoError(t, m.Advance())
		}
	}

	require.Len(t, r.summaries, 1)
	s := r.summaries[0]
	require.False(t, s.Tie)
	require.Equal(t, Player1, s.Winner)
	require.Equal(t, "Ana", s.WinnerName())
	require.Equal(t, 700, s.Players[Player1].Points)
	require.Equal(t, 500, s.Players[Player2].Points)

	waitDone(t, m)
	saved := rec.saved()
	require.Equal(t, []domain.ScoreRecord{
		{SessionID: 9, UserID: 1, Score: 700, CorrectAnswers: 7, TotalQuestions: 14, TimeSpent: 21},
		{SessionID: 9, UserID: 2, Score: 500, CorrectAnswers: 5, TotalQuestions: 14, TimeSpent: 21},
	}, saved)
}

func TestComputerIsNeverPersisted(t *testing.T) {
	cfg := Config{Mode: domain.SinglePlayer, TotalQuestions: 1, Player1ID: 3, Player2ID: 4, SessionID: 5}
	rec := &fakeRecorder{}
	m, sched, _ := newTestMachine(t, cfg, rec)
	require.NoError(t, m.Start())
	answer(t, m, sched, scriptedCorrect)
	waitDone(t, m)

	saved := rec.saved()
	require.Len(t, saved, 1)
	require.Equal(t, int64(3), saved[0].UserID)
	require.Equal(t, 100, saved[0].Score)
}

func TestNothingPersistedWithoutSession(t *testing.T) {
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 1
	cfg.Player1ID = 1
	rec := &fakeRecorder{}
	m, sched, _ := newTestMachine(t, cfg, rec)
	require.NoError(t, m.Start())
	answer(t, m, sched, scriptedCorrect)
	waitDone(t, m)
	require.Empty(t, rec.saved())
}

func TestPersistenceFailureStillRendersSummary(t *testing.T) {
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 2
	cfg.Player1ID = 1
	cfg.Player2ID = 2
	cfg.SessionID = 7

	rec := &mockRecorder{}
	rec.On("RecordScore", mock.Anything, mock.AnythingOfType("domain.ScoreRecord")).
		Return(int64(0), errors.New("network unreachable")).Twice()

	m, sched, r := newTestMachine(t, cfg, rec)
	require.NoError(t, m.Start())
	answer(t, m, sched, scriptedCorrect)
	require.NoError(t, m.Advance())
	answer(t, m, sched, scriptedWrong)

	require.Len(t, r.summaries, 1)
	require.Equal(t, 1, r.summaries[0].Players[Player1].Score)
	require.Equal(t, 0, r.summaries[0].Players[Player2].Score)
	require.Equal(t, Player1, r.summaries[0].Winner)

	waitDone(t, m)
	rec.AssertExpectations(t)
}

func TestAutoAdvance(t *testing.T) {
	sched := newManualScheduler()
	r := &recordingRenderer{}
	cfg := multiplayerConfig()
	cfg.TotalQuestions = 2
	m := NewMachine(cfg, Options{
		Scheduler: sched,
		Questions: scriptedSource{},
		Renderer:  r,
		Clock:     sched.Now,
		Timing:    Timing{AutoAdvance: 500 * time.Millisecond},
	})
	require.NoError(t, m.Start())
	require.NoError(t, m.Select(scriptedCorrect))
	sched.Advance(resolveDelay + 500*time.Millisecond)

	require.Len(t, r.questions, 2)
	require.Equal(t, AwaitingAnswer, m.State().Phase)
}

func TestAbortCancelsEverything(t *testing.T) {
	m, sched, r := newTestMachine(t, multiplayerConfig(), nil)
	require.NoError(t, m.Start())
	m.Abort()
	sched.Advance(time.Minute)

	require.Empty(t, r.reveals)
	require.Empty(t, r.summaries)
	require.Equal(t, 0, sched.pending())
	waitDone(t, m)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Mode: "bogus", Difficulty: "extreme"}.Normalize()
	require.Equal(t, DefaultPlayer1, c.Player1)
	require.Equal(t, ComputerName, c.Player2)
	require.Equal(t, domain.SinglePlayer, c.Mode)
	require.Equal(t, domain.Easy, c.Difficulty)
	require.Equal(t, DefaultTotalQuestions, c.TotalQuestions)

	c = Config{Mode: domain.Multiplayer}.Normalize()
	require.Equal(t, DefaultPlayer2, c.Player2)
}
