package arena

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"github.com/stretchr/testify/mock"
)

// manualScheduler fires callbacks in due-time order when the test advances it.
type manualScheduler struct {
	base  time.Time
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at        time.Duration
	seq       int
	f         func()
	done      bool
	cancelled bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{base: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.seq++
	t := &manualTask{at: s.now + d, seq: s.seq, f: f}
	s.tasks = append(s.tasks, t)
	return func() bool {
		if t.done || t.cancelled {
			return false
		}
		t.cancelled = true
		return true
	}
}

func (s *manualScheduler) Now() time.Time {
	return s.base.Add(s.now)
}

// Advance moves the clock forward by d, firing every task that becomes due.
func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.done = true
		next.f()
	}
	s.now = target
}

func (s *manualScheduler) nextDue(target time.Duration) *manualTask {
	var due []*manualTask
	for _, t := range s.tasks {
		if !t.done && !t.cancelled && t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (s *manualScheduler) pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			n++
		}
	}
	return n
}

// scriptedSource always asks 4 + 3 with 7 at index 1.
type scriptedSource struct{}

func (scriptedSource) Question(domain.Difficulty) domain.Question {
	return domain.NewQuestion(domain.Add, 4, 3)
}

func (scriptedSource) Answers(int, domain.Difficulty) []int {
	return []int{5, 7, 6, 9}
}

const (
	scriptedCorrect = 1
	scriptedWrong   = 0
)

type recordingRenderer struct {
	mu        sync.Mutex
	questions []QuestionView
	ticks     []Tick
	reveals   []RevealView
	feedback  []bool
	nexts     []NextView
	summaries []Summary
}

func (r *recordingRenderer) Question(v QuestionView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, v)
}

func (r *recordingRenderer) Tick(t Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
}

func (r *recordingRenderer) Reveal(v RevealView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reveals = append(r.reveals, v)
}

func (r *recordingRenderer) Feedback(correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, correct)
}

func (r *recordingRenderer) Next(v NextView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nexts = append(r.nexts, v)
}

func (r *recordingRenderer) Summary(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

func (r *recordingRenderer) summaryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.ScoreRecord
	err     error
}

func (f *fakeRecorder) RecordScore(_ context.Context, rec domain.ScoreRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, rec)
	return int64(len(f.records)), nil
}

func (f *fakeRecorder) saved() []domain.ScoreRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ScoreRecord(nil), f.records...)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordScore(ctx context.Context, rec domain.ScoreRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}
