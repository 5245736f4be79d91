package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"edumint-quiz-service/internal/domain"
)

const (
	// QuestionCount is the size of every served quiz.
	QuestionCount = 5
	// PassingScore is the percentage required to record a passing attempt.
	PassingScore = 80.0
)

// AttemptStore persists the last passing attempt per wallet. Implementations
// live under internal/infra (file, memory, redis, postgres).
type AttemptStore interface {
	Get(ctx context.Context, wallet string) (time.Time, bool, error)
	RecordPass(ctx context.Context, wallet string, at time.Time) error
}

// QuestionProvider fetches a pool of candidate trivia questions.
type QuestionProvider interface {
	Fetch(ctx context.Context) ([]domain.TriviaItem, error)
}

// QuizService owns the active question set and the attempt gate. Only the most
// recently generated question set is scoreable; each GetQuiz call replaces it
// wholesale.
type QuizService struct {
	provider QuestionProvider
	attempts AttemptStore
	window   time.Duration
	now      func() time.Time
	rnd      *rand.Rand

	mu          sync.RWMutex
	questions   []domain.Question
	version     uint64
	subscribers map[chan []domain.Question]struct{}

	walletMu sync.Mutex
	wallets  map[string]*sync.Mutex
}

func NewQuizService(provider QuestionProvider, attempts AttemptStore, window time.Duration) *QuizService {
	return NewQuizServiceWithClock(provider, attempts, window, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(provider QuestionProvider, attempts AttemptStore, window time.Duration, now func() time.Time) *QuizService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &QuizService{
		provider:    provider,
		attempts:    attempts,
		window:      window,
		now:         now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		subscribers: make(map[chan []domain.Question]struct{}),
		wallets:     make(map[string]*sync.Mutex),
	}
}

// GetQuiz fetches a fresh pool from the provider, draws QuestionCount of them
// at random, shuffles each answer list, and replaces the active question set.
func (s *QuizService) GetQuiz(ctx context.Context) ([]domain.Question, error) {
	pool, err := s.provider.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	selected := s.drawLocked(pool)
	questions := make([]domain.Question, 0, len(selected))
	for i, item := range selected {
		answers := make([]string, 0, len(item.IncorrectAnswers)+1)
		answers = append(answers, item.IncorrectAnswers...)
		answers = append(answers, item.CorrectAnswer)
		s.rnd.Shuffle(len(answers), func(a, b int) {
			answers[a], answers[b] = answers[b], answers[a]
		})
		questions = append(questions, domain.Question{
			ID:      i,
			Text:    item.Question,
			Answers: answers,
			Correct: item.CorrectAnswer,
		})
	}
	s.questions = questions
	s.version++
	s.broadcastLocked()
	s.mu.Unlock()

	return questions, nil
}

// Submit validates, rate-gates, and scores a submission against the active
// question set. A passing score records the attempt timestamp synchronously;
// anything below the threshold leaves the store untouched so the wallet may
// retry immediately.
func (s *QuizService) Submit(ctx context.Context, wallet string, answers domain.AnswerSet) (domain.SubmissionResult, error) {
	if wallet == "" {
		return domain.SubmissionResult{}, domain.ErrWalletRequired
	}
	if !answers.Covers(QuestionCount) {
		return domain.SubmissionResult{}, domain.ErrIncompleteSubmission
	}

	// Serialize the gate check and pass write per wallet so two concurrent
	// submissions cannot both slip through the window.
	lock := s.walletLock(wallet)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	if last, ok, err := s.attempts.Get(ctx, wallet); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("attempt lookup: %w", err)
	} else if ok && now.Sub(last) < s.window {
		return domain.SubmissionResult{}, domain.ErrRateLimited
	}

	questions := s.snapshot()
	if len(questions) < QuestionCount {
		return domain.SubmissionResult{}, domain.ErrNoActiveQuiz
	}

	correct := 0
	for id, answer := range answers {
		if id < 0 || id >= len(questions) {
			continue
		}
		if answer == questions[id].Correct {
			correct++
		}
	}
	score := float64(correct) / QuestionCount * 100

	if score >= PassingScore {
		if err := s.attempts.RecordPass(ctx, wallet, now); err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("record pass: %w", err)
		}
		return domain.SubmissionResult{Success: true, Score: score}, nil
	}
	return domain.SubmissionResult{Success: false, Score: score}, nil
}

// Subscribe returns a channel receiving the question set each time it is
// replaced, starting with the current set if one exists. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe() (<-chan []domain.Question, func()) {
	ch := make(chan []domain.Question, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if len(s.questions) > 0 {
		// Sent under the lock so a concurrent replacement cannot enqueue a
		// newer set ahead of the snapshot; the buffer makes this non-blocking.
		ch <- s.questions
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Version reports how many times the question set has been replaced.
func (s *QuizService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// drawLocked removes uniformly random picks from pool until QuestionCount are
// taken or the pool runs dry. Result order follows selection order.
func (s *QuizService) drawLocked(pool []domain.TriviaItem) []domain.TriviaItem {
	remaining := make([]domain.TriviaItem, len(pool))
	copy(remaining, pool)

	selected := make([]domain.TriviaItem, 0, QuestionCount)
	for len(selected) < QuestionCount && len(remaining) > 0 {
		i := s.rnd.Intn(len(remaining))
		selected = append(selected, remaining[i])
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	return selected
}

func (s *QuizService) snapshot() []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions
}

func (s *QuizService) walletLock(wallet string) *sync.Mutex {
	s.walletMu.Lock()
	defer s.walletMu.Unlock()
	lock, ok := s.wallets[wallet]
	if !ok {
		lock = &sync.Mutex{}
		s.wallets[wallet] = lock
	}
	return lock
}

func (s *QuizService) broadcastLocked() {
	for ch := range s.subscribers {
		select {
		case ch <- s.questions:
		default:
			// Drop the stale update so a slow subscriber never blocks a refresh.
			select {
			case <-ch:
			default:
			}
			ch <- s.questions
		}
	}
}
