package service

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ltkhang/quizcore/internal/dto"
	"github.com/ltkhang/quizcore/internal/model"
)

// fakeClock drives simulated time for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeQuizService serves quiz definitions from memory.
type fakeQuizService struct {
	quizzes map[uint]*model.Quiz
}

func (f *fakeQuizService) ActiveQuiz(quizID uint) (*model.Quiz, error) {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return nil, model.ErrQuizNotFound
	}
	if !quiz.IsActive {
		return nil, model.ErrQuizInactive
	}
	return quiz, nil
}

func (f *fakeQuizService) QuizByID(quizID uint) (*model.Quiz, error) {
	quiz, ok := f.quizzes[quizID]
	if !ok {
		return nil, model.ErrQuizNotFound
	}
	return quiz, nil
}

func (f *fakeQuizService) GetAllQuizzes() ([]dto.QuizSummaryDTO, error)    { return nil, nil }
func (f *fakeQuizService) GetQuizDetails(uint) (*dto.QuizDetailDTO, error) { return nil, nil }
func (f *fakeQuizService) CreateQuiz(dto.CreateQuizRequest) (*dto.QuizDetailDTO, error) {
	return nil, nil
}

// fakeAttemptRepo mimics the repository contract in memory, including the
// conditional-write semantics of Finalize. finalizeWins counts how many
// scoring results were actually persisted.
type fakeAttemptRepo struct {
	mu           sync.Mutex
	nextID       uint
	attempts     map[uint]*model.Attempt
	finalizeWins int
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uint]*model.Attempt)}
}

func cloneAttempt(a *model.Attempt) *model.Attempt {
	clone := *a
	clone.Snapshot = append([]byte(nil), a.Snapshot...)
	clone.Answers = append([]byte(nil), a.Answers...)
	return &clone
}

func (f *fakeAttemptRepo) CreateIfAbsent(attempt *model.Attempt, attemptsAllowed int) (*model.Attempt, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	started := 0
	for _, existing := range f.attempts {
		if existing.StudentID != attempt.StudentID || existing.QuizID != attempt.QuizID {
			continue
		}
		if existing.Status == model.AttemptStatusInProgress {
			return cloneAttempt(existing), false, nil
		}
		started++
	}
	if attemptsAllowed >= 0 && started >= attemptsAllowed {
		return nil, false, model.ErrAttemptLimitExceeded
	}

	f.nextID++
	stored := cloneAttempt(attempt)
	stored.ID = f.nextID
	f.attempts[stored.ID] = stored
	return cloneAttempt(stored), true, nil
}

func (f *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok {
		return nil, model.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (f *fakeAttemptRepo) FindInProgress(studentID, quizID uint) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID && attempt.QuizID == quizID && attempt.Status == model.AttemptStatusInProgress {
			return cloneAttempt(attempt), nil
		}
	}
	return nil, model.ErrAttemptNotFound
}

func (f *fakeAttemptRepo) UpsertAnswer(attemptID uint, questionIndex int, record model.AnswerRecord) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[attemptID]
	if !ok {
		return nil, model.ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, model.ErrAttemptCompleted
	}

	records := make(map[int]model.AnswerRecord)
	if len(attempt.Answers) > 0 {
		if err := json.Unmarshal(attempt.Answers, &records); err != nil {
			return nil, err
		}
	}
	records[questionIndex] = record
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	attempt.Answers = raw
	return cloneAttempt(attempt), nil
}

func (f *fakeAttemptRepo) Finalize(attemptID uint, result model.AttemptResult) (*model.Attempt, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[attemptID]
	if !ok {
		return nil, false, model.ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusInProgress {
		// First writer won already; the stored record is canonical.
		return cloneAttempt(attempt), false, nil
	}

	attempt.Status = model.AttemptStatusCompleted
	attempt.CompletionReason = result.CompletionReason
	attempt.Score = result.Score
	attempt.TotalPoints = result.TotalPoints
	attempt.Percentage = result.Percentage
	attempt.Passed = result.Passed
	attempt.TimeTakenSeconds = result.TimeTakenSeconds
	completedAt := result.CompletedAt
	attempt.CompletedAt = &completedAt
	f.finalizeWins++
	return cloneAttempt(attempt), true, nil
}

func (f *fakeAttemptRepo) ListByStudentAndQuiz(studentID, quizID uint) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID && attempt.QuizID == quizID {
			out = append(out, *cloneAttempt(attempt))
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) ListInProgressStartedBefore(cutoff time.Time) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, attempt := range f.attempts {
		if attempt.Status == model.AttemptStatusInProgress && attempt.StartedAt.Before(cutoff) {
			out = append(out, *cloneAttempt(attempt))
		}
	}
	return out, nil
}

// fakeNotifier records activity events and can be made to fail.
type fakeNotifier struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, event ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.Event)
	}
	return names
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return raw
}

// twoMCQQuiz is scenario material: two 1-point MCQs, correct indexes 0 and 1.
func twoMCQQuiz(t *testing.T, quizID uint, passingScore, timeLimitMinutes, attemptsAllowed int) *model.Quiz {
	t.Helper()
	options := mustJSON(t, []string{"alpha", "beta", "gamma"})
	return &model.Quiz{
		ID:               quizID,
		Title:            "Unit quiz",
		PassingScore:     passingScore,
		TimeLimitMinutes: timeLimitMinutes,
		AttemptsAllowed:  attemptsAllowed,
		IsActive:         true,
		Questions: []model.Question{
			{QuizID: quizID, OrderInQuiz: 0, Text: "Q0", Type: model.QuestionTypeMCQ, Options: options, CorrectIndex: intPtr(0), Points: 1},
			{QuizID: quizID, OrderInQuiz: 1, Text: "Q1", Type: model.QuestionTypeMCQ, Options: options, CorrectIndex: intPtr(1), Points: 1},
		},
	}
}

type engineFixture struct {
	clock    *fakeClock
	quizzes  *fakeQuizService
	attempts *fakeAttemptRepo
	notifier *fakeNotifier
	service  AttemptService
}

func newEngineFixture(quizzes ...*model.Quiz) *engineFixture {
	clock := newFakeClock()
	quizService := &fakeQuizService{quizzes: make(map[uint]*model.Quiz)}
	for _, q := range quizzes {
		quizService.quizzes[q.ID] = q
	}
	attempts := newFakeAttemptRepo()
	notifier := &fakeNotifier{}
	svc := NewAttemptService(quizService, attempts, NewAnswerScorer(), NewTimerPolicy(clock.Now), notifier)
	return &engineFixture{clock: clock, quizzes: quizService, attempts: attempts, notifier: notifier, service: svc}
}

func startAttempt(t *testing.T, fx *engineFixture, studentID, quizID uint, retake bool) *dto.AttemptStateDTO {
	t.Helper()
	resp, err := fx.service.StartOrResume(studentID, quizID, retake)
	if err != nil {
		t.Fatalf("StartOrResume failed: %v", err)
	}
	if resp.Mode != dto.AttemptModeInProgress || resp.Attempt == nil {
		t.Fatalf("expected in_progress attempt, got mode=%q", resp.Mode)
	}
	return resp.Attempt
}

func TestStartAnswerSubmitPassBoundary(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)

	answers, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)}, // correct
		{QuestionIndex: 1, Answer: model.IndexAnswer(2)}, // wrong
	})
	if err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}
	for _, r := range answers.Results {
		if !r.Accepted {
			t.Fatalf("answer for index %d rejected: %s", r.QuestionIndex, r.Error)
		}
	}

	result, err := fx.service.Submit(attempt.ID, 7, false)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Score != 1 || result.TotalPoints != 2 {
		t.Fatalf("unexpected score %d/%d", result.Score, result.TotalPoints)
	}
	if result.Percentage != 50 {
		t.Fatalf("expected percentage 50, got %d", result.Percentage)
	}
	// passingScore == percentage is a pass: the boundary is inclusive.
	if !result.Passed {
		t.Fatal("expected passed at the boundary percentage")
	}
	if result.CompletionReason != model.CompletionReasonManual {
		t.Fatalf("expected manual completion, got %q", result.CompletionReason)
	}

	names := fx.notifier.eventNames()
	if len(names) != 2 || names[0] != ActivityQuizStarted || names[1] != ActivityQuizPassed {
		t.Fatalf("unexpected activity events: %v", names)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
	}); err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}

	first, err := fx.service.Submit(attempt.ID, 7, false)
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	second, err := fx.service.Submit(attempt.ID, 7, false)
	if err != nil {
		t.Fatalf("retried Submit failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("retried submit must return the identical stored result:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if fx.attempts.finalizeWins != 1 {
		t.Fatalf("attempt scored %d times, want exactly 1", fx.attempts.finalizeWins)
	}
}

func TestUntouchedAttemptTimesOutWithZeroScore(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 1, -1))

	attempt := startAttempt(t, fx, 7, 1, false)

	fx.clock.Advance(60 * time.Second)
	expired, err := fx.service.SweepExpired()
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired attempt, got %d", expired)
	}

	stored, err := fx.attempts.FindByID(attempt.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Status != model.AttemptStatusCompleted {
		t.Fatalf("expected completed, got %q", stored.Status)
	}
	if stored.CompletionReason != model.CompletionReasonTimeout {
		t.Fatalf("expected timeout reason, got %q", stored.CompletionReason)
	}
	if stored.Score != 0 || stored.Passed {
		t.Fatalf("zero answers must score zero and fail: score=%d passed=%v", stored.Score, stored.Passed)
	}
}

func TestAttemptLimitWithTimeoutAndRetake(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 10, 2))

	first := startAttempt(t, fx, 7, 1, false)

	// Attempt 1 times out untouched; the next start lazily finalizes it.
	fx.clock.Advance(10 * time.Minute)
	second := startAttempt(t, fx, 7, 1, true)
	if second.ID == first.ID {
		t.Fatal("expected a fresh attempt after the first expired")
	}

	firstStored, err := fx.attempts.FindByID(first.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if firstStored.Status != model.AttemptStatusCompleted || firstStored.CompletionReason != model.CompletionReasonTimeout {
		t.Fatalf("first attempt not finalized as timeout: %+v", firstStored)
	}
	if firstStored.Score != 0 {
		t.Fatalf("expected zero score for untouched timeout, got %d", firstStored.Score)
	}

	if _, err := fx.service.Submit(second.ID, 7, false); err != nil {
		t.Fatalf("Submit of second attempt failed: %v", err)
	}

	// Both allowed attempts are used up now.
	_, err = fx.service.StartOrResume(7, 1, true)
	if err != model.ErrAttemptLimitExceeded {
		t.Fatalf("expected ErrAttemptLimitExceeded, got %v", err)
	}
}

func TestUnlimitedAttemptsWhenAllowedIsMinusOne(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	var lastID uint
	for i := 0; i < 5; i++ {
		attempt := startAttempt(t, fx, 7, 1, true)
		if attempt.ID == lastID {
			t.Fatalf("iteration %d: expected a fresh attempt", i)
		}
		lastID = attempt.ID
		if _, err := fx.service.Submit(attempt.ID, 7, false); err != nil {
			t.Fatalf("iteration %d: Submit failed: %v", i, err)
		}
	}
}

func TestReviewModeAndExplicitRetake(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
		{QuestionIndex: 1, Answer: model.IndexAnswer(1)},
	}); err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}
	if _, err := fx.service.Submit(attempt.ID, 7, false); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Without retake the passed attempt comes back as a read-only review.
	resp, err := fx.service.StartOrResume(7, 1, false)
	if err != nil {
		t.Fatalf("StartOrResume (review) failed: %v", err)
	}
	if resp.Mode != dto.AttemptModeReview || resp.Review == nil {
		t.Fatalf("expected review mode, got %+v", resp)
	}
	if resp.Review.ID != attempt.ID {
		t.Fatalf("review must project the passed attempt, got attempt %d", resp.Review.ID)
	}
	if !resp.Review.Passed || len(resp.Review.Questions) != 2 {
		t.Fatalf("review projection incomplete: %+v", resp.Review)
	}

	// An explicit retake creates a fresh attempt with an empty answer map.
	retake := startAttempt(t, fx, 7, 1, true)
	if retake.ID == attempt.ID {
		t.Fatal("retake must create a new attempt row")
	}
	if len(retake.AnsweredIndexes) != 0 {
		t.Fatalf("fresh retake must have no recorded answers: %v", retake.AnsweredIndexes)
	}
}

func TestFailedAttemptNeverBlocksNewStart(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.Submit(attempt.ID, 7, false); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// No retake flag needed after a fail.
	next := startAttempt(t, fx, 7, 1, false)
	if next.ID == attempt.ID {
		t.Fatal("expected a fresh attempt after a failed one")
	}
}

func TestStartTwiceResumesExistingAttempt(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, 1))

	first := startAttempt(t, fx, 7, 1, false)

	resp, err := fx.service.StartOrResume(7, 1, false)
	if err != nil {
		t.Fatalf("second StartOrResume failed: %v", err)
	}
	if !resp.Resumed || resp.Attempt == nil || resp.Attempt.ID != first.ID {
		t.Fatalf("expected resume of attempt %d, got %+v", first.ID, resp)
	}
}

func TestInvalidAnswerTypeRejectsOnlyThatQuestion(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	resp, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.TextAnswer("alpha")}, // wrong shape for an mcq
		{QuestionIndex: 1, Answer: model.IndexAnswer(1)},
	})
	if err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 per-question results, got %d", len(resp.Results))
	}
	if resp.Results[0].Accepted || resp.Results[0].Error == "" {
		t.Fatalf("mismatched answer should be rejected: %+v", resp.Results[0])
	}
	if !resp.Results[1].Accepted {
		t.Fatalf("valid answer in the same batch must still apply: %+v", resp.Results[1])
	}
}

func TestReAnswerReplacesPriorValue(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 100, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(2)},
	}); err != nil {
		t.Fatalf("first RecordAnswers failed: %v", err)
	}
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
		{QuestionIndex: 1, Answer: model.IndexAnswer(1)},
	}); err != nil {
		t.Fatalf("second RecordAnswers failed: %v", err)
	}

	result, err := fx.service.Submit(attempt.ID, 7, false)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Score != 2 || !result.Passed {
		t.Fatalf("re-answer must be rescored: score=%d passed=%v", result.Score, result.Passed)
	}
}

func TestSubmitByOtherStudentIsUnauthorized(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.Submit(attempt.ID, 8, false); err != model.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := fx.service.RecordAnswers(attempt.ID, 8, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
	}); err != model.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestInactiveQuizRejectsStart(t *testing.T) {
	quiz := twoMCQQuiz(t, 1, 50, 0, -1)
	quiz.IsActive = false
	fx := newEngineFixture(quiz)

	if _, err := fx.service.StartOrResume(7, 1, false); err != model.ErrQuizInactive {
		t.Fatalf("expected ErrQuizInactive, got %v", err)
	}
}

func TestLateManualSubmitStillGraded(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 1, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
		{QuestionIndex: 1, Answer: model.IndexAnswer(1)},
	}); err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}

	// Client believes it submitted on time; the server clock disagrees.
	fx.clock.Advance(2 * time.Minute)
	result, err := fx.service.Submit(attempt.ID, 7, false)
	if err != nil {
		t.Fatalf("late Submit failed: %v", err)
	}
	if result.Score != 2 || !result.Passed {
		t.Fatalf("late submit must still be graded: %+v", result)
	}
	if result.CompletionReason != model.CompletionReasonTimeout {
		t.Fatalf("lateness must flip the reason to timeout, got %q", result.CompletionReason)
	}
	if result.TimeTakenSeconds != 120 {
		t.Fatalf("expected 120s taken, got %d", result.TimeTakenSeconds)
	}
}

func TestConcurrentSubmitsScoreExactlyOnce(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 1, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
	}); err != nil {
		t.Fatalf("RecordAnswers failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*dto.AttemptResultDTO, 2)
	errs := make([]error, 2)

	// One manual submit and one timeout-triggered expiry race to finalize.
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = fx.service.Submit(attempt.ID, 7, false)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = fx.service.Expire(attempt.ID)
	}()
	wg.Wait()

	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("submitter %d failed: %v", i, errs[i])
		}
	}
	if fx.attempts.finalizeWins != 1 {
		t.Fatalf("exactly one scoring result must be persisted, got %d", fx.attempts.finalizeWins)
	}
	if !reflect.DeepEqual(results[0], results[1]) {
		t.Fatalf("both submitters must observe the same final result:\nmanual:  %+v\ntimeout: %+v", results[0], results[1])
	}
}

func TestNotifierFailureNeverBlocksTransitions(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))
	fx.notifier.err = context.DeadlineExceeded

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.Submit(attempt.ID, 7, false); err != nil {
		t.Fatalf("Submit must succeed despite notifier failure: %v", err)
	}
}

func TestAnswersOnCompletedAttemptAreRejected(t *testing.T) {
	fx := newEngineFixture(twoMCQQuiz(t, 1, 50, 0, -1))

	attempt := startAttempt(t, fx, 7, 1, false)
	if _, err := fx.service.Submit(attempt.ID, 7, false); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := fx.service.RecordAnswers(attempt.ID, 7, []dto.AnswerSubmissionDTO{
		{QuestionIndex: 0, Answer: model.IndexAnswer(0)},
	}); err != model.ErrAttemptCompleted {
		t.Fatalf("expected ErrAttemptCompleted, got %v", err)
	}
}
