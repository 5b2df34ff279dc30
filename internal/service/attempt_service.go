package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jinzhu/copier"
	"github.com/ltkhang/quizcore/internal/dto"
	"github.com/ltkhang/quizcore/internal/model"
	"github.com/ltkhang/quizcore/internal/repository"
	"github.com/rs/zerolog/log"
)

// AttemptService is the attempt state machine. Attempts are created
// in_progress by StartOrResume, mutated only through RecordAnswers, and sealed
// exactly once by Submit or a timeout. Expiry is evaluated lazily on every
// access to an in_progress attempt, so no background scheduler is required for
// correctness; SweepExpired exists to proactively close long-idle attempts.
type AttemptService interface {
	StartOrResume(studentID, quizID uint, retake bool) (*dto.StartAttemptResponse, error)
	RecordAnswers(attemptID, studentID uint, answers []dto.AnswerSubmissionDTO) (*dto.RecordAnswersResponse, error)
	Submit(attemptID, studentID uint, isTimeout bool) (*dto.AttemptResultDTO, error)
	Expire(attemptID uint) (*dto.AttemptResultDTO, error)
	ListMyAttempts(studentID, quizID uint) ([]dto.AttemptSummaryDTO, error)
	SweepExpired() (int, error)
}

type attemptService struct {
	quizService QuizService
	attemptRepo repository.AttemptRepository
	scorer      AnswerScorer
	timer       TimerPolicy
	notifier    ActivityNotifier
}

func NewAttemptService(
	quizService QuizService,
	attemptRepo repository.AttemptRepository,
	scorer AnswerScorer,
	timer TimerPolicy,
	notifier ActivityNotifier,
) AttemptService {
	return &attemptService{
		quizService: quizService,
		attemptRepo: attemptRepo,
		scorer:      scorer,
		timer:       timer,
		notifier:    notifier,
	}
}

func (s *attemptService) StartOrResume(studentID, quizID uint, retake bool) (*dto.StartAttemptResponse, error) {
	quiz, err := s.quizService.ActiveQuiz(quizID)
	if err != nil {
		return nil, err
	}

	// Lazy expiry: an abandoned in_progress attempt whose deadline has passed
	// is finalized before any other decision is made.
	if existing, findErr := s.attemptRepo.FindInProgress(studentID, quizID); findErr == nil {
		if s.timer.IsExpired(existing, quiz.TimeLimitMinutes) {
			if _, expErr := s.finalizeAttempt(existing, quiz, model.CompletionReasonTimeout); expErr != nil {
				return nil, expErr
			}
		}
	}

	if !retake {
		attempts, listErr := s.attemptRepo.ListByStudentAndQuiz(studentID, quizID)
		if listErr != nil {
			return nil, listErr
		}
		for i := range attempts {
			if attempts[i].Status == model.AttemptStatusCompleted && attempts[i].Passed {
				review, dtoErr := attemptResultDTO(&attempts[i])
				if dtoErr != nil {
					return nil, dtoErr
				}
				return &dto.StartAttemptResponse{Mode: dto.AttemptModeReview, Review: review}, nil
			}
		}
	}

	snapshot, err := buildSnapshot(quiz)
	if err != nil {
		return nil, err
	}
	fresh := &model.Attempt{
		QuizID:    quizID,
		StudentID: studentID,
		Snapshot:  snapshot,
		Answers:   []byte("{}"),
		StartedAt: s.timer.Now(),
		Status:    model.AttemptStatusInProgress,
	}

	attempt, created, err := s.attemptRepo.CreateIfAbsent(fresh, quiz.AttemptsAllowed)
	if err != nil {
		return nil, err
	}
	if created {
		s.notify(studentID, quizID, ActivityQuizStarted)
	}

	state, err := attemptStateDTO(attempt, quiz.TimeLimitMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.StartAttemptResponse{
		Mode:     dto.AttemptModeInProgress,
		Resumed:  !created,
		Attempt:  state,
		Deadline: s.timer.Deadline(attempt, quiz.TimeLimitMinutes),
	}, nil
}

func (s *attemptService) RecordAnswers(attemptID, studentID uint, answers []dto.AnswerSubmissionDTO) (*dto.RecordAnswersResponse, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, model.ErrUnauthorized
	}

	quiz, err := s.quizService.QuizByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if s.timer.IsExpired(attempt, quiz.TimeLimitMinutes) {
		if _, expErr := s.finalizeAttempt(attempt, quiz, model.CompletionReasonTimeout); expErr != nil {
			return nil, expErr
		}
		return nil, model.ErrAttemptCompleted
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, model.ErrAttemptCompleted
	}

	snapshot, err := attempt.SnapshotQuestions()
	if err != nil {
		return nil, err
	}
	byIndex := make(map[int]model.QuestionSnapshot, len(snapshot))
	for _, q := range snapshot {
		byIndex[q.Index] = q
	}

	resp := &dto.RecordAnswersResponse{AttemptID: attemptID}
	for _, submission := range answers {
		question, ok := byIndex[submission.QuestionIndex]
		if !ok {
			resp.Results = append(resp.Results, dto.AnswerUpsertResultDTO{
				QuestionIndex: submission.QuestionIndex,
				Error:         fmt.Sprintf("no question at index %d", submission.QuestionIndex),
			})
			continue
		}
		// A type mismatch rejects this question only, never the whole batch.
		if !submission.Answer.MatchesType(question.Type) {
			resp.Results = append(resp.Results, dto.AnswerUpsertResultDTO{
				QuestionIndex: submission.QuestionIndex,
				Error:         model.ErrInvalidAnswerType.Error(),
			})
			continue
		}

		record := model.AnswerRecord{
			Answer:    submission.Answer,
			IsCorrect: s.scorer.IsCorrect(question, submission.Answer),
		}
		if _, upsertErr := s.attemptRepo.UpsertAnswer(attemptID, submission.QuestionIndex, record); upsertErr != nil {
			if upsertErr == model.ErrAttemptCompleted {
				// A concurrent finalize won; stop processing.
				resp.Results = append(resp.Results, dto.AnswerUpsertResultDTO{
					QuestionIndex: submission.QuestionIndex,
					Error:         upsertErr.Error(),
				})
				break
			}
			return nil, upsertErr
		}
		resp.Results = append(resp.Results, dto.AnswerUpsertResultDTO{
			QuestionIndex: submission.QuestionIndex,
			Accepted:      true,
		})
	}
	return resp, nil
}

func (s *attemptService) Submit(attemptID, studentID uint, isTimeout bool) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, model.ErrUnauthorized
	}

	// Duplicate or retried submit: return the canonical stored result, no
	// re-scoring, no error.
	if attempt.Status == model.AttemptStatusCompleted {
		return attemptResultDTO(attempt)
	}

	quiz, err := s.quizService.QuizByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	// A late manual submit is still graded; lateness only flips the reason.
	reason := model.CompletionReasonManual
	if isTimeout || s.timer.IsExpired(attempt, quiz.TimeLimitMinutes) {
		reason = model.CompletionReasonTimeout
	}

	return s.finalizeAttempt(attempt, quiz, reason)
}

func (s *attemptService) Expire(attemptID uint) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	return s.Submit(attemptID, attempt.StudentID, true)
}

// finalizeAttempt runs the single scoring pass and hands the result to the
// repository's conditional write. If another caller already completed the
// attempt, the winner's stored record is returned unchanged.
func (s *attemptService) finalizeAttempt(attempt *model.Attempt, quiz *model.Quiz, reason string) (*dto.AttemptResultDTO, error) {
	snapshot, err := attempt.SnapshotQuestions()
	if err != nil {
		return nil, err
	}
	records, err := attempt.AnswerMap()
	if err != nil {
		return nil, err
	}

	// Unanswered questions score zero; they never block finalization.
	score := 0
	for _, q := range snapshot {
		if record, ok := records[q.Index]; ok && record.IsCorrect {
			score += q.Points
		}
	}
	totalPoints := s.scorer.TotalPoints(snapshot)

	percentage := 0
	if totalPoints > 0 {
		percentage = int(math.Round(float64(score) / float64(totalPoints) * 100))
	}

	now := s.timer.Now()
	result := model.AttemptResult{
		CompletionReason: reason,
		Score:            score,
		TotalPoints:      totalPoints,
		Percentage:       percentage,
		Passed:           percentage >= quiz.PassingScore,
		TimeTakenSeconds: int(now.Sub(attempt.StartedAt).Seconds()),
		CompletedAt:      now,
	}

	final, won, err := s.attemptRepo.Finalize(attempt.ID, result)
	if err != nil {
		return nil, err
	}
	if won {
		event := ActivityQuizFailed
		if final.Passed {
			event = ActivityQuizPassed
		}
		s.notify(final.StudentID, final.QuizID, event)
	}
	return attemptResultDTO(final)
}

func (s *attemptService) ListMyAttempts(studentID, quizID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.ListByStudentAndQuiz(studentID, quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Uint("studentID", studentID).Msg("Failed to list attempts from repository")
		return nil, fmt.Errorf("error fetching attempts for quiz %d: %w", quizID, err)
	}

	var dtos []dto.AttemptSummaryDTO
	for i := range attempts {
		var summary dto.AttemptSummaryDTO
		if err := copier.Copy(&summary, &attempts[i]); err != nil {
			log.Error().Err(err).Uint("attemptID", attempts[i].ID).Msg("Error copying attempt to summary DTO")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *attemptService) SweepExpired() (int, error) {
	candidates, err := s.attemptRepo.ListInProgressStartedBefore(s.timer.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		quiz, quizErr := s.quizService.QuizByID(candidates[i].QuizID)
		if quizErr != nil {
			log.Warn().Err(quizErr).Uint("attemptID", candidates[i].ID).Msg("Sweep: failed to load quiz for attempt")
			continue
		}
		if !s.timer.IsExpired(&candidates[i], quiz.TimeLimitMinutes) {
			continue
		}
		if _, expErr := s.finalizeAttempt(&candidates[i], quiz, model.CompletionReasonTimeout); expErr != nil {
			log.Warn().Err(expErr).Uint("attemptID", candidates[i].ID).Msg("Sweep: failed to finalize expired attempt")
			continue
		}
		expired++
	}
	return expired, nil
}

// notify emits a best-effort activity event. Failures are logged and never
// propagated; an attempt transition must not depend on the notifier.
func (s *attemptService) notify(studentID, quizID uint, event string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.notifier.Notify(ctx, NewActivityEvent(studentID, quizID, event, s.timer.Now())); err != nil {
		log.Warn().Err(err).Uint("quizID", quizID).Uint("studentID", studentID).Str("event", event).Msg("Failed to publish activity event")
	}
}

func buildSnapshot(quiz *model.Quiz) ([]byte, error) {
	snaps := make([]model.QuestionSnapshot, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		snap, err := model.NewQuestionSnapshot(q)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	raw, err := json.Marshal(snaps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot for quiz %d: %w", quiz.ID, err)
	}
	return raw, nil
}

func attemptStateDTO(attempt *model.Attempt, timeLimitMinutes int) (*dto.AttemptStateDTO, error) {
	snapshot, err := attempt.SnapshotQuestions()
	if err != nil {
		return nil, err
	}
	records, err := attempt.AnswerMap()
	if err != nil {
		return nil, err
	}

	state := &dto.AttemptStateDTO{
		ID:               attempt.ID,
		QuizID:           attempt.QuizID,
		StudentID:        attempt.StudentID,
		Status:           attempt.Status,
		StartedAt:        attempt.StartedAt,
		TimeLimitMinutes: timeLimitMinutes,
	}
	for _, q := range snapshot {
		state.Questions = append(state.Questions, dto.QuestionViewDTO{
			Index:   q.Index,
			Text:    q.Text,
			Type:    q.Type,
			Options: q.Options,
			Points:  q.Points,
		})
	}
	for idx := range records {
		state.AnsweredIndexes = append(state.AnsweredIndexes, idx)
	}
	sort.Ints(state.AnsweredIndexes)
	return state, nil
}

func attemptResultDTO(attempt *model.Attempt) (*dto.AttemptResultDTO, error) {
	snapshot, err := attempt.SnapshotQuestions()
	if err != nil {
		return nil, err
	}
	records, err := attempt.AnswerMap()
	if err != nil {
		return nil, err
	}

	result := &dto.AttemptResultDTO{
		ID:               attempt.ID,
		QuizID:           attempt.QuizID,
		StudentID:        attempt.StudentID,
		Status:           attempt.Status,
		CompletionReason: attempt.CompletionReason,
		Score:            attempt.Score,
		TotalPoints:      attempt.TotalPoints,
		Percentage:       attempt.Percentage,
		Passed:           attempt.Passed,
		TimeTakenSeconds: attempt.TimeTakenSeconds,
		StartedAt:        attempt.StartedAt,
		CompletedAt:      attempt.CompletedAt,
	}
	for _, q := range snapshot {
		line := dto.GradedQuestionDTO{
			Index:        q.Index,
			Text:         q.Text,
			Type:         q.Type,
			Options:      q.Options,
			Points:       q.Points,
			CorrectIndex: q.CorrectIndex,
			CorrectBool:  q.CorrectBool,
			CorrectText:  q.CorrectText,
		}
		if record, ok := records[q.Index]; ok {
			answer := record.Answer
			line.Answer = &answer
			line.IsCorrect = record.IsCorrect
			if record.IsCorrect {
				line.PointsEarned = q.Points
			}
		}
		result.Questions = append(result.Questions, line)
	}
	return result, nil
}
