package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ltkhang/quizcore/internal/cache"
	"github.com/ltkhang/quizcore/internal/dto"
	"github.com/ltkhang/quizcore/internal/model"
	"github.com/ltkhang/quizcore/internal/repository"
	"github.com/rs/zerolog/log"
)

// QuizService is the read side of quiz definitions plus the admin seed path.
// ActiveQuiz is the engine's point-in-time read used to build attempt
// snapshots; it goes through a redis read-through cache when one is wired.
type QuizService interface {
	GetAllQuizzes() ([]dto.QuizSummaryDTO, error)
	GetQuizDetails(quizID uint) (*dto.QuizDetailDTO, error)
	ActiveQuiz(quizID uint) (*model.Quiz, error)
	QuizByID(quizID uint) (*model.Quiz, error)
	CreateQuiz(req dto.CreateQuizRequest) (*dto.QuizDetailDTO, error)
}

type quizService struct {
	quizRepo repository.QuizRepository
	redis    *cache.RedisClient
	cacheTTL time.Duration
}

func NewQuizService(quizRepo repository.QuizRepository, redis *cache.RedisClient, cacheTTL time.Duration) QuizService {
	return &quizService{quizRepo: quizRepo, redis: redis, cacheTTL: cacheTTL}
}

func (s *quizService) GetAllQuizzes() ([]dto.QuizSummaryDTO, error) {
	quizzesWithCount, err := s.quizRepo.FindAllActiveWithQuestionCount()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get quizzes with question count from repository")
		return nil, fmt.Errorf("error fetching quizzes: %w", err)
	}

	var dtos []dto.QuizSummaryDTO
	for _, qwc := range quizzesWithCount {
		dtos = append(dtos, dto.QuizSummaryDTO{
			ID:               qwc.Quiz.ID,
			Title:            qwc.Quiz.Title,
			Description:      qwc.Quiz.Description,
			PassingScore:     qwc.Quiz.PassingScore,
			TimeLimitMinutes: qwc.Quiz.TimeLimitMinutes,
			AttemptsAllowed:  qwc.Quiz.AttemptsAllowed,
			IsRequired:       qwc.Quiz.IsRequired,
			QuestionCount:    qwc.QuestionCount,
			CreatedAt:        qwc.Quiz.CreatedAt,
		})
	}
	return dtos, nil
}

func (s *quizService) GetQuizDetails(quizID uint) (*dto.QuizDetailDTO, error) {
	quiz, err := s.ActiveQuiz(quizID)
	if err != nil {
		return nil, err
	}
	return quizDetailDTO(quiz), nil
}

// quizDetailDTO projects a quiz for students: question views never carry
// correct answers.
func quizDetailDTO(quiz *model.Quiz) *dto.QuizDetailDTO {
	detail := &dto.QuizDetailDTO{
		ID:               quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		PassingScore:     quiz.PassingScore,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		AttemptsAllowed:  quiz.AttemptsAllowed,
		IsRequired:       quiz.IsRequired,
		CreatedAt:        quiz.CreatedAt,
	}
	for _, q := range quiz.Questions {
		var options []string
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &options); err != nil {
				log.Warn().Err(err).Uint("questionID", q.ID).Msg("Failed to decode question options for detail view")
			}
		}
		detail.Questions = append(detail.Questions, dto.QuestionViewDTO{
			Index:   q.OrderInQuiz,
			Text:    q.Text,
			Type:    q.Type,
			Options: options,
			Points:  q.Points,
		})
	}
	return detail
}

func (s *quizService) quizCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:active:%d", quizID)
}

func (s *quizService) ActiveQuiz(quizID uint) (*model.Quiz, error) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		raw, err := s.redis.Get(ctx, s.quizCacheKey(quizID))
		if err == nil {
			var quiz model.Quiz
			if jsonErr := json.Unmarshal([]byte(raw), &quiz); jsonErr == nil {
				return &quiz, nil
			}
			log.Warn().Uint("quizID", quizID).Msg("Corrupt quiz cache entry, falling back to database")
		} else if !cache.IsMiss(err) {
			log.Warn().Err(err).Uint("quizID", quizID).Msg("Redis read failed, falling back to database")
		}
	}

	quiz, err := s.quizRepo.FindActiveByIDWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if raw, jsonErr := json.Marshal(quiz); jsonErr == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if setErr := s.redis.Set(ctx, s.quizCacheKey(quizID), raw, s.cacheTTL); setErr != nil {
				log.Warn().Err(setErr).Uint("quizID", quizID).Msg("Failed to cache quiz definition")
			}
		}
	}
	return quiz, nil
}

func (s *quizService) QuizByID(quizID uint) (*model.Quiz, error) {
	// Inactive quizzes are still readable here: grading an in-flight attempt
	// of a since-deactivated quiz must keep working.
	return s.quizRepo.FindByIDWithQuestions(quizID)
}

func (s *quizService) CreateQuiz(req dto.CreateQuizRequest) (*dto.QuizDetailDTO, error) {
	quiz := model.Quiz{
		Title:            req.Title,
		Description:      req.Description,
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
		AttemptsAllowed:  req.AttemptsAllowed,
		IsRequired:       req.IsRequired,
		IsActive:         true,
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	for i, qReq := range req.Questions {
		question, err := buildQuestion(i, qReq)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.quizRepo.Create(&quiz); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create quiz")
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Delete(ctx, s.quizCacheKey(quiz.ID)); err != nil {
			log.Warn().Err(err).Uint("quizID", quiz.ID).Msg("Failed to invalidate quiz cache")
		}
	}

	return quizDetailDTO(&quiz), nil
}

// buildQuestion validates the per-type payload shape: an mcq needs options and
// a correct index inside them, true/false and short answer need their key.
func buildQuestion(index int, req dto.QuestionForQuizRequest) (model.Question, error) {
	question := model.Question{
		OrderInQuiz: index,
		Text:        req.Text,
		Type:        req.Type,
		Points:      req.Points,
	}

	switch req.Type {
	case model.QuestionTypeMCQ:
		if len(req.Options) < 2 {
			return model.Question{}, fmt.Errorf("question %d: mcq requires at least two options", index)
		}
		if req.CorrectIndex == nil || *req.CorrectIndex < 0 || *req.CorrectIndex >= len(req.Options) {
			return model.Question{}, fmt.Errorf("question %d: correct_index must point into options", index)
		}
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return model.Question{}, fmt.Errorf("question %d: failed to encode options: %w", index, err)
		}
		question.Options = raw
		question.CorrectIndex = req.CorrectIndex
	case model.QuestionTypeTrueFalse:
		if req.CorrectBool == nil {
			return model.Question{}, fmt.Errorf("question %d: correct_bool is required for true_false", index)
		}
		question.CorrectBool = req.CorrectBool
	case model.QuestionTypeShortAnswer:
		if req.CorrectText == nil || *req.CorrectText == "" {
			return model.Question{}, fmt.Errorf("question %d: correct_text is required for short_answer", index)
		}
		question.CorrectText = req.CorrectText
	default:
		return model.Question{}, fmt.Errorf("question %d: unknown type %q", index, req.Type)
	}

	return question, nil
}
