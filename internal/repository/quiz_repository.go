package repository

import (
	"errors"

	"github.com/ltkhang/quizcore/internal/model"
	"gorm.io/gorm"
)

type QuizRepository interface {
	Create(quiz *model.Quiz) error
	FindByIDWithQuestions(id uint) (*model.Quiz, error)
	FindActiveByIDWithQuestions(id uint) (*model.Quiz, error)
	FindAllActiveWithQuestionCount() ([]struct {
		model.Quiz
		QuestionCount int
	}, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(quiz *model.Quiz) error {
	// GORM creates the associated questions along with the quiz.
	return r.db.Create(quiz).Error
}

func (r *quizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_quiz ASC")
	}).First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindActiveByIDWithQuestions(id uint) (*model.Quiz, error) {
	quiz, err := r.FindByIDWithQuestions(id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, model.ErrQuizInactive
	}
	return quiz, nil
}

func (r *quizRepository) FindAllActiveWithQuestionCount() ([]struct {
	model.Quiz
	QuestionCount int
}, error) {
	var results []struct {
		model.Quiz
		QuestionCount int
	}
	err := r.db.Model(&model.Quiz{}).
		Select("quizzes.*, (SELECT COUNT(*) FROM questions WHERE questions.quiz_id = quizzes.id AND questions.deleted_at IS NULL) as question_count").
		Where("quizzes.is_active = ? AND quizzes.deleted_at IS NULL", true).
		Order("quizzes.created_at DESC").
		Scan(&results).Error
	return results, err
}
