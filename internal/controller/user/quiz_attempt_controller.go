package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ltkhang/quizcore/internal/dto"
	"github.com/ltkhang/quizcore/internal/model"
	"github.com/ltkhang/quizcore/internal/service"
	"github.com/rs/zerolog/log"
)

type QuizAttemptController struct {
	quizService    service.QuizService
	attemptService service.AttemptService
}

func NewQuizAttemptController(quizService service.QuizService, attemptService service.AttemptService) *QuizAttemptController {
	return &QuizAttemptController{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// GetAllQuizzes godoc
// @Summary (User) List all active quizzes
// @Description Get a list of active quizzes with question counts.
// @Tags User - Quizzes & Attempts
// @Produce json
// @Success 200 {array} dto.QuizSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /quizzes [get]
func (c *QuizAttemptController) GetAllQuizzes(ctx *gin.Context) {
	quizzes, err := c.quizService.GetAllQuizzes()
	if err != nil {
		log.Error().Err(err).Msg("User GetAllQuizzes: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve quizzes", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, quizzes)
}

// GetQuizDetails godoc
// @Summary (User) Get details of a specific quiz
// @Description Get quiz metadata and questions (without correct answers) for a student to start an attempt.
// @Tags User - Quizzes & Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Quiz ID format"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found or inactive"
// @Router /quizzes/{quiz_id} [get]
func (c *QuizAttemptController) GetQuizDetails(ctx *gin.Context) {
	quizID, ok := parseIDParam(ctx, "quiz_id")
	if !ok {
		return
	}
	details, err := c.quizService.GetQuizDetails(quizID)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, details)
}

// StartOrResumeAttempt godoc
// @Summary (User) Start or resume a quiz attempt
// @Description Begins a new attempt, resumes an existing in_progress one, or returns a read-only review of a prior passed attempt. Set retake=true to force a fresh attempt despite an earlier pass.
// @Tags User - Quizzes & Attempts
// @Accept json
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Param start_data body dto.StartAttemptRequest true "Student ID and optional retake flag"
// @Success 200 {object} dto.StartAttemptResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found or inactive"
// @Failure 409 {object} dto.ErrorResponse "Attempt limit exceeded"
// @Router /quizzes/{quiz_id}/attempts [post]
func (c *QuizAttemptController) StartOrResumeAttempt(ctx *gin.Context) {
	quizID, ok := parseIDParam(ctx, "quiz_id")
	if !ok {
		return
	}
	var req dto.StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User StartOrResumeAttempt: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.attemptService.StartOrResume(req.StudentID, quizID, req.Retake)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RecordAnswers godoc
// @Summary (User) Record answers on an in-progress attempt
// @Description Batched per-question upsert. A type mismatch on one index rejects that index only; the rest of the batch is still applied. Safe to call incrementally or once at submit time.
// @Tags User - Quizzes & Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers_data body dto.RecordAnswersRequest true "Student ID and answers"
// @Success 200 {object} dto.RecordAnswersResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/answers [put]
func (c *QuizAttemptController) RecordAnswers(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.RecordAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User RecordAnswers: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.attemptService.RecordAnswers(attemptID, req.StudentID, req.Answers)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAttempt godoc
// @Summary (User) Submit an attempt for grading
// @Description Grades and seals the attempt. Idempotent: a re-submit of a completed attempt returns the stored result unchanged, so clients may retry unconditionally.
// @Tags User - Quizzes & Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param submit_data body dto.SubmitAttemptRequest true "Student ID and optional timeout flag"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/submit [post]
func (c *QuizAttemptController) SubmitAttempt(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User SubmitAttempt: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := c.attemptService.Submit(attemptID, req.StudentID, req.IsTimeout)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetMyAttempts godoc
// @Summary (User) List my attempts for a quiz
// @Description Summary list of a student's attempts, newest first.
// @Tags User - Quizzes & Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Param student_id query int true "Student ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /quizzes/{quiz_id}/my-attempts [get]
func (c *QuizAttemptController) GetMyAttempts(ctx *gin.Context) {
	quizID, ok := parseIDParam(ctx, "quiz_id")
	if !ok {
		return
	}
	studentIDStr := ctx.Query("student_id")
	studentID, err := strconv.ParseUint(studentIDStr, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Student ID format in query"})
		return
	}

	attempts, err := c.attemptService.ListMyAttempts(uint(studentID), quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("User GetMyAttempts: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve attempts", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// respondEngineError maps the engine error taxonomy onto HTTP statuses.
func respondEngineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrQuizNotFound), errors.Is(err, model.ErrAttemptNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, model.ErrQuizInactive):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, model.ErrUnauthorized):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, model.ErrAttemptLimitExceeded), errors.Is(err, model.ErrAttemptCompleted):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, model.ErrInvalidAnswerType):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error", Details: []string{err.Error()}})
	}
}
