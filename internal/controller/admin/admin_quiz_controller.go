package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ltkhang/quizcore/internal/dto"
	"github.com/ltkhang/quizcore/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminQuizController struct {
	quizService service.QuizService
}

func NewAdminQuizController(quizService service.QuizService) *AdminQuizController {
	return &AdminQuizController{quizService: quizService}
}

// CreateQuiz godoc
// @Summary (Admin) Create a quiz definition
// @Description Admin seeds a quiz with its questions. Each question payload must match its declared type (mcq needs options + correct_index, true_false needs correct_bool, short_answer needs correct_text).
// @Tags Admin - Quizzes
// @Accept json
// @Produce json
// @Param quiz_data body dto.CreateQuizRequest true "Quiz definition including questions"
// @Success 201 {object} dto.QuizDetailDTO "Quiz created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/quizzes [post]
func (c *AdminQuizController) CreateQuiz(ctx *gin.Context) {
	var req dto.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateQuiz: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	quizResp, err := c.quizService.CreateQuiz(req)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Admin CreateQuiz: Service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create quiz", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, quizResp)
}
