package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Spkap/GATIS/internal/gan"
	"github.com/Spkap/GATIS/internal/models"
	"github.com/Spkap/GATIS/internal/server/storage"
	"github.com/Spkap/GATIS/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

// UsernameKey ключ для хранения username в контексте
// Устанавливается AuthMiddleware после валидации токена
const UsernameKey contextKey = "username"

// GetUsername извлекает username из контекста запроса
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GenerationLimit — максимальное число успешных генераций на пользователя
const GenerationLimit = 100

// ImageGenerator определяет интерфейс инференс-пайплайна
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ImageSaver определяет интерфейс сохранения сгенерированного изображения
type ImageSaver interface {
	Save(ctx context.Context, img *models.GeneratedImage, data []byte) error
}

// GenerateHandler обрабатывает запросы на генерацию изображений.
// Порядок шагов фиксированный: auth -> квота -> инференс -> сохранение -> инкремент счетчика.
type GenerateHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	pipeline    ImageGenerator
	images      ImageSaver
}

// NewGenerateHandler creates a new generation handler
func NewGenerateHandler(logger *slog.Logger, userStorage storage.UserStorage, pipeline ImageGenerator, images ImageSaver) *GenerateHandler {
	return &GenerateHandler{
		logger:      logger,
		userStorage: userStorage,
		pipeline:    pipeline,
		images:      images,
	}
}

// Generate обрабатывает POST /generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Получаем username из контекста (установлен AuthMiddleware)
	username, ok := GetUsername(ctx)
	if !ok {
		h.logger.Error("username not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Токен мог пережить аккаунт — проверяем, что пользователь существует
	user, err := h.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "token subject does not exist", slog.String("username", username))
			sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Проверяем квоту до какой-либо работы с моделями
	if user.Generations >= GenerationLimit {
		h.logger.WarnContext(ctx, "generation limit reached",
			slog.String("username", username),
			slog.Int("generations", user.Generations))
		sendError(h.logger, w, "generation limit reached", http.StatusPaymentRequired)
		return
	}

	// Парсим request body
	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode generate request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Запускаем инференс
	imageBytes, err := h.pipeline.Generate(ctx, req.Prompt)
	if err != nil {
		h.respondPipelineError(ctx, w, err)
		return
	}

	img := &models.GeneratedImage{
		Name:      uuid.New().String() + ".png",
		Username:  username,
		Prompt:    req.Prompt,
		CreatedAt: time.Now(),
	}

	if err := h.images.Save(ctx, img, imageBytes); err != nil {
		h.logger.ErrorContext(ctx, "failed to save generated image", slog.Any("error", err))
		sendError(h.logger, w, "image generation failed", http.StatusInternalServerError)
		return
	}

	// Инкремент счетчика best-effort: изображение уже сгенерировано,
	// ошибка бухгалтерии не должна ломать успешный ответ
	if err := h.userStorage.IncrementGenerations(ctx, username); err != nil {
		h.logger.ErrorContext(ctx, "failed to increment generation counter",
			slog.String("username", username),
			slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "image generated successfully",
		slog.String("username", username),
		slog.String("image", img.Name))

	resp := api.GenerateResponse{
		Message:  "Image generated successfully",
		ImageURL: "/images/" + img.Name,
		Username: username,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// respondPipelineError маппит ошибки пайплайна на HTTP статусы.
// Внутренняя причина инференс-ошибки остается в логах.
func (h *GenerateHandler) respondPipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gan.ErrEmptyPrompt):
		sendError(h.logger, w, "prompt must not be empty", http.StatusBadRequest)
	case errors.Is(err, gan.ErrNotReady):
		h.logger.WarnContext(ctx, "generation requested before models loaded")
		sendError(h.logger, w, "models are not loaded yet", http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "image generation failed", slog.Any("error", err))
		sendError(h.logger, w, "image generation failed", http.StatusInternalServerError)
	}
}
