package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Spkap/GATIS/internal/models"
	"github.com/Spkap/GATIS/internal/server/storage"
)

// ImageStore определяет интерфейс чтения сохраненных изображений
type ImageStore interface {
	Get(ctx context.Context, name string) (*models.GeneratedImage, error)
	FilePath(name string) string
}

// ImagesHandler отдает ранее сгенерированные изображения
type ImagesHandler struct {
	logger *slog.Logger
	store  ImageStore
}

// NewImagesHandler creates a new images handler
func NewImagesHandler(logger *slog.Logger, store ImageStore) *ImagesHandler {
	return &ImagesHandler{
		logger: logger,
		store:  store,
	}
}

// GetImage обрабатывает GET /images/{name}
// Отдаются только изображения, записанные в индекс:
// имя из URL никогда не попадает в путь напрямую
func (h *ImagesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.PathValue("name")
	if name == "" {
		sendError(h.logger, w, "image name is required", http.StatusBadRequest)
		return
	}

	img, err := h.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			sendError(h.logger, w, "image not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get image metadata", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Content-Type выставит ServeFile по расширению .png;
	// так ошибка чтения файла не уйдет клиенту с неверным типом
	http.ServeFile(w, r, h.store.FilePath(img.Name))
}
