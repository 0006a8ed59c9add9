package gan

import (
	"errors"
	"fmt"
)

// Ошибки генерации, различимые на границе пайплайна
var (
	// ErrEmptyPrompt indicates that the prompt is empty after trimming
	ErrEmptyPrompt = errors.New("prompt must not be empty")

	// ErrNotReady indicates that model artifacts are not loaded yet
	ErrNotReady = errors.New("models are not loaded")
)

// errNoTokens — в запросе не осталось ни одного токена после нормализации
var errNoTokens = errors.New("prompt contains no encodable tokens")

// LoadError описывает фатальную ошибку загрузки артефакта модели
// Возникает только на старте процесса
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model artifact %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GenerationError оборачивает внутреннюю ошибку инференса
// Причина сохраняется для логирования, но не уходит клиенту
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("image generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
