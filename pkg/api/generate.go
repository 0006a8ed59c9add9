package api

// GenerateRequest представляет запрос на генерацию изображения
type GenerateRequest struct {
	Prompt string `json:"prompt"` // текстовое описание изображения
}

// GenerateResponse представляет ответ на успешную генерацию
type GenerateResponse struct {
	Message  string `json:"message"`   // сообщение об успешной генерации
	ImageURL string `json:"image_url"` // относительный URL сгенерированного изображения
	Username string `json:"username"`  // кто сгенерировал
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status       string `json:"status"`        // "ok" или "starting"
	ModelsLoaded bool   `json:"models_loaded"` // загружены ли модели
}

// WelcomeResponse представляет ответ корневого эндпоинта
type WelcomeResponse struct {
	Message string `json:"message"`
}
