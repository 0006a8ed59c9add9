package api

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	Username string `json:"username"` // username пользователя
	Email    string `json:"email"`    // email пользователя
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// SignupResponse представляет ответ на успешную регистрацию
type SignupResponse struct {
	Message string `json:"message"` // сообщение об успешной регистрации
}

// TokenResponse представляет ответ с access token
// Формат совместим с OAuth2 password flow
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	TokenType   string `json:"token_type"`   // всегда "bearer"
	Username    string `json:"username"`     // username аутентифицированного пользователя
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
