package models

import "time"

// User представляет пользователя в системе
type User struct {
	ID           string     `json:"id"`                   // UUID пользователя
	Username     string     `json:"username"`             // уникальный username
	Email        string     `json:"email"`                // уникальный email
	PasswordHash string     `json:"-"`                    // bcrypt хеш пароля, наружу не отдаем
	Generations  int        `json:"generations"`          // счетчик успешных генераций
	CreatedAt    time.Time  `json:"created_at"`           // время создания
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего входа
}

// GeneratedImage представляет метаданные сгенерированного изображения
type GeneratedImage struct {
	Name      string    `json:"name"`       // имя файла (uuid.png)
	Username  string    `json:"username"`   // кто сгенерировал
	Prompt    string    `json:"prompt"`     // исходный текстовый запрос
	CreatedAt time.Time `json:"created_at"` // время генерации
}
