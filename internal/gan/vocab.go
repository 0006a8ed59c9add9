package gan

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// unknownTokenIndex — строка embedding матрицы для неизвестных токенов
// Первая строка словаря зарезервирована под <unk>
const unknownTokenIndex = 0

// vocabulary маппит токены на строки embedding матрицы
type vocabulary struct {
	index map[string]int
	size  int
}

// loadVocabulary reads a vocabulary file: one token per line,
// line number = embedding row
func loadVocabulary(path string) (*vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	index := make(map[string]int)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}
		if _, exists := index[token]; exists {
			return nil, fmt.Errorf("duplicate token %q in vocabulary", token)
		}
		index[token] = len(index)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	return &vocabulary{index: index, size: len(index)}, nil
}

// lookup возвращает индекс токена, для неизвестных — unknownTokenIndex
func (v *vocabulary) lookup(token string) int {
	if idx, ok := v.index[token]; ok {
		return idx
	}
	return unknownTokenIndex
}

// tokenize нормализует текст: lowercase, только буквы и цифры,
// остальное считается разделителем
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}
