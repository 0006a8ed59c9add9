package gan

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Pipeline превращает текстовый запрос в PNG изображение.
// Состояния между вызовами нет, кроме read-only моделей в Registry.
type Pipeline struct {
	logger   *slog.Logger
	registry *Registry
	sem      chan struct{}
}

// NewPipeline creates a new inference pipeline over the registry.
// maxConcurrent bounds the number of simultaneous forward passes
// (the math is CPU-bound); <= 0 means runtime.NumCPU().
func NewPipeline(logger *slog.Logger, registry *Registry, maxConcurrent int) *Pipeline {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}

	return &Pipeline{
		logger:   logger,
		registry: registry,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Generate encodes the prompt, samples fresh latent noise and runs the
// generator forward pass, returning in-memory PNG bytes.
//
// Возвращаемые ошибки: ErrEmptyPrompt, ErrNotReady, *GenerationError.
// Никакие внутренние детали инференса наружу не уходят.
func (p *Pipeline) Generate(ctx context.Context, prompt string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if !p.registry.Ready() {
		return nil, ErrNotReady
	}

	// Ограничиваем число одновременных forward pass
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	embedding, err := p.registry.encoder.Encode(prompt)
	if err != nil {
		if errors.Is(err, errNoTokens) {
			return nil, ErrEmptyPrompt
		}
		return nil, &GenerationError{Err: err}
	}

	// Свежий шум на каждый вызов, без фиксированного seed:
	// одинаковые запросы дают разные изображения
	noise := sampleNoise(p.registry.generator.noiseDim)

	raw, err := p.registry.generator.Forward(noise, embedding)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	img := renderImage(raw, p.registry.generator.imageSize)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &GenerationError{Err: err}
	}

	p.logger.DebugContext(ctx, "image generated",
		slog.Int("prompt_len", len(prompt)),
		slog.Int("png_bytes", buf.Len()))

	return buf.Bytes(), nil
}

// sampleNoise возвращает вектор из стандартного нормального распределения
// Глобальный генератор math/rand/v2 безопасен для конкурентных вызовов
func sampleNoise(n int) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = rand.NormFloat64()
	}
	return mat.NewVecDense(n, data)
}

// renderImage конвертирует выход генератора [-1, 1] в RGBA пиксели.
// Layout выхода: interleaved RGB, строка за строкой.
func renderImage(raw *mat.VecDense, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			base := (y*size + x) * 3
			img.SetRGBA(x, y, color.RGBA{
				R: toPixel(raw.AtVec(base)),
				G: toPixel(raw.AtVec(base + 1)),
				B: toPixel(raw.AtVec(base + 2)),
				A: 255,
			})
		}
	}

	return img
}

// toPixel денормализует [-1, 1] -> [0, 1] с clamp против
// floating-point выбросов и переводит в байт
func toPixel(v float64) uint8 {
	v = (v + 1) / 2
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
