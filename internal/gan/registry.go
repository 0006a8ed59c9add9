// Package gan загружает предобученные артефакты text-to-image модели
// и выполняет инференс: текстовый запрос -> PNG изображение.
package gan

import (
	"fmt"
	"sync/atomic"
)

// Registry держит загруженные модели. Заполняется один раз на старте
// процесса, после этого только читается — инференс из любого числа
// goroutine не требует блокировок.
type Registry struct {
	encoder   *textEncoder
	generator *generatorNet
	ready     atomic.Bool
}

// LoadRegistry loads the generator and the text encoder artifacts.
// Either both load successfully or the returned *LoadError is fatal:
// a half-initialized registry is never observable.
func LoadRegistry(generatorPath, encoderPath, vocabPath string) (*Registry, error) {
	vocab, err := loadVocabulary(vocabPath)
	if err != nil {
		return nil, &LoadError{Path: vocabPath, Err: err}
	}

	encTensors, err := loadTensors(encoderPath)
	if err != nil {
		return nil, &LoadError{Path: encoderPath, Err: err}
	}

	encoder, err := newTextEncoder(vocab, encTensors)
	if err != nil {
		return nil, &LoadError{Path: encoderPath, Err: err}
	}

	genTensors, err := loadTensors(generatorPath)
	if err != nil {
		return nil, &LoadError{Path: generatorPath, Err: err}
	}

	generator, err := newGeneratorNet(genTensors, encoder.EmbedDim())
	if err != nil {
		return nil, &LoadError{Path: generatorPath, Err: err}
	}

	r := &Registry{
		encoder:   encoder,
		generator: generator,
	}
	r.ready.Store(true)

	return r, nil
}

// Ready reports whether both model artifacts are loaded
func (r *Registry) Ready() bool {
	return r != nil && r.ready.Load()
}

// ImageSize returns the side of the generated square image in pixels
func (r *Registry) ImageSize() (int, error) {
	if !r.Ready() {
		return 0, fmt.Errorf("registry is not ready")
	}
	return r.generator.imageSize, nil
}
