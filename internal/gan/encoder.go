package gan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// textEncoder маппит текстовый запрос в embedding фиксированной размерности.
// Веса: "embedding.weight" (vocab x tokenDim), "projection.weight" (embedDim x tokenDim),
// "projection.bias" (embedDim x 1).
type textEncoder struct {
	vocab     *vocabulary
	embedding *mat.Dense
	projW     *mat.Dense
	projB     *mat.VecDense
	tokenDim  int
	embedDim  int
}

// newTextEncoder собирает энкодер из загруженных тензоров
// и проверяет согласованность размерностей
func newTextEncoder(vocab *vocabulary, tensors map[string]*mat.Dense) (*textEncoder, error) {
	embedding, err := tensorByName(tensors, "embedding.weight")
	if err != nil {
		return nil, err
	}

	projW, err := tensorByName(tensors, "projection.weight")
	if err != nil {
		return nil, err
	}

	projBDense, err := tensorByName(tensors, "projection.bias")
	if err != nil {
		return nil, err
	}
	projB, err := columnToVec(projBDense, "projection.bias")
	if err != nil {
		return nil, err
	}

	vocabRows, tokenDim := embedding.Dims()
	if vocabRows != vocab.size {
		return nil, fmt.Errorf("embedding rows (%d) do not match vocabulary size (%d)", vocabRows, vocab.size)
	}

	embedDim, projCols := projW.Dims()
	if projCols != tokenDim {
		return nil, fmt.Errorf("projection cols (%d) do not match token dim (%d)", projCols, tokenDim)
	}
	if projB.Len() != embedDim {
		return nil, fmt.Errorf("projection bias len (%d) does not match embed dim (%d)", projB.Len(), embedDim)
	}

	return &textEncoder{
		vocab:     vocab,
		embedding: embedding,
		projW:     projW,
		projB:     projB,
		tokenDim:  tokenDim,
		embedDim:  embedDim,
	}, nil
}

// EmbedDim returns the output embedding dimensionality
func (e *textEncoder) EmbedDim() int {
	return e.embedDim
}

// Encode превращает текст в embedding: mean pooling по токенам,
// затем линейная проекция с tanh. Веса только читаются,
// вызов безопасен из нескольких goroutine одновременно.
func (e *textEncoder) Encode(text string) (*mat.VecDense, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, errNoTokens
	}

	// Mean pooling embedding строк всех токенов
	pooled := make([]float64, e.tokenDim)
	for _, token := range tokens {
		row := e.embedding.RawRowView(e.vocab.lookup(token))
		for i, v := range row {
			pooled[i] += v
		}
	}
	for i := range pooled {
		pooled[i] /= float64(len(tokens))
	}

	// Линейная проекция + tanh
	out := mat.NewVecDense(e.embedDim, nil)
	out.MulVec(e.projW, mat.NewVecDense(e.tokenDim, pooled))
	out.AddVec(out, e.projB)

	for i := 0; i < out.Len(); i++ {
		out.SetVec(i, math.Tanh(out.AtVec(i)))
	}

	return out, nil
}
