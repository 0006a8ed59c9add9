package gan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// hiddenLayerNames — скрытые слои генератора в порядке прохода
var hiddenLayerNames = []string{"fc1", "fc2", "fc3"}

// layer — один полносвязный слой: y = W*x + b
type layer struct {
	w *mat.Dense
	b *mat.VecDense
}

// generatorNet — полносвязная сеть, отображающая (noise ++ embedding)
// в пиксели изображения в диапазоне [-1, 1].
// Скрытые слои с ReLU, выходной слой с tanh.
type generatorNet struct {
	hidden    []layer
	out       layer
	noiseDim  int
	embedDim  int
	imageSize int
}

// newGeneratorNet собирает генератор из загруженных тензоров.
// Размерности выводятся из форм весов: noiseDim — из входа первого слоя,
// размер изображения — из выхода последнего (3 канала RGB).
func newGeneratorNet(tensors map[string]*mat.Dense, embedDim int) (*generatorNet, error) {
	loadLayer := func(name string) (layer, error) {
		w, err := tensorByName(tensors, name+".weight")
		if err != nil {
			return layer{}, err
		}
		bDense, err := tensorByName(tensors, name+".bias")
		if err != nil {
			return layer{}, err
		}
		b, err := columnToVec(bDense, name+".bias")
		if err != nil {
			return layer{}, err
		}
		rows, _ := w.Dims()
		if b.Len() != rows {
			return layer{}, fmt.Errorf("layer %q: bias len (%d) does not match weight rows (%d)", name, b.Len(), rows)
		}
		return layer{w: w, b: b}, nil
	}

	hidden := make([]layer, 0, len(hiddenLayerNames))
	for _, name := range hiddenLayerNames {
		l, err := loadLayer(name)
		if err != nil {
			return nil, err
		}
		hidden = append(hidden, l)
	}

	out, err := loadLayer("out")
	if err != nil {
		return nil, err
	}

	// Проверяем сцепление слоев
	prevRows := -1
	for i, l := range hidden {
		rows, cols := l.w.Dims()
		if i > 0 && cols != prevRows {
			return nil, fmt.Errorf("layer %q input (%d) does not match previous output (%d)", hiddenLayerNames[i], cols, prevRows)
		}
		prevRows = rows
	}
	outRows, outCols := out.w.Dims()
	if outCols != prevRows {
		return nil, fmt.Errorf("output layer input (%d) does not match previous output (%d)", outCols, prevRows)
	}

	// Вход первого слоя = noise ++ embedding
	_, inputDim := hidden[0].w.Dims()
	noiseDim := inputDim - embedDim
	if noiseDim <= 0 {
		return nil, fmt.Errorf("first layer input (%d) is not larger than embed dim (%d)", inputDim, embedDim)
	}

	// Выход — RGB изображение size x size
	if outRows%3 != 0 {
		return nil, fmt.Errorf("output size (%d) is not divisible by 3 channels", outRows)
	}
	size := int(math.Sqrt(float64(outRows / 3)))
	if size*size*3 != outRows {
		return nil, fmt.Errorf("output size (%d) is not a square RGB image", outRows)
	}

	return &generatorNet{
		hidden:    hidden,
		out:       out,
		noiseDim:  noiseDim,
		embedDim:  embedDim,
		imageSize: size,
	}, nil
}

// Forward выполняет прямой проход сети.
// Все буферы локальны для вызова, веса только читаются —
// одновременные вызовы из разных goroutine безопасны.
func (g *generatorNet) Forward(noise, embed *mat.VecDense) (*mat.VecDense, error) {
	if noise.Len() != g.noiseDim {
		return nil, fmt.Errorf("noise dim mismatch: got %d, want %d", noise.Len(), g.noiseDim)
	}
	if embed.Len() != g.embedDim {
		return nil, fmt.Errorf("embed dim mismatch: got %d, want %d", embed.Len(), g.embedDim)
	}

	// Конкатенация noise ++ embedding
	input := make([]float64, g.noiseDim+g.embedDim)
	copy(input, noise.RawVector().Data)
	copy(input[g.noiseDim:], embed.RawVector().Data)

	x := mat.NewVecDense(len(input), input)

	for _, l := range g.hidden {
		rows, _ := l.w.Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(l.w, x)
		y.AddVec(y, l.b)

		// ReLU
		for i := 0; i < y.Len(); i++ {
			if y.AtVec(i) < 0 {
				y.SetVec(i, 0)
			}
		}
		x = y
	}

	rows, _ := g.out.w.Dims()
	y := mat.NewVecDense(rows, nil)
	y.MulVec(g.out.w, x)
	y.AddVec(y, g.out.b)

	// tanh держит выход в [-1, 1]
	for i := 0; i < y.Len(); i++ {
		y.SetVec(i, math.Tanh(y.AtVec(i)))
	}

	return y, nil
}
