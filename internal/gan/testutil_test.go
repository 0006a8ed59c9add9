package gan

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Тестовая архитектура маленькая, чтобы фикстуры оставались легкими:
// tokenDim 8, embedDim 16, noiseDim 10, изображение 8x8
const (
	testTokenDim  = 8
	testEmbedDim  = 16
	testNoiseDim  = 10
	testImageSize = 8
)

var testVocabTokens = []string{"<unk>", "a", "red", "blue", "bird", "flower", "on", "the", "tree"}

// namedTensor — тензор для записи в тестовый файл весов
type namedTensor struct {
	name string
	rows int
	cols int
	data []float64 // nil = заполнить псевдослучайно
}

// encodeWeights сериализует тензоры в формат файла весов
func encodeWeights(t *testing.T, tensors []namedTensor) []byte {
	t.Helper()

	rng := rand.New(rand.NewPCG(7, 13))

	var buf bytes.Buffer
	buf.WriteString(weightsMagic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(weightsVersion)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(tensors))))

	for _, tensor := range tensors {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(tensor.name))))
		buf.WriteString(tensor.name)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(tensor.rows)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(tensor.cols)))

		data := tensor.data
		if data == nil {
			data = make([]float64, tensor.rows*tensor.cols)
			for i := range data {
				data[i] = rng.NormFloat64() * 0.5
			}
		}
		require.Len(t, data, tensor.rows*tensor.cols)

		for _, v := range data {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(v)))
		}
	}

	return buf.Bytes()
}

// writeWeightsFile записывает тестовый файл весов на диск
func writeWeightsFile(t *testing.T, dir, name string, tensors []namedTensor) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodeWeights(t, tensors), 0o644))
	return path
}

// writeVocabFile записывает тестовый словарь на диск
func writeVocabFile(t *testing.T, dir string, tokens []string) string {
	t.Helper()

	var buf bytes.Buffer
	for _, token := range tokens {
		buf.WriteString(token)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// encoderTensors возвращает согласованный набор тензоров энкодера
func encoderTensors(vocabSize int) []namedTensor {
	return []namedTensor{
		{name: "embedding.weight", rows: vocabSize, cols: testTokenDim},
		{name: "projection.weight", rows: testEmbedDim, cols: testTokenDim},
		{name: "projection.bias", rows: testEmbedDim, cols: 1},
	}
}

// generatorTensors возвращает согласованный набор тензоров генератора
func generatorTensors() []namedTensor {
	inputDim := testNoiseDim + testEmbedDim
	outDim := testImageSize * testImageSize * 3

	return []namedTensor{
		{name: "fc1.weight", rows: 32, cols: inputDim},
		{name: "fc1.bias", rows: 32, cols: 1},
		{name: "fc2.weight", rows: 48, cols: 32},
		{name: "fc2.bias", rows: 48, cols: 1},
		{name: "fc3.weight", rows: 64, cols: 48},
		{name: "fc3.bias", rows: 64, cols: 1},
		{name: "out.weight", rows: outDim, cols: 64},
		{name: "out.bias", rows: outDim, cols: 1},
	}
}

// loadTestRegistry собирает готовый Registry из тестовых артефактов
func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()

	dir := t.TempDir()
	vocabPath := writeVocabFile(t, dir, testVocabTokens)
	encoderPath := writeWeightsFile(t, dir, "encoder.gatw", encoderTensors(len(testVocabTokens)))
	generatorPath := writeWeightsFile(t, dir, "generator.gatw", generatorTensors())

	registry, err := LoadRegistry(generatorPath, encoderPath, vocabPath)
	require.NoError(t, err)
	require.True(t, registry.Ready())

	return registry
}
