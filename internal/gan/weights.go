package gan

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Формат файла весов (little-endian):
//
//	magic "GATW" | uint32 version | uint32 tensorCount
//	для каждого тензора:
//	    uint16 nameLen | name | uint32 rows | uint32 cols | rows*cols float32
//
// Файлы экспортируются из обучающего пайплайна одним скриптом,
// поэтому формат максимально простой.
const (
	weightsMagic   = "GATW"
	weightsVersion = 1

	// maxTensorElems ограничивает размер одного тензора (защита от битых файлов)
	maxTensorElems = 64 << 20
)

// loadTensors reads all named tensors from a weights file
func loadTensors(path string) (map[string]*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	// Проверяем magic
	magic := make([]byte, len(weightsMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != weightsMagic {
		return nil, fmt.Errorf("unexpected magic %q, want %q", magic, weightsMagic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != weightsVersion {
		return nil, fmt.Errorf("unsupported weights version %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read tensor count: %w", err)
	}

	tensors := make(map[string]*mat.Dense, count)

	for i := uint32(0); i < count; i++ {
		name, t, err := readTensor(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor %d: %w", i, err)
		}
		if _, exists := tensors[name]; exists {
			return nil, fmt.Errorf("duplicate tensor %q", name)
		}
		tensors[name] = t
	}

	return tensors, nil
}

// readTensor читает один именованный тензор
func readTensor(r io.Reader) (string, *mat.Dense, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", nil, fmt.Errorf("failed to read name length: %w", err)
	}
	if nameLen == 0 {
		return "", nil, fmt.Errorf("empty tensor name")
	}

	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return "", nil, fmt.Errorf("failed to read name: %w", err)
	}
	name := string(nameBytes)

	var rows, cols uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return "", nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return "", nil, fmt.Errorf("failed to read cols: %w", err)
	}

	if rows == 0 || cols == 0 {
		return "", nil, fmt.Errorf("tensor %q has zero dimension %dx%d", name, rows, cols)
	}
	elems := uint64(rows) * uint64(cols)
	if elems > maxTensorElems {
		return "", nil, fmt.Errorf("tensor %q is too large: %d elements", name, elems)
	}

	// Читаем float32 данные и конвертируем в float64 для gonum
	raw := make([]float32, elems)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return "", nil, fmt.Errorf("failed to read data of %q: %w", name, err)
	}

	data := make([]float64, elems)
	for i, v := range raw {
		data[i] = float64(v)
	}

	return name, mat.NewDense(int(rows), int(cols), data), nil
}

// tensorByName достает тензор по имени с проверкой наличия
func tensorByName(tensors map[string]*mat.Dense, name string) (*mat.Dense, error) {
	t, ok := tensors[name]
	if !ok {
		return nil, fmt.Errorf("missing tensor %q", name)
	}
	return t, nil
}

// columnToVec конвертирует тензор-столбец (n x 1) в вектор
func columnToVec(t *mat.Dense, name string) (*mat.VecDense, error) {
	rows, cols := t.Dims()
	if cols != 1 {
		return nil, fmt.Errorf("tensor %q must be a column vector, got %dx%d", name, rows, cols)
	}

	data := make([]float64, rows)
	for i := 0; i < rows; i++ {
		data[i] = t.At(i, 0)
	}

	return mat.NewVecDense(rows, data), nil
}
