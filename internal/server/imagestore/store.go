// Package imagestore хранит сгенерированные PNG на диске
// с индексом метаданных в BoltDB.
package imagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.etcd.io/bbolt"

	"github.com/Spkap/GATIS/internal/models"
	"github.com/Spkap/GATIS/internal/server/storage"
)

// bucketImages — bucket с метаданными изображений (имя файла -> JSON)
var bucketImages = []byte("images")

// namePattern — единственный допустимый формат имени файла (uuid.png)
// Защита от path traversal в GET /images/{name}
var namePattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}\.png$`)

// Store represents the on-disk image store with a BoltDB metadata index
type Store struct {
	db  *bbolt.DB
	dir string
}

// New creates a new image store
// dir is where PNG files are written, indexPath is the BoltDB file
func New(ctx context.Context, dir, indexPath string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images dir: %w", err)
	}

	// Открываем BoltDB
	db, err := bbolt.Open(indexPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	store := &Store{db: db, dir: dir}

	// Инициализируем bucket
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

// Close closes the metadata index
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketImages); err != nil {
			return fmt.Errorf("failed to create images bucket: %w", err)
		}
		return nil
	})
}

// Save writes PNG bytes to disk and records image metadata in the index
func (s *Store) Save(ctx context.Context, img *models.GeneratedImage, data []byte) error {
	if !namePattern.MatchString(img.Name) {
		return fmt.Errorf("invalid image name %q", img.Name)
	}

	// Сначала файл, потом индекс: изображение без индекса
	// недоступно снаружи и безвредно
	path := filepath.Join(s.dir, img.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket == nil {
			return fmt.Errorf("images bucket not found")
		}

		meta, err := json.Marshal(img)
		if err != nil {
			return fmt.Errorf("failed to marshal image metadata: %w", err)
		}

		if err := bucket.Put([]byte(img.Name), meta); err != nil {
			return fmt.Errorf("failed to save image metadata: %w", err)
		}

		return nil
	})
	if err != nil {
		// Подчищаем файл, чтобы не копить сироты
		_ = os.Remove(path)
		return err
	}

	return nil
}

// Get retrieves image metadata by file name
// Returns storage.ErrImageNotFound if the image was never recorded
func (s *Store) Get(ctx context.Context, name string) (*models.GeneratedImage, error) {
	if !namePattern.MatchString(name) {
		return nil, storage.ErrImageNotFound
	}

	var img *models.GeneratedImage

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket == nil {
			return fmt.Errorf("images bucket not found")
		}

		data := bucket.Get([]byte(name))
		if data == nil {
			return storage.ErrImageNotFound
		}

		img = &models.GeneratedImage{}
		if err := json.Unmarshal(data, img); err != nil {
			return fmt.Errorf("failed to unmarshal image metadata: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return img, nil
}

// FilePath returns the on-disk path for a recorded image
// Вызывать только после успешного Get: имя уже провалидировано
func (s *Store) FilePath(name string) string {
	return filepath.Join(s.dir, name)
}
