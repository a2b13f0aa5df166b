package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/pkg/apperror"
)

// Допустимые типы файлов заявки: райдеры, референс-треки, картинки.
var allowedTypes = map[string]struct{}{
	"audio/mpeg":      {},
	"audio/x-wav":     {},
	"audio/ogg":       {},
	"audio/m4a":       {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// AttachmentStorage хранит загруженные файлы на диске.
// Тип содержимого определяется по сигнатуре, а не по расширению.
type AttachmentStorage struct {
	basePath     string
	maxSizeBytes int64
}

// NewAttachmentStorage готовит каталог хранилища.
func NewAttachmentStorage(basePath string, maxSizeMB int64) (*AttachmentStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", basePath, err)
	}
	return &AttachmentStorage{
		basePath:     basePath,
		maxSizeBytes: maxSizeMB * 1024 * 1024,
	}, nil
}

// SavedFile результат сохранения.
type SavedFile struct {
	Path      string
	MimeType  string
	SizeBytes int64
}

// Save проверяет и сохраняет файл, возвращая путь относительно хранилища.
func (s *AttachmentStorage) Save(header *multipart.FileHeader) (*SavedFile, error) {
	if header.Size > s.maxSizeBytes {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("файл больше %d МБ", s.maxSizeBytes/(1024*1024)))
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось открыть файл: %w", err)
	}
	defer src.Close()

	kind, err := sniffType(src)
	if err != nil {
		return nil, err
	}
	if _, ok := allowedTypes[kind.MIME.Value]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тип файла")
	}

	name := uuid.New().String()
	if kind.Extension != "" {
		name += "." + kind.Extension
	}

	dst, err := os.Create(filepath.Join(s.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("storage: не удалось записать файл: %w", err)
	}

	return &SavedFile{
		Path:      name,
		MimeType:  kind.MIME.Value,
		SizeBytes: written,
	}, nil
}

// Remove удаляет файл из хранилища.
func (s *AttachmentStorage) Remove(path string) error {
	clean := filepath.Base(strings.TrimSpace(path))
	if clean == "" || clean == "." {
		return nil
	}
	return os.Remove(filepath.Join(s.basePath, clean))
}

// sniffType читает сигнатуру файла и возвращает определённый тип.
// После чтения курсор возвращается в начало.
func sniffType(src multipart.File) (types.Type, error) {
	head := make([]byte, 261)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return types.Unknown, fmt.Errorf("storage: не удалось прочитать сигнатуру: %w", err)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return types.Unknown, fmt.Errorf("storage: не удалось перемотать файл: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == types.Unknown {
		return types.Unknown, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла")
	}
	return kind, nil
}
