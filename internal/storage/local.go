package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader grava arquivos em disco e os referencia sob /static.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader prepara o diretório de upload e devolve o uploader.
func NewLocalUploader(dir string) (*LocalUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: diretório de upload obrigatório")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{dir: dir, baseURL: "/static"}, nil
}

// Dir devolve o diretório raiz dos uploads (para o file server).
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload grava o arquivo e retorna o caminho público.
func (u *LocalUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(input.Key, "/")
	if key == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(input.Body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}

	// A chave pode conter subdiretórios (ex.: clientes/<uuid>.png), mas nunca
	// pode escapar do diretório raiz.
	target := filepath.Join(u.dir, filepath.FromSlash(key))
	cleanRoot := filepath.Clean(u.dir) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(target), strings.TrimSuffix(cleanRoot, string(os.PathSeparator))) {
		return nil, errors.New("storage: chave fora do diretório de upload")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, input.Body, 0o644); err != nil {
		return nil, err
	}

	return &UploadResult{URL: u.baseURL + "/" + key}, nil
}
