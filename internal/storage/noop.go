package storage

import "context"

// NoopUploader descarta uploads; útil em testes e ambientes sem storage.
type NoopUploader struct{}

// Upload finge sucesso devolvendo a própria chave como URL.
func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return &UploadResult{URL: "/" + input.Key}, nil
}
