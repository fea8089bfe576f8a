package repository

import (
	"context"
	"errors"
)

// ErrDocumentNotFound se devuelve cuando la clave no tiene documento guardado.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository es el almacen clave-valor de documentos completos (sin parches).
type DocumentRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
