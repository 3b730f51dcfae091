package ports

import (
	"context"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
)

// Documents is the document database. Data values are stored as JSON.
// Missing documents fail with "Document with the requested ID could not be
// found." and duplicate ids with "Document with the requested ID already
// exists.".
type Documents interface {
	CreateDocument(ctx context.Context, collection, id string, data any, permissions []string) (entity.Document, error)
	GetDocument(ctx context.Context, collection, id string) (entity.Document, error)
	// UpdateDocument replaces the data and keeps the permissions.
	UpdateDocument(ctx context.Context, collection, id string, data any) (entity.Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	ListDocuments(ctx context.Context, collection string, query entity.Query) (entity.DocumentList, error)
}
