package service

import (
	"context"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/ports"
)

// scopedDocuments checks every call against the caller's permissions.
// Documents the caller cannot read are reported as missing, so their
// existence is not disclosed.
type scopedDocuments struct {
	inner       ports.Documents
	userID      string
	collections map[string][]string
}

func (d *scopedDocuments) allowed(collection string, doc *entity.Document, action string) bool {
	if entity.Allows(d.collections[collection], action, d.userID) {
		return true
	}
	return doc != nil && entity.Allows(doc.Permissions, action, d.userID)
}

func (d *scopedDocuments) CreateDocument(ctx context.Context, collection, id string, data any, permissions []string) (entity.Document, error) {
	if !d.allowed(collection, nil, entity.ActionCreate) {
		return entity.Document{}, ports.ErrNotAuthorized
	}
	return d.inner.CreateDocument(ctx, collection, id, data, permissions)
}

func (d *scopedDocuments) GetDocument(ctx context.Context, collection, id string) (entity.Document, error) {
	doc, err := d.inner.GetDocument(ctx, collection, id)
	if err != nil {
		return entity.Document{}, err
	}
	if !d.allowed(collection, &doc, entity.ActionRead) {
		return entity.Document{}, ports.ErrDocumentNotFound
	}
	return doc, nil
}

func (d *scopedDocuments) UpdateDocument(ctx context.Context, collection, id string, data any) (entity.Document, error) {
	if err := d.authorize(ctx, collection, id, entity.ActionUpdate); err != nil {
		return entity.Document{}, err
	}
	return d.inner.UpdateDocument(ctx, collection, id, data)
}

func (d *scopedDocuments) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := d.authorize(ctx, collection, id, entity.ActionDelete); err != nil {
		return err
	}
	return d.inner.DeleteDocument(ctx, collection, id)
}

// authorize loads the document and checks action. A document the caller can
// neither read nor act on is missing; one it can read but not act on is a
// denied action.
func (d *scopedDocuments) authorize(ctx context.Context, collection, id, action string) error {
	doc, err := d.inner.GetDocument(ctx, collection, id)
	if err != nil {
		return err
	}
	if d.allowed(collection, &doc, action) {
		return nil
	}
	if !d.allowed(collection, &doc, entity.ActionRead) {
		return ports.ErrDocumentNotFound
	}
	return ports.ErrNotAuthorized
}

// ListDocuments returns only readable documents. When the collection itself
// is not readable, pages of the underlying store are filtered until the limit
// is reached; Total then counts the readable documents seen.
func (d *scopedDocuments) ListDocuments(ctx context.Context, collection string, query entity.Query) (entity.DocumentList, error) {
	if entity.Allows(d.collections[collection], entity.ActionRead, d.userID) {
		return d.inner.ListDocuments(ctx, collection, query)
	}

	limit := query.EffectiveLimit()
	out := entity.DocumentList{Documents: []entity.Document{}}
	page := query

	for {
		list, err := d.inner.ListDocuments(ctx, collection, page)
		if err != nil {
			return entity.DocumentList{}, err
		}
		for _, doc := range list.Documents {
			if !entity.Allows(doc.Permissions, entity.ActionRead, d.userID) {
				continue
			}
			out.Total++
			if len(out.Documents) < limit {
				out.Documents = append(out.Documents, doc)
			}
		}
		if len(out.Documents) >= limit || len(list.Documents) < page.EffectiveLimit() {
			return out, nil
		}
		page.CursorAfter = list.Documents[len(list.Documents)-1].ID
	}
}
