package crm

import (
	"context"
	"net/http"
	"net/url"
)

// Store is the record-level API the services depend on. Module satisfies it;
// tests substitute mocks.
type Store[T any] interface {
	List(ctx context.Context, fields []string) ([]T, error)
	Get(ctx context.Context, id string, fields []string) (T, error)
	Search(ctx context.Context, q Query, fields []string) ([]T, error)
	Create(ctx context.Context, record any) (WriteResult, error)
	Update(ctx context.Context, id string, record any) (WriteResult, error)
	Delete(ctx context.Context, id string) (WriteResult, error)
}

var _ Store[struct{}] = Module[struct{}]{}

// Module is a typed view over one CRM module such as Products or Deals.
type Module[T any] struct {
	client *Client
	name   string
}

func NewModule[T any](client *Client, name string) Module[T] {
	return Module[T]{client: client, name: name}
}

// List returns every record, following pagination.
func (m Module[T]) List(ctx context.Context, fields []string) ([]T, error) {
	return listAll[T](ctx, m.client, "/"+m.name, fieldsQuery(fields))
}

// Get returns one record by id.
func (m Module[T]) Get(ctx context.Context, id string, fields []string) (T, error) {
	return getOne[T](ctx, m.client, "/"+m.name+"/"+url.PathEscape(id), fieldsQuery(fields))
}

// Search returns the matching records; no match is an empty list.
func (m Module[T]) Search(ctx context.Context, q Query, fields []string) ([]T, error) {
	return listAll[T](ctx, m.client, "/"+m.name+"/search", q.values(fields))
}

// Create inserts record and returns the CRM result.
func (m Module[T]) Create(ctx context.Context, record any) (WriteResult, error) {
	return write(ctx, m.client, http.MethodPost, "/"+m.name, record)
}

// Update applies a partial update to the record id.
func (m Module[T]) Update(ctx context.Context, id string, record any) (WriteResult, error) {
	return write(ctx, m.client, http.MethodPut, "/"+m.name+"/"+url.PathEscape(id), record)
}

// Delete removes the record id.
func (m Module[T]) Delete(ctx context.Context, id string) (WriteResult, error) {
	return write(ctx, m.client, http.MethodDelete, "/"+m.name+"/"+url.PathEscape(id), nil)
}
