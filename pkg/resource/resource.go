// Package resource transforms models into their public API shapes.
//
// A resource implements Transformer to control exactly which fields leave
// the API, independent of how the model is stored:
//
//	type FileResource struct{ resource.Base }
//
//	func (FileResource) ToArray(v interface{}) resource.Map {
//	    f := v.(models.File)
//	    return resource.Map{"id": f.ID, "name": f.Name, "size": f.Size}
//	}
//
//	resource.New(FileResource{}, file).Respond(w)
//	resource.CollectionOf(FileResource{}, files).Respond(w)
package resource

import (
	"encoding/json"
	"net/http"
	"reflect"

	"drivebox/pkg/orm"
)

// Map is the output shape of a transformer.
type Map = map[string]interface{}

// Transformer converts one model value into its API representation.
type Transformer interface {
	ToArray(v interface{}) Map
}

// Base is embedded by resources; reserved for shared behaviour.
type Base struct{}

// Resource pairs a single model with its transformer.
type Resource struct {
	transformer Transformer
	data        interface{}
	meta        Map
}

// New wraps one model instance.
func New(t Transformer, data interface{}) *Resource {
	return &Resource{transformer: t, data: data}
}

// WithMeta attaches extra metadata to the envelope.
func (r *Resource) WithMeta(meta Map) *Resource {
	r.meta = meta
	return r
}

// MarshalJSON lets a Resource nest inside other payloads.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.transformer.ToArray(r.data))
}

// Respond writes {"data": <transformed>} with status 200.
func (r *Resource) Respond(w http.ResponseWriter) {
	out := Map{"data": r.transformer.ToArray(r.data)}
	if r.meta != nil {
		out["meta"] = r.meta
	}
	writeJSON(w, http.StatusOK, out)
}

// Collection pairs a slice of models with a transformer.
type Collection struct {
	transformer Transformer
	items       interface{}
	pagination  *orm.Pagination
	meta        Map
}

// CollectionOf wraps a model slice (any []T).
func CollectionOf(t Transformer, items interface{}) *Collection {
	return &Collection{transformer: t, items: items}
}

// WithPagination attaches pagination metadata.
func (c *Collection) WithPagination(p orm.Pagination) *Collection {
	c.pagination = &p
	return c
}

// WithMeta attaches extra metadata.
func (c *Collection) WithMeta(meta Map) *Collection {
	c.meta = meta
	return c
}

// Transform applies the transformer to every element. The transformer sees
// the actual model values, not a JSON round-trip of them.
func (c *Collection) Transform() []Map {
	rv := reflect.ValueOf(c.items)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	out := make([]Map, 0)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return out
	}
	for i := 0; i < rv.Len(); i++ {
		out = append(out, c.transformer.ToArray(rv.Index(i).Interface()))
	}
	return out
}

// MarshalJSON lets a Collection nest inside other payloads.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Transform())
}

// Respond writes {"data": [...]} with status 200.
func (c *Collection) Respond(w http.ResponseWriter) {
	out := Map{"data": c.Transform()}
	if c.pagination != nil {
		out["pagination"] = c.pagination
	}
	if c.meta != nil {
		out["meta"] = c.meta
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
