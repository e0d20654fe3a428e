// Package search mantiene el índice de productos en Elasticsearch.
// El índice solo resuelve IDs por relevancia; los datos se leen de PostgreSQL.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/pkg/config"
)

var (
	_ ports.ProductIndexer = (*ElasticIndexer)(nil)
	_ ports.ProductIndexer = NoopIndexer{}
)

// NewElasticClient crea el cliente y comprueba la conexión con Info.
func NewElasticClient(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: crear cliente: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// productDoc documento indexado por producto.
type productDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Supplier    string `json:"supplier"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "supplier":    {"type": "text"},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "stock":       {"type": "integer"}
    }
  }
}`

// ElasticIndexer implementa ports.ProductIndexer.
type ElasticIndexer struct {
	es    *elasticsearch.Client
	index string
}

// NewElasticIndexer construye el indexador sobre el índice dado.
func NewElasticIndexer(es *elasticsearch.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{es: es, index: index}
}

// Enabled siempre verdadero.
func (i *ElasticIndexer) Enabled() bool { return true }

// EnsureIndex crea el índice con su mapping si todavía no existe.
func (i *ElasticIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: exists %s: %w", i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.es.Indices.Create(i.index,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: crear índice %s: %w", i.index, err)
	}
	return checkResponse(res, "crear índice")
}

// Index crea o reemplaza el documento del producto.
func (i *ElasticIndexer) Index(ctx context.Context, p *entity.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Supplier:    p.Supplier,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
	}); err != nil {
		return fmt.Errorf("elasticsearch: serializar producto: %w", err)
	}

	res, err := i.es.Index(i.index, &buf,
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(p.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: indexar %s: %w", p.ID, err)
	}
	return checkResponse(res, "indexar")
}

// Remove borra el documento. Que no exista no es error.
func (i *ElasticIndexer) Remove(ctx context.Context, productID string) error {
	res, err := i.es.Delete(i.index, productID, i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: borrar %s: %w", productID, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "borrar")
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search multi_match difuso sobre nombre (con más peso), descripción, categoría y proveedor.
func (i *ElasticIndexer) Search(ctx context.Context, query string, from, size int) ([]string, int, error) {
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category", "supplier"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, 0, fmt.Errorf("elasticsearch: serializar consulta: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
		i.es.Search.WithFrom(from),
		i.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("elasticsearch: buscar: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, 0, fmt.Errorf("elasticsearch: buscar: %s: %s", res.Status(), body)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, 0, fmt.Errorf("elasticsearch: decodificar respuesta: %w", err)
	}
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, r.Hits.Total.Value, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: %s: %s: %s", op, res.Status(), body)
	}
	return nil
}

// NoopIndexer adaptador nulo cuando Elasticsearch no está configurado.
type NoopIndexer struct{}

func (NoopIndexer) Enabled() bool { return false }

func (NoopIndexer) Index(context.Context, *entity.Product) error { return nil }

func (NoopIndexer) Remove(context.Context, string) error { return nil }

func (NoopIndexer) Search(context.Context, string, int, int) ([]string, int, error) {
	return nil, 0, nil
}
