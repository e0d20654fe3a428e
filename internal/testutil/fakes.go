package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

// RecordingPublisher guarda los eventos publicados.
type RecordingPublisher struct {
	mu       sync.Mutex
	Sales    []ports.SaleProcessedEvent
	LowStock []ports.LowStockEvent
	Err      error
}

var _ ports.EventPublisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) PublishSaleProcessed(_ context.Context, ev ports.SaleProcessedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Sales = append(p.Sales, ev)
	return nil
}

func (p *RecordingPublisher) PublishLowStock(_ context.Context, ev ports.LowStockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.LowStock = append(p.LowStock, ev)
	return nil
}

// MemoryIndexer índice de productos en memoria: busca por subcadena en nombre y categoría.
type MemoryIndexer struct {
	mu        sync.Mutex
	docs      map[string]entity.Product
	SearchErr error
}

var _ ports.ProductIndexer = (*MemoryIndexer)(nil)

// NewMemoryIndexer crea un índice vacío.
func NewMemoryIndexer() *MemoryIndexer {
	return &MemoryIndexer{docs: map[string]entity.Product{}}
}

func (m *MemoryIndexer) Enabled() bool { return true }

func (m *MemoryIndexer) Index(_ context.Context, p *entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = *p
	return nil
}

func (m *MemoryIndexer) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *MemoryIndexer) Search(_ context.Context, query string, from, size int) ([]string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, 0, m.SearchErr
	}
	q := strings.ToLower(query)
	var ids []string
	for id, p := range m.docs {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return paginate(ids, size, from), len(ids), nil
}

// Doc devuelve el documento indexado, si existe.
func (m *MemoryIndexer) Doc(id string) (entity.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	return p, ok
}

// StubReceipts generador de comprobantes que devuelve un PDF mínimo.
type StubReceipts struct{ Err error }

var _ ports.ReceiptGenerator = StubReceipts{}

func (s StubReceipts) GenerateSaleReceipt(_ context.Context, sale *entity.Sale) ([]byte, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if sale == nil {
		return nil, errors.New("venta nil")
	}
	return []byte("%PDF-1.4 " + sale.ID), nil
}
