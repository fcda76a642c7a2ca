package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"shoptrack/internal/model"
	ws "shoptrack/internal/websocket"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProductRepo struct {
	products map[int64]model.Product
	nextID   int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]model.Product{}, nextID: 1}
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id int64) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	all, _ := f.ListAll(context.Background())
	return all, int64(len(all)), nil
}

func (f *fakeProductRepo) ListAll(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

// fakeTxManager runs the function directly; transactional behavior is the
// real manager's concern.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// drainHub forwards everything sent to the hub into a buffered channel so
// broadcasts from the service under test never block.
func drainHub(hub *ws.Hub) <-chan []byte {
	events := make(chan []byte, 8)
	go func() {
		for msg := range hub.Broadcast {
			events <- msg
		}
	}()
	return events
}

func expectEvent(t *testing.T, events <-chan []byte, name string, productID int64) {
	t.Helper()
	select {
	case payload := <-events:
		var ev ws.Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, name, ev.Event)
		assert.EqualValues(t, productID, ev.Data["product_id"])
	case <-time.After(time.Second):
		t.Fatalf("no %s event broadcast", name)
	}
}

func TestCreateProduct_BroadcastsEvent(t *testing.T) {
	hub := ws.NewHub()
	events := drainHub(hub)
	svc := NewProductService(newFakeProductRepo(), &fakeAuditRepo{}, fakeTxManager{}, hub)

	product, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{Name: "Beans"})
	require.NoError(t, err)
	expectEvent(t, events, "product_created", product.ID)
}

func TestUpdateAndDeleteProduct_BroadcastEvents(t *testing.T) {
	hub := ws.NewHub()
	events := drainHub(hub)
	audits := &fakeAuditRepo{}
	svc := NewProductService(newFakeProductRepo(), audits, fakeTxManager{}, hub)

	product, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{Name: "Beans"})
	require.NoError(t, err)
	expectEvent(t, events, "product_created", product.ID)

	_, err = svc.UpdateProduct(context.Background(), "", product.ID, UpdateProductRequest{Name: "Green beans"})
	require.NoError(t, err)
	expectEvent(t, events, "product_updated", product.ID)

	require.NoError(t, svc.DeleteProduct(context.Background(), "", product.ID))
	expectEvent(t, events, "product_deleted", product.ID)

	require.Len(t, audits.entries, 3)
	assert.Equal(t, model.ActionDeleteProduct, audits.entries[2].Action)
}

func TestCreateProduct_NilHub(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeAuditRepo{}, fakeTxManager{}, nil)

	product, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{Name: "Beans"})
	require.NoError(t, err)
	assert.Equal(t, "Beans", product.Name)
}

func TestCreateProduct_RejectsNegativePrice(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeAuditRepo{}, fakeTxManager{}, nil)

	_, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{
		Name:            "Beans",
		DefaultBuyPrice: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestListAllProducts(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo, &fakeAuditRepo{}, fakeTxManager{}, nil)

	for _, name := range []string{"Beans", "Rice", "Salt"} {
		_, err := svc.CreateProduct(context.Background(), "", CreateProductRequest{Name: name})
		require.NoError(t, err)
	}

	all, err := svc.ListAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Beans", all[0].Name)
	assert.Equal(t, "Salt", all[2].Name)
}
