package deal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/domain/shared"
	wstypes "marketplace-service/internal/domain/websocket"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/lock"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/repository/crm/crmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	Type wstypes.EventType
	Data wstypes.DealEventData
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) PublishDealEvent(eventType wstypes.EventType, data *wstypes.DealEventData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Type: eventType, Data: *data})
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

type mockDeals struct {
	mock.Mock
}

func (m *mockDeals) List(ctx context.Context, fields []string) ([]deal.Deal, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).([]deal.Deal), args.Error(1)
}

func (m *mockDeals) Get(ctx context.Context, id string, fields []string) (deal.Deal, error) {
	args := m.Called(ctx, id, fields)
	return args.Get(0).(deal.Deal), args.Error(1)
}

func (m *mockDeals) Search(ctx context.Context, q crm.Query, fields []string) ([]deal.Deal, error) {
	args := m.Called(ctx, q, fields)
	return args.Get(0).([]deal.Deal), args.Error(1)
}

func (m *mockDeals) Create(ctx context.Context, record any) (crm.WriteResult, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(crm.WriteResult), args.Error(1)
}

func (m *mockDeals) Update(ctx context.Context, id string, record any) (crm.WriteResult, error) {
	args := m.Called(ctx, id, record)
	return args.Get(0).(crm.WriteResult), args.Error(1)
}

func (m *mockDeals) Delete(ctx context.Context, id string) (crm.WriteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(crm.WriteResult), args.Error(1)
}

func newService(t *testing.T, opts ...Option) (*DealService, *crmtest.Server, *recorder) {
	t.Helper()
	srv := crmtest.New(t)
	repos := srv.Repositories()
	rec := &recorder{}
	opts = append([]Option{WithEventPublisher(rec)}, opts...)
	return NewDealService(repos.Deals, repos.Vendors, lock.NewLocalLocker(), zap.NewNop(), opts...), srv, rec
}

func stage(s deal.Stage) *string {
	v := string(s)
	return &v
}

func TestCreateDeal(t *testing.T) {
	svc, srv, events := newService(t)

	code, err := svc.CreateDeal(context.Background(), &deal.CreateDealRequest{
		BuyerAccountID: "a1",
		Name:           "Bolts for Q3",
		SellerID:       "v1",
		ClosingDate:    "2026-09-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", code)

	writes := srv.Writes()
	require.Len(t, writes, 1)
	assert.JSONEq(t,
		`{"data":[{"Deal_Name":"Bolts for Q3","Account_Name":{"id":"a1"},"Vendor_Name":{"id":"v1"},"Closing_Date":"2026-09-30","Stage":"Seller Contacted","Quantity":0}]}`,
		string(writes[0].Body))

	got := events.all()
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeDealCreated, got[0].Type)
	assert.Equal(t, []string{"a1", "v1"}, got[0].Data.Recipients())
	assert.Equal(t, "Seller Contacted", got[0].Data.Stage)
}

func TestUpdateDealStage(t *testing.T) {
	ctx := context.Background()
	svc, srv, events := newService(t)
	srv.Seed(crm.ModuleDeals,
		deal.Deal{ID: "d1", Stage: deal.StageNegotiatingTerms, Account: shared.RefTo("a1"), Vendor: shared.RefTo("v1")},
		deal.Deal{ID: "d2", Stage: deal.StageSellerContacted, Account: shared.RefTo("a1"), Vendor: shared.RefTo("v1")},
	)

	t.Run("legal edge", func(t *testing.T) {
		require.NoError(t, svc.UpdateDeal(ctx, "d1", &deal.UpdateDealRequest{Stage: stage(deal.StageAgreementReached)}))
		assert.Equal(t, "Agreement Reached", srv.Record(crm.ModuleDeals, "d1")["Stage"])

		got := events.all()
		require.Len(t, got, 1)
		assert.Equal(t, wstypes.EventTypeDealStageChanged, got[0].Type)
		assert.Equal(t, "Negotiating Terms", got[0].Data.PreviousStage)
		assert.Equal(t, "Agreement Reached", got[0].Data.Stage)
	})

	t.Run("skipping ahead is rejected", func(t *testing.T) {
		before := len(srv.Writes())
		err := svc.UpdateDeal(ctx, "d2", &deal.UpdateDealRequest{Stage: stage(deal.StageClosedWon)})
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidTransition))
		assert.Equal(t, http.StatusUnprocessableEntity, xerrors.HTTPStatus(err))
		assert.Len(t, srv.Writes(), before)
	})

	t.Run("unknown stage", func(t *testing.T) {
		err := svc.UpdateDeal(ctx, "d2", &deal.UpdateDealRequest{Stage: stage("Pending")})
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	})

	t.Run("quantity", func(t *testing.T) {
		qty := shared.NumberFromInt(500)
		require.NoError(t, svc.UpdateDeal(ctx, "d2", &deal.UpdateDealRequest{Quantity: &qty}))
		assert.Equal(t, json.Number("500"), srv.Record(crm.ModuleDeals, "d2")["Quantity"])
		assert.Equal(t, "Seller Contacted", srv.Record(crm.ModuleDeals, "d2")["Stage"])
		assert.Len(t, events.all(), 1, "quantity edits are not broadcast")
	})

	t.Run("stage and quantity together", func(t *testing.T) {
		qty := shared.NumberFromInt(1)
		err := svc.UpdateDeal(ctx, "d2", &deal.UpdateDealRequest{Stage: stage(deal.StageNegotiatingTerms), Quantity: &qty})
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	})

	t.Run("missing deal", func(t *testing.T) {
		err := svc.UpdateDeal(ctx, "nope", &deal.UpdateDealRequest{Stage: stage(deal.StageNegotiatingTerms)})
		assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
	})
}

func TestUpdateDealTerminalIssuesNoWrite(t *testing.T) {
	for _, terminal := range []deal.Stage{deal.StageClosedWon, deal.StageClosedLost} {
		t.Run(string(terminal), func(t *testing.T) {
			deals := new(mockDeals)
			deals.On("Get", mock.Anything, "d1", deal.StateFields).
				Return(deal.Deal{ID: "d1", Stage: terminal}, nil)

			svc := NewDealService(deals, nil, lock.NewLocalLocker(), zap.NewNop())

			err := svc.UpdateDeal(context.Background(), "d1", &deal.UpdateDealRequest{Stage: stage(deal.StageNegotiatingTerms)})
			assert.Equal(t, http.StatusUnprocessableEntity, xerrors.HTTPStatus(err))

			qty := shared.NumberFromInt(10)
			err = svc.UpdateDeal(context.Background(), "d1", &deal.UpdateDealRequest{Quantity: &qty})
			assert.True(t, xerrors.Is(err, xerrors.ErrInvalidTransition))

			deals.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, terminal.NextStages())
		})
	}
}

func TestSellerDeals(t *testing.T) {
	svc, srv, _ := newService(t)
	srv.Seed(crm.ModuleDeals,
		deal.Deal{ID: "d1", Name: "Bolts", Vendor: shared.RefTo("v1"), Account: shared.RefTo("a1"), Quantity: shared.NumberFromInt(40)},
		deal.Deal{ID: "d2", Name: "Cotton", Vendor: shared.RefTo("v2"), Account: shared.RefTo("a1")},
	)

	deals, err := svc.SellerDeals(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, int64(40), deals[0].Quantity.Int64())
	assert.Equal(t, "a1", shared.RefID(deals[0].Account))
}

type memoryLedger struct {
	mu      sync.Mutex
	rows    map[string]bool
	removed []string
}

func (l *memoryLedger) Reserve(_ context.Context, req *deal.FeedbackRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rows[req.DealID] {
		return fmt.Errorf("%w: deal %s", xerrors.ErrDuplicateEntry, req.DealID)
	}
	l.rows[req.DealID] = true
	return nil
}

func (l *memoryLedger) Remove(_ context.Context, dealID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, dealID)
	l.removed = append(l.removed, dealID)
	return nil
}
