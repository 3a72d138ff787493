package crm_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/domain/product"
	"marketplace-service/internal/domain/shared"
	"marketplace-service/internal/domain/vendor"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/repository/crm/crmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newClient(t *testing.T, srv *crmtest.Server, mutate ...func(*crm.Config)) *crm.Client {
	t.Helper()
	cfg := crm.Config{
		APIURL:       srv.APIURL(),
		AuthURL:      srv.AuthURL(),
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		Timeout:      2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return crm.NewClient(cfg, zap.NewNop())
}

func TestModuleList(t *testing.T) {
	srv := crmtest.New(t)
	for i := 0; i < 5; i++ {
		srv.Seed(crm.ModuleVendors, vendor.Vendor{Name: "vendor", State: "NY"})
	}
	repos := crm.NewRepositories(newClient(t, srv, func(c *crm.Config) { c.PageSize = 2 }))

	t.Run("follows more_records", func(t *testing.T) {
		vendors, err := repos.Vendors.List(context.Background(), vendor.JoinFields)
		require.NoError(t, err)
		assert.Len(t, vendors, 5)
		assert.Equal(t, "NY", vendors[0].State)
		assert.Empty(t, vendors[0].Name, "projection drops unrequested fields")
	})

	t.Run("fields are sent", func(t *testing.T) {
		reqs := srv.Requests()
		require.NotEmpty(t, reqs)
		q, err := url.ParseQuery(reqs[0].Query)
		require.NoError(t, err)
		assert.Equal(t, "id,Average_Rating,State,Country,Vendor_Certifications,Engagement_Score", q.Get("fields"))
		assert.Equal(t, "1", q.Get("page"))
	})

	t.Run("empty module is an empty list", func(t *testing.T) {
		certs, err := repos.Certifications.List(context.Background(), certification.JoinFields)
		require.NoError(t, err)
		assert.NotNil(t, certs)
		assert.Empty(t, certs)
	})
}

func TestModuleMaxPages(t *testing.T) {
	srv := crmtest.New(t)
	for i := 0; i < 5; i++ {
		srv.Seed(crm.ModuleProducts, product.Product{Name: "p"})
	}
	repos := crm.NewRepositories(newClient(t, srv, func(c *crm.Config) {
		c.PageSize = 2
		c.MaxPages = 2
	}))

	products, err := repos.Products.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestModuleSearch(t *testing.T) {
	srv := crmtest.New(t)
	srv.Seed(crm.ModuleProducts,
		product.Product{ID: "p1", Name: "Steel bolt", Category: "Metals", Vendor: &shared.Ref{ID: "v1"}},
		product.Product{ID: "p2", Name: "Copper (wire)", Category: "Metals, Wire", Vendor: &shared.Ref{ID: "v2"}},
		product.Product{ID: "p3", Name: "Cotton", Category: "Textiles", Vendor: &shared.Ref{ID: "v1"}},
	)
	repos := crm.NewRepositories(newClient(t, srv))
	ctx := context.Background()

	byVendor, err := repos.Products.Search(ctx, crm.Equals("Vendor_Name", "v1"), nil)
	require.NoError(t, err)
	assert.Len(t, byVendor, 2)

	escaped, err := repos.Products.Search(ctx, crm.Equals("Product_Category", "Metals, Wire"), nil)
	require.NoError(t, err)
	require.Len(t, escaped, 1)
	assert.Equal(t, "p2", escaped[0].ID)

	words, err := repos.Products.Search(ctx, crm.Word("bolt"), nil)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "p1", words[0].ID)

	none, err := repos.Products.Search(ctx, crm.StartsWith("Product_Name", "Zinc"), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestModuleGet(t *testing.T) {
	srv := crmtest.New(t)
	srv.Seed(crm.ModuleVendors, map[string]any{"id": "v1", "Rating_Count": "4", "Rating_Total_Points": 18})
	repos := crm.NewRepositories(newClient(t, srv))

	v, err := repos.Vendors.Get(context.Background(), "v1", vendor.RatingFields)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.RatingCount.Int64())
	assert.Equal(t, "18", v.RatingTotalPoints.String())

	_, err = repos.Vendors.Get(context.Background(), "missing", nil)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}

func TestModuleWrites(t *testing.T) {
	srv := crmtest.New(t)
	repos := crm.NewRepositories(newClient(t, srv))
	ctx := context.Background()

	res, err := repos.Certifications.Create(ctx, certification.Certification{Name: "ISO 9001", Vendor: shared.RefTo("v1")})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", res.Code)
	require.NotEmpty(t, res.Details.ID)

	res, err = repos.Certifications.Update(ctx, res.Details.ID, certification.Certification{Issuer: "BSI"})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", res.Code)

	rec := srv.Record(crm.ModuleCertifications, res.Details.ID)
	assert.Equal(t, "ISO 9001", rec["Name"])
	assert.Equal(t, "BSI", rec["Issuer"])

	res, err = repos.Certifications.Delete(ctx, res.Details.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", res.Code)
	assert.Zero(t, srv.Count(crm.ModuleCertifications))

	_, err = repos.Certifications.Update(ctx, "missing", certification.Certification{Issuer: "BSI"})
	var apiErr *crm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_DATA", apiErr.Code)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

func TestTokenCaching(t *testing.T) {
	srv := crmtest.New(t)
	srv.Seed(crm.ModuleVendors, vendor.Vendor{ID: "v1"})
	repos := crm.NewRepositories(newClient(t, srv))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repos.Vendors.Get(ctx, "v1", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.Grants())

	t.Run("revoked token is refreshed once", func(t *testing.T) {
		srv.RevokeTokens()
		_, err := repos.Vendors.Get(ctx, "v1", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, srv.Grants())
	})
}

func TestTokenGrantRejected(t *testing.T) {
	srv := crmtest.New(t)
	client := newClient(t, srv, func(c *crm.Config) { c.RefreshToken = "" })

	_, err := crm.NewRepositories(client).Vendors.List(context.Background(), nil)
	assert.True(t, xerrors.Is(err, xerrors.ErrUpstream))
}

func TestUpstreamFailures(t *testing.T) {
	t.Run("non-2xx is an upstream error", func(t *testing.T) {
		srv := crmtest.New(t)
		srv.Fail(http.StatusBadGateway)

		core, logs := observer.New(zap.WarnLevel)
		client := crm.NewClient(crm.Config{
			APIURL:       srv.APIURL(),
			AuthURL:      srv.AuthURL(),
			RefreshToken: "refresh",
		}, zap.New(core))

		_, err := crm.NewRepositories(client).Products.List(context.Background(), nil)
		assert.True(t, xerrors.Is(err, xerrors.ErrUpstream))
		assert.Equal(t, http.StatusInternalServerError, xerrors.HTTPStatus(err))
		assert.Equal(t, 1, logs.FilterMessage("crm returned an error").Len())
	})

	t.Run("slow upstream times out", func(t *testing.T) {
		srv := crmtest.New(t)
		srv.Delay(500 * time.Millisecond)
		client := newClient(t, srv, func(c *crm.Config) { c.Timeout = 50 * time.Millisecond })

		_, err := crm.NewRepositories(client).Products.List(context.Background(), nil)
		assert.True(t, xerrors.Is(err, xerrors.ErrUpstreamTimeout))
		assert.Equal(t, "upstream_timeout", xerrors.Kind(err))
	})

	t.Run("caller deadline", func(t *testing.T) {
		srv := crmtest.New(t)
		srv.Delay(500 * time.Millisecond)
		client := newClient(t, srv)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := crm.NewRepositories(client).Deals.List(ctx, nil)
		assert.Equal(t, http.StatusGatewayTimeout, xerrors.HTTPStatus(err))
	})
}

func TestCriteriaEscaping(t *testing.T) {
	assert.Equal(t, `(Name:starts_with:ISO \(2015\)\, rev)`, crm.StartsWith("Name", "ISO (2015), rev").Criteria)
	assert.Equal(t, `(Vendor:equals:123)`, crm.Equals("Vendor", "123").Criteria)
	assert.Equal(t, "bolt", crm.Word("bolt").Word)
}
