package location

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type fakeSource struct {
	provinces []domain.Province
	districts map[int][]domain.District
	wards     map[int][]domain.Ward
	err       error
}

func (f *fakeSource) ListProvinces(context.Context) ([]domain.Province, error) {
	return f.provinces, f.err
}

func (f *fakeSource) ListDistricts(_ context.Context, provinceID int) ([]domain.District, error) {
	return f.districts[provinceID], f.err
}

func (f *fakeSource) ListWards(_ context.Context, districtID int) ([]domain.Ward, error) {
	return f.wards[districtID], f.err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		provinces: []domain.Province{{ID: 202, Name: "Hồ Chí Minh"}, {ID: 201, Name: "Hà Nội"}},
		districts: map[int][]domain.District{
			202: {{ID: 1442, ProvinceID: 202, Name: "Quận 1"}},
		},
		wards: map[int][]domain.Ward{
			1442: {{Code: "20101", DistrictID: 1442, Name: "Phường Bến Nghé"}},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolverOptions(t *testing.T) {
	t.Run("lists districts of the selected province", func(t *testing.T) {
		r := NewResolver(newFakeSource(), discardLogger())

		opts := r.Options(context.Background(), Selection{ProvinceID: 202}, LevelDistrict)

		assert.False(t, opts.Disabled)
		assert.Equal(t, []Option{{Value: "1442", Label: "Quận 1"}}, opts.Items)
	})

	t.Run("disables a level without a parent", func(t *testing.T) {
		r := NewResolver(newFakeSource(), discardLogger())

		opts := r.Options(context.Background(), Selection{}, LevelWard)

		assert.True(t, opts.Disabled)
		assert.Empty(t, opts.Items)
		assert.Empty(t, opts.Notice)
	})

	t.Run("failure leaves the dropdown empty and disabled", func(t *testing.T) {
		src := newFakeSource()
		src.err = &backend.APIError{Status: 400, Message: "Token is not valid"}
		r := NewResolver(src, discardLogger())

		opts := r.Options(context.Background(), Selection{}, LevelProvince)

		assert.True(t, opts.Disabled)
		assert.Empty(t, opts.Items)
		assert.Equal(t, "Token is not valid", opts.Notice)
	})

	t.Run("failure without a message uses a generic notice", func(t *testing.T) {
		src := newFakeSource()
		src.err = errors.New("dial tcp: timeout")
		r := NewResolver(src, discardLogger())

		opts := r.Options(context.Background(), Selection{ProvinceID: 202}, LevelDistrict)

		assert.True(t, opts.Disabled)
		assert.Contains(t, opts.Notice, "district")
	})
}

func TestResolveNames(t *testing.T) {
	r := NewResolver(newFakeSource(), discardLogger())

	t.Run("resolves a complete selection", func(t *testing.T) {
		names, err := r.ResolveNames(context.Background(), Selection{ProvinceID: 202, DistrictID: 1442, WardCode: "20101"})
		require.NoError(t, err)

		assert.Equal(t, Names{Province: "Hồ Chí Minh", District: "Quận 1", Ward: "Phường Bến Nghé"}, names)
		assert.Equal(t, "12 Lê Lợi, Phường Bến Nghé, Quận 1, Hồ Chí Minh", FormatAddress("12 Lê Lợi", names))
	})

	t.Run("rejects an incomplete selection", func(t *testing.T) {
		_, err := r.ResolveNames(context.Background(), Selection{ProvinceID: 202})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("unknown ward", func(t *testing.T) {
		_, err := r.ResolveNames(context.Background(), Selection{ProvinceID: 202, DistrictID: 1442, WardCode: "99999"})
		assert.ErrorIs(t, err, ErrUnknownLocation)
	})
}

func TestClient(t *testing.T) {
	var feeBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"Token is not valid"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/master-data/province":
			_, _ = w.Write([]byte(`{"code":200,"message":"Success","data":[{"ProvinceID":202,"ProvinceName":"Hồ Chí Minh"}]}`))
		case "/master-data/district":
			assert.Equal(t, "202", r.URL.Query().Get("province_id"))
			_, _ = w.Write([]byte(`{"code":200,"message":"Success","data":[{"DistrictID":1442,"ProvinceID":202,"DistrictName":"Quận 1"}]}`))
		case "/master-data/ward":
			assert.Equal(t, "1442", r.URL.Query().Get("district_id"))
			_, _ = w.Write([]byte(`{"code":200,"message":"Success","data":[{"WardCode":"20101","DistrictID":1442,"WardName":"Phường Bến Nghé"}]}`))
		case "/v2/shipping-order/fee":
			assert.Equal(t, "885", r.Header.Get("ShopId"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&feeBody))
			_, _ = w.Write([]byte(`{"code":200,"message":"Success","data":{"total":36300,"service_fee":36300}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", "885", 2, server.Client())
	ctx := context.Background()

	provinces, err := client.ListProvinces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Province{{ID: 202, Name: "Hồ Chí Minh"}}, provinces)

	districts, err := client.ListDistricts(ctx, 202)
	require.NoError(t, err)
	assert.Equal(t, []domain.District{{ID: 1442, ProvinceID: 202, Name: "Quận 1"}}, districts)

	wards, err := client.ListWards(ctx, 1442)
	require.NoError(t, err)
	assert.Equal(t, []domain.Ward{{Code: "20101", DistrictID: 1442, Name: "Phường Bến Nghé"}}, wards)

	fee, err := client.QuoteFee(ctx, FeeRequest{DistrictID: 1442, WardCode: "20101", WeightGrams: 1000, InsuranceValue: 200000})
	require.NoError(t, err)
	assert.Equal(t, int64(36300), fee)
	assert.Equal(t, float64(2), feeBody["service_type_id"])
	assert.Equal(t, "20101", feeBody["to_ward_code"])
	assert.Equal(t, float64(1000), feeBody["weight"])

	t.Run("surfaces the provider message", func(t *testing.T) {
		bad := NewClient(server.URL, "wrong", "", 2, server.Client())

		_, err := bad.ListProvinces(ctx)

		require.Error(t, err)
		assert.Equal(t, "Token is not valid", backend.Message(err, "fallback"))
	})
}
