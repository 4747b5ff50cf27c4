package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

func TestDecodePage(t *testing.T) {
	q := models.NewListQuery(2, 10, "", "")

	tests := []struct {
		name       string
		key        string
		body       string
		ids        []string
		page       int
		totalPages int
		total      int
	}{
		{
			name: "keyed paginator under data",
			key:  "users",
			body: `{"data":{"users":{"data":[{"id":1},{"id":2}],"current_page":2,"last_page":5,"total":42}}}`,
			ids:  []string{"1", "2"}, page: 2, totalPages: 5, total: 42,
		},
		{
			name: "paginator under data",
			body: `{"data":{"data":[{"id":"a"}],"current_page":"3","last_page":"4","total":31}}`,
			ids:  []string{"a"}, page: 3, totalPages: 4, total: 31,
		},
		{
			name: "items with meta",
			body: `{"data":[{"id":7},{"id":8}],"meta":{"currentPage":1,"totalPages":2,"totalItems":12}}`,
			ids:  []string{"7", "8"}, page: 1, totalPages: 2, total: 12,
		},
		{
			name: "pagination block",
			body: `{"items":[{"id":7}],"pagination":{"page":2,"total":25}}`,
			ids:  []string{"7"}, page: 2, totalPages: 3, total: 25,
		},
		{
			name: "bare array",
			body: `[{"id":1},{"id":2},{"id":3}]`,
			ids:  []string{"1", "2", "3"}, page: 2, totalPages: 2, total: 3,
		},
		{
			name: "no items",
			key:  "blogs",
			body: `{"data":{"blogs":[]}}`,
			page: 2, totalPages: 2, total: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodePage([]byte(tt.body), tt.key, q)
			require.NoError(t, err)
			ids := make([]string, 0, len(page.Items))
			for _, r := range page.Items {
				ids = append(ids, r.ID())
			}
			if tt.ids == nil {
				tt.ids = []string{}
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.page, page.CurrentPage)
			assert.Equal(t, tt.totalPages, page.TotalPages)
			assert.Equal(t, tt.total, page.Total)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodePage([]byte(`<html>`), "", q)
		assert.Error(t, err)
	})
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name string
		key  string
		body string
		want string
	}{
		{"keyed", "category", `{"data":{"category":{"id":3,"name":"Rock"}}}`, "Rock"},
		{"data", "", `{"data":{"id":3,"name":"Jazz"}}`, "Jazz"},
		{"nested data", "", `{"data":{"data":{"id":3,"name":"Soul"}}}`, "Soul"},
		{"root", "", `{"id":3,"name":"Funk"}`, "Funk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.body), tt.key)
			require.NoError(t, err)
			assert.Equal(t, "3", rec.ID())
			assert.Equal(t, tt.want, rec.String("name"))
		})
	}

	t.Run("empty body", func(t *testing.T) {
		rec, err := DecodeRecord(nil, "x")
		require.NoError(t, err)
		assert.Empty(t, rec)
	})
}

func TestDecodePageCounted(t *testing.T) {
	q := models.NewListQuery(1, 1, "", "")

	page, err := DecodePage([]byte(`{"data":[{"id":1}],"current_page":1,"last_page":42}`), "", q)
	require.NoError(t, err)
	assert.False(t, page.Counted)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 42, page.TotalPages)

	page, err = DecodePage([]byte(`{"data":[],"meta":{"total":0}}`), "", q)
	require.NoError(t, err)
	assert.True(t, page.Counted)
	assert.Equal(t, 0, page.Total)
}
