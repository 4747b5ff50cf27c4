package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// DecodePage normalizes every list envelope the backend has been seen to return into
// models.Page. key is the resource-specific collection name ("blogs", "orders"...), and may
// be empty. requested is used when the envelope carries no page numbers.
func DecodePage(body []byte, key string, requested models.ListQuery) (models.Page, error) {
	if !gjson.ValidBytes(body) {
		return models.Page{}, fmt.Errorf("list response is not valid JSON")
	}

	items, container := findItems(body, key)
	records, err := decodeRecords(items)
	if err != nil {
		return models.Page{}, err
	}

	page := models.Page{Items: records}
	page.CurrentPage, _ = intAt(body, container, "current_page", "currentPage", "page")
	page.TotalPages, _ = intAt(body, container, "last_page", "lastPage", "total_pages", "totalPages")
	page.Total, page.Counted = intAt(body, container, "total", "total_items", "totalItems", "count")

	if page.CurrentPage < 1 {
		page.CurrentPage = requested.Page
	}
	if page.CurrentPage < 1 {
		page.CurrentPage = 1
	}
	if page.TotalPages < 1 && page.Total > 0 && requested.PerPage > 0 {
		page.TotalPages = int(math.Ceil(float64(page.Total) / float64(requested.PerPage)))
	}
	if page.TotalPages < page.CurrentPage {
		page.TotalPages = page.CurrentPage
	}
	if page.Total == 0 {
		page.Total = len(records)
	}
	return page, nil
}

// DecodeRecord extracts a single entity from a create/update/show response.
func DecodeRecord(body []byte, key string) (models.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Record{}, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("record response is not valid JSON")
	}
	var paths []string
	if key != "" {
		paths = append(paths, "data."+key, key)
	}
	paths = append(paths, "data.data", "data")
	for _, p := range paths {
		if r := gjson.GetBytes(body, p); r.IsObject() {
			return decodeRecord(r.Raw)
		}
	}
	if r := gjson.ParseBytes(body); r.IsObject() {
		return decodeRecord(r.Raw)
	}
	return models.Record{}, nil
}

// findItems walks the known envelope shapes in priority order and returns the first array
// found together with the path of the object that holds pagination numbers.
func findItems(body []byte, key string) (gjson.Result, string) {
	type candidate struct{ items, meta string }
	var candidates []candidate
	if key != "" {
		candidates = append(candidates,
			candidate{"data." + key + ".data", "data." + key},
			candidate{"data." + key, "data"},
			candidate{key + ".data", key},
			candidate{key, ""},
		)
	}
	candidates = append(candidates,
		candidate{"data.data", "data"},
		candidate{"data.items", "data"},
		candidate{"data", ""},
		candidate{"items", ""},
	)

	for _, c := range candidates {
		if r := gjson.GetBytes(body, c.items); r.IsArray() {
			return r, c.meta
		}
	}
	if r := gjson.ParseBytes(body); r.IsArray() {
		return r, ""
	}
	return gjson.Result{}, ""
}

// intAt looks for the first numeric field among names, first under container, then under
// meta and pagination, then at the root. ok is false when none of them is present.
func intAt(body []byte, container string, names ...string) (n int, ok bool) {
	prefixes := []string{container, "meta", "pagination", "data.meta", ""}
	for _, prefix := range prefixes {
		for _, name := range names {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			r := gjson.GetBytes(body, path)
			switch r.Type {
			case gjson.Number:
				return int(r.Int()), true
			case gjson.String:
				// some endpoints send "3"
				if n := r.Int(); n != 0 {
					return int(n), true
				}
			}
		}
	}
	return 0, false
}

func decodeRecords(items gjson.Result) ([]models.Record, error) {
	records := make([]models.Record, 0)
	if !items.Exists() {
		return records, nil
	}
	var decodeErr error
	items.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		rec, err := decodeRecord(value.Raw)
		if err != nil {
			decodeErr = err
			return false
		}
		records = append(records, rec)
		return true
	})
	return records, decodeErr
}

func decodeRecord(raw string) (models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var rec models.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}
