package resources

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

type ColumnKind string

const (
	ColumnText   ColumnKind = "text"
	ColumnToggle ColumnKind = "toggle"
	ColumnStatus ColumnKind = "status"
	ColumnImage  ColumnKind = "image"
	ColumnDate   ColumnKind = "date"
	ColumnLink   ColumnKind = "link"
	ColumnAudio  ColumnKind = "audio"
)

type Column struct {
	Key   string
	Label string
	Kind  ColumnKind
}

// Toggle describes the single boolean a list row can flip in place.
type Toggle struct {
	Field string
	// Path is a format string taking the record id; empty means <endpoint>/<id>.
	Path   string
	Method string
}

// FieldSpec is one input of the create/edit modal.
type FieldSpec struct {
	Name       string
	Label      string
	Kind       views.FieldKind
	Required   bool
	CreateOnly bool
	Options    []views.Option
	// OptionsFrom names the resource whose records fill a select.
	OptionsFrom string
	Accept      string
}

// Definition parameterises the generic list/modal pages for one backend entity.
type Definition struct {
	Slug        string
	Endpoint    string
	Key         string
	RecordKey   string
	Singular    string
	Nav         string
	FilterParam string
	Filters     []string
	Roles       []models.Role
	// ManageRoles may mutate records; nil means Roles.
	ManageRoles []models.Role
	Toggle      *Toggle
	Columns     []Column
	Fields      []FieldSpec
	Detail      []FieldSpec
	ReadOnly    bool
	NoCreate    bool
	// Custom definitions get their pages from a dedicated handler.
	Custom     bool
	Searchable bool
}

var titleCaser = cases.Title(language.English)

// Title is the page heading, e.g. "Contact Form".
func (d Definition) Title() string {
	return titleCaser.String(strings.ReplaceAll(d.Slug, "-", " "))
}

// SingularTitle is used in modal headings, e.g. "Edit Coupon".
func (d Definition) SingularTitle() string {
	return titleCaser.String(d.Singular)
}

// NavName matches the sidebar label of the resource.
func (d Definition) NavName() string {
	if d.Nav != "" {
		return d.Nav
	}
	return d.Title()
}

func (d Definition) RecordPath(id string) string {
	return d.Endpoint + "/" + id
}

// TogglePath returns the method and endpoint of the toggle call for a record.
func (d Definition) TogglePath(id string) (string, string) {
	method := http.MethodPut
	if d.Toggle.Method != "" {
		method = d.Toggle.Method
	}
	if d.Toggle.Path == "" {
		return method, d.RecordPath(id)
	}
	return method, fmt.Sprintf(d.Toggle.Path, id)
}

// HasFilter reports whether f is one of the definition's filters.
func (d Definition) HasFilter(f string) bool {
	for _, candidate := range d.Filters {
		if candidate == f {
			return true
		}
	}
	return false
}

// FormFields returns the inputs of the create (editing=false) or edit modal.
func (d Definition) FormFields(editing bool) []FieldSpec {
	out := make([]FieldSpec, 0, len(d.Fields))
	for _, f := range d.Fields {
		if editing && f.CreateOnly {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (d Definition) hasFileField() bool {
	for _, f := range d.Fields {
		if f.Kind == views.FieldFile {
			return true
		}
	}
	return false
}

func (d Definition) detailFields() []FieldSpec {
	if len(d.Detail) > 0 {
		return d.Detail
	}
	return d.Fields
}

func (d Definition) Managers() []models.Role {
	if d.ManageRoles != nil {
		return d.ManageRoles
	}
	return d.Roles
}

// CanCreate reports whether the list shows a "New" button.
func (d Definition) CanCreate() bool {
	return !d.ReadOnly && !d.NoCreate && len(d.Fields) > 0
}

// CanEdit reports whether rows have an edit action.
func (d Definition) CanEdit() bool {
	return !d.ReadOnly && len(d.Fields) > 0
}
