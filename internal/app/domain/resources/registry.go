package resources

import (
	"sort"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

var (
	adminOnly     = []models.Role{models.RoleAdmin}
	staff         = []models.Role{models.RoleAdmin, models.RoleEngineer}
	everyoneInApp = []models.Role{models.RoleAdmin, models.RoleEngineer, models.RoleUser}

	activeFilters = []string{models.FilterAll, "active", "inactive"}
)

func imageFields() []FieldSpec {
	return []FieldSpec{
		{Name: "image_url", Label: "Image URL", Kind: views.FieldText},
		{Name: "image", Label: "Image file", Kind: views.FieldFile, Accept: "image/*"},
	}
}

func withImage(fields ...FieldSpec) []FieldSpec {
	return append(fields, imageFields()...)
}

var definitions = []Definition{
	{
		Slug: "users", Endpoint: "admin/users", Key: "users", RecordKey: "user", Singular: "user",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active", Path: "admin/users/%s/status"},
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "role", Label: "Role", Kind: ColumnStatus},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
			{Name: "email", Label: "Email", Kind: views.FieldEmail, Required: true},
			{Name: "role", Label: "Role", Kind: views.FieldSelect, Required: true, Options: []views.Option{
				{Value: "admin", Label: "Admin"}, {Value: "engineer", Label: "Engineer"}, {Value: "user", Label: "User"},
			}},
			{Name: "password", Label: "Password", Kind: views.FieldPassword, Required: true, CreateOnly: true},
			{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		},
	},
	{
		Slug: "engineers", Endpoint: "admin/engineers", Key: "engineers", RecordKey: "engineer", Singular: "engineer",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "image_url", Label: "Photo", Kind: ColumnImage},
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: withImage(
			FieldSpec{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
			FieldSpec{Name: "email", Label: "Email", Kind: views.FieldEmail, Required: true},
			FieldSpec{Name: "bio", Label: "Bio", Kind: views.FieldRichText},
			FieldSpec{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		),
	},
	{
		Slug: "services", Endpoint: "admin/services", Key: "services", RecordKey: "service", Singular: "service",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "image_url", Label: "Image", Kind: ColumnImage},
			{Key: "name", Label: "Name"},
			{Key: "category.name", Label: "Category"},
			{Key: "price", Label: "Price"},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: withImage(
			FieldSpec{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
			FieldSpec{Name: "category_id", Label: "Category", Kind: views.FieldSelect, Required: true, OptionsFrom: "categories"},
			FieldSpec{Name: "price", Label: "Price", Kind: views.FieldNumber, Required: true},
			FieldSpec{Name: "description", Label: "Description", Kind: views.FieldRichText},
			FieldSpec{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		),
	},
	{
		Slug: "categories", Endpoint: "admin/categories", Key: "categories", RecordKey: "category", Singular: "category",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
			{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		},
	},
	{
		Slug: "labels", Endpoint: "admin/labels", Key: "labels", RecordKey: "label", Singular: "label",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
			{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		},
	},
	{
		Slug: "tags", Endpoint: "admin/tags", Key: "tags", RecordKey: "tag", Singular: "tag",
		Roles: adminOnly, Filters: []string{models.FilterAll}, Searchable: true,
		Columns: []Column{
			{Key: "name", Label: "Name"},
			{Key: "created_at", Label: "Created", Kind: ColumnDate},
		},
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: views.FieldText, Required: true},
		},
	},
	{
		Slug: "coupons", Endpoint: "admin/coupons", Key: "coupons", RecordKey: "coupon", Singular: "coupon",
		Roles: adminOnly, Filters: []string{models.FilterAll, "active", "inactive", "expired"}, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "code", Label: "Code"},
			{Key: "discount_type", Label: "Type"},
			{Key: "discount_value", Label: "Value"},
			{Key: "expires_at", Label: "Expires", Kind: ColumnDate},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "code", Label: "Code", Kind: views.FieldText, Required: true},
			{Name: "discount_type", Label: "Discount type", Kind: views.FieldSelect, Required: true, Options: []views.Option{
				{Value: "percent", Label: "Percent"}, {Value: "fixed", Label: "Fixed amount"},
			}},
			{Name: "discount_value", Label: "Discount value", Kind: views.FieldNumber, Required: true},
			{Name: "expires_at", Label: "Expires at", Kind: views.FieldDate},
			{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		},
	},
	{
		Slug: "blog", Endpoint: "admin/blogs", Key: "blogs", RecordKey: "blog", Singular: "post",
		Roles: adminOnly, Filters: []string{models.FilterAll, "published", "draft"}, Searchable: true,
		Toggle: &Toggle{Field: "is_published"},
		Columns: []Column{
			{Key: "image_url", Label: "Cover", Kind: ColumnImage},
			{Key: "title", Label: "Title", Kind: ColumnLink},
			{Key: "created_at", Label: "Created", Kind: ColumnDate},
			{Key: "is_published", Label: "Published", Kind: ColumnToggle},
		},
		Fields: withImage(
			FieldSpec{Name: "title", Label: "Title", Kind: views.FieldText, Required: true},
			FieldSpec{Name: "excerpt", Label: "Excerpt", Kind: views.FieldMarkdown},
			FieldSpec{Name: "content", Label: "Content", Kind: views.FieldRichText, Required: true},
			FieldSpec{Name: "is_published", Label: "Published", Kind: views.FieldCheckbox},
		),
	},
	{
		Slug: "gallery", Endpoint: "admin/gallery", Key: "images", RecordKey: "image", Singular: "image",
		Roles: adminOnly, Filters: []string{models.FilterAll}, Custom: true,
		Columns: []Column{
			{Key: "image_url", Label: "Image", Kind: ColumnImage},
		},
		Fields: []FieldSpec{
			{Name: "image", Label: "Image", Kind: views.FieldFile, Required: true, Accept: "image/*"},
		},
	},
	{
		Slug: "samples", Endpoint: "admin/samples", Key: "samples", RecordKey: "sample", Singular: "sample",
		Roles: adminOnly, Filters: activeFilters, Searchable: true,
		Toggle: &Toggle{Field: "is_active"},
		Columns: []Column{
			{Key: "title", Label: "Title"},
			{Key: "label.name", Label: "Label"},
			{Key: "audio_url", Label: "Audio", Kind: ColumnAudio},
			{Key: "is_active", Label: "Active", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "title", Label: "Title", Kind: views.FieldText, Required: true},
			{Name: "label_id", Label: "Label", Kind: views.FieldSelect, OptionsFrom: "labels"},
			{Name: "audio", Label: "Audio file", Kind: views.FieldFile, Required: true, CreateOnly: true, Accept: "audio/*"},
			{Name: "is_active", Label: "Active", Kind: views.FieldCheckbox},
		},
	},
	{
		Slug: "orders", Endpoint: "admin/orders", Key: "orders", RecordKey: "order", Singular: "order",
		Roles: everyoneInApp, ManageRoles: staff, NoCreate: true,
		Filters: []string{models.FilterAll, "pending", "processing", "completed", "cancelled"}, Searchable: true,
		Columns: []Column{
			{Key: "order_number", Label: "Order", Kind: ColumnLink},
			{Key: "user.name", Label: "Customer"},
			{Key: "service.name", Label: "Service"},
			{Key: "total", Label: "Total"},
			{Key: "status", Label: "Status", Kind: ColumnStatus},
			{Key: "created_at", Label: "Placed", Kind: ColumnDate},
		},
		Fields: []FieldSpec{
			{Name: "status", Label: "Status", Kind: views.FieldSelect, Required: true, Options: []views.Option{
				{Value: "pending", Label: "Pending"}, {Value: "processing", Label: "Processing"},
				{Value: "completed", Label: "Completed"}, {Value: "cancelled", Label: "Cancelled"},
			}},
		},
		Detail: []FieldSpec{
			{Name: "order_number", Label: "Order"},
			{Name: "user.name", Label: "Customer"},
			{Name: "service.name", Label: "Service"},
			{Name: "total", Label: "Total"},
			{Name: "status", Label: "Status"},
			{Name: "notes", Label: "Notes", Kind: views.FieldRichText},
			{Name: "created_at", Label: "Placed"},
		},
	},
	{
		Slug: "uploads", Endpoint: "admin/uploads", Key: "uploads", RecordKey: "upload", Singular: "upload",
		Roles: staff, Filters: []string{models.FilterAll}, ReadOnly: true, Searchable: true,
		Columns: []Column{
			{Key: "file_name", Label: "File", Kind: ColumnLink},
			{Key: "user.name", Label: "Uploaded by"},
			{Key: "order.order_number", Label: "Order"},
			{Key: "created_at", Label: "Uploaded", Kind: ColumnDate},
		},
		Detail: []FieldSpec{
			{Name: "file_name", Label: "File"},
			{Name: "file_url", Label: "URL"},
			{Name: "user.name", Label: "Uploaded by"},
			{Name: "order.order_number", Label: "Order"},
			{Name: "created_at", Label: "Uploaded"},
		},
	},
	{
		Slug: "contact-form", Endpoint: "admin/contact-forms", Key: "contact_forms", RecordKey: "contact_form", Singular: "message",
		Roles: adminOnly, Filters: []string{models.FilterAll, "read", "unread"}, ReadOnly: true, Searchable: true,
		Toggle: &Toggle{Field: "is_read"},
		Columns: []Column{
			{Key: "name", Label: "Name", Kind: ColumnLink},
			{Key: "email", Label: "Email"},
			{Key: "subject", Label: "Subject"},
			{Key: "created_at", Label: "Received", Kind: ColumnDate},
			{Key: "is_read", Label: "Read", Kind: ColumnToggle},
		},
		Detail: []FieldSpec{
			{Name: "name", Label: "Name"},
			{Name: "email", Label: "Email"},
			{Name: "phone", Label: "Phone"},
			{Name: "subject", Label: "Subject"},
			{Name: "message", Label: "Message", Kind: views.FieldTextarea},
			{Name: "created_at", Label: "Received"},
		},
	},
	{
		Slug: "newsletter", Endpoint: "admin/newsletters", Key: "newsletters", RecordKey: "newsletter", Singular: "subscriber",
		Nav: "News Letter", Roles: adminOnly, Filters: []string{models.FilterAll, "subscribed", "unsubscribed"}, Searchable: true,
		Toggle: &Toggle{Field: "is_subscribed"},
		Columns: []Column{
			{Key: "email", Label: "Email"},
			{Key: "created_at", Label: "Subscribed", Kind: ColumnDate},
			{Key: "is_subscribed", Label: "Subscribed", Kind: ColumnToggle},
		},
		Fields: []FieldSpec{
			{Name: "email", Label: "Email", Kind: views.FieldEmail, Required: true},
			{Name: "is_subscribed", Label: "Subscribed", Kind: views.FieldCheckbox},
		},
	},
}

// Registry looks definitions up by slug.
type Registry struct {
	bySlug map[string]Definition
	order  []string
}

func NewRegistry(defs ...Definition) *Registry {
	if len(defs) == 0 {
		defs = definitions
	}
	r := &Registry{bySlug: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.bySlug[d.Slug] = d
		r.order = append(r.order, d.Slug)
	}
	return r
}

func (r *Registry) Get(slug string) (Definition, bool) {
	d, ok := r.bySlug[slug]
	return d, ok
}

// All returns the definitions in catalogue order.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// Slugs returns the sorted slugs, for logs and tests.
func (r *Registry) Slugs() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}
