package models

import "github.com/a-h/templ"

type NavItem struct {
	Name string
	URL  string
	Icon string
}

type Navigation struct {
	Items []NavItem
}

// LayoutTempl is everything the page shell needs around a feature's content.
type LayoutTempl struct {
	Title        string
	Session      Session
	Nav          Navigation
	ActiveNav    string
	CSRFToken    string
	PageInstance string
	Content      templ.Component
}

var adminNav = Navigation{
	Items: []NavItem{
		{Name: "Dashboard", URL: "/dashboard", Icon: "gauge"},
		{Name: "Users", URL: "/users", Icon: "users"},
		{Name: "Engineers", URL: "/engineers", Icon: "headphones"},
		{Name: "Services", URL: "/services", Icon: "sliders"},
		{Name: "Labels", URL: "/labels", Icon: "tag"},
		{Name: "Categories", URL: "/categories", Icon: "folder"},
		{Name: "Tags", URL: "/tags", Icon: "hash"},
		{Name: "Coupons", URL: "/coupons", Icon: "ticket"},
		{Name: "Blog", URL: "/blog", Icon: "pen"},
		{Name: "Gallery", URL: "/gallery", Icon: "image"},
		{Name: "Samples", URL: "/samples", Icon: "music"},
		{Name: "News Letter", URL: "/newsletter", Icon: "mail"},
		{Name: "Contact Form", URL: "/contact-form", Icon: "inbox"},
		{Name: "Uploads", URL: "/uploads", Icon: "upload"},
		{Name: "Orders", URL: "/orders", Icon: "cart"},
		{Name: "Chat", URL: "/chat", Icon: "chat"},
		{Name: "Activity", URL: "/activity", Icon: "list"},
	},
}

var engineerNav = Navigation{
	Items: []NavItem{
		{Name: "Orders", URL: "/orders", Icon: "cart"},
		{Name: "Uploads", URL: "/uploads", Icon: "upload"},
		{Name: "Chat", URL: "/chat", Icon: "chat"},
	},
}

var userNav = Navigation{
	Items: []NavItem{
		{Name: "Orders", URL: "/orders", Icon: "cart"},
		{Name: "Chat", URL: "/chat", Icon: "chat"},
	},
}

// NavFor returns the sidebar links for a role.
func NavFor(r Role) Navigation {
	switch r {
	case RoleAdmin:
		return adminNav
	case RoleEngineer:
		return engineerNav
	case RoleUser:
		return userNav
	case RoleUnauthenticated:
		return Navigation{}
	default:
		return Navigation{}
	}
}
