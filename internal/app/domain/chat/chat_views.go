package chat

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	messagesID = "messages"
	statusID   = "chat-status"
	typingID   = "typing-indicator"
)

type ChatPageProps struct {
	Conversations []models.Conversation
	ActiveID      string
	Instance      string
	Me            models.Session
	Error         string
}

func ChatPage(p ChatPageProps) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<section class="chat flex h-[calc(100vh-8rem)] gap-4">`)
		h.Raw(`<aside class="chat-list w-72 shrink-0 overflow-y-auto rounded-lg bg-white shadow"><ul>`)
		if p.Error != "" {
			h.Raw(`<li class="p-4">`)
			h.Component(views.ErrorBanner(p.Error))
			h.Raw(`</li>`)
		} else if len(p.Conversations) == 0 {
			h.Raw(`<li class="chat-empty p-4 text-sm text-gray-500">No conversations yet.</li>`)
		}
		for _, c := range p.Conversations {
			cls := "chat-link block border-b px-4 py-3 hover:bg-gray-50"
			if c.ChatID == p.ActiveID {
				cls += " active bg-indigo-50"
			}
			h.Raw(`<li><a class="`, views.Esc(cls), `" href="/chat/`, views.Esc(url.PathEscape(c.ChatID)), `" data-chat-id="`, views.Esc(c.ChatID), `">`)
			h.Raw(`<span class="font-medium">`)
			h.Text(c.CounterpartName)
			h.Raw(`</span>`)
			if c.Unread > 0 {
				h.Raw(` `)
				h.Component(views.Badge(strconv.Itoa(c.Unread), views.BadgeBlue, "unread"))
			}
			if c.LastMessage != "" {
				h.Raw(`<span class="block truncate text-xs text-gray-500">`)
				h.Text(c.LastMessage)
				h.Raw(`</span>`)
			}
			h.Raw(`</a></li>`)
		}
		h.Raw(`</ul></aside>`)

		if p.ActiveID == "" {
			h.Raw(`<div id="chat-panel" class="flex flex-1 items-center justify-center text-gray-500">Select a conversation.</div>`)
		} else {
			h.Component(panel(p))
		}
		h.Raw(`</section>`)
	})
}

func panel(p ChatPageProps) templ.Component {
	return views.Func(func(h *views.Writer) {
		id := url.PathEscape(p.ActiveID)
		socket := "/ws/chat/" + id + "?instance=" + url.QueryEscape(p.Instance)
		h.Raw(`<div id="chat-panel" class="flex flex-1 flex-col rounded-lg bg-white shadow" hx-ext="ws" ws-connect="`, views.Esc(socket), `" data-chat-id="`, views.Esc(p.ActiveID), `">`)
		h.Component(StatusBanner(ConnectionEvent{ChatID: p.ActiveID, Up: true}, false))
		h.Raw(`<div id="`, messagesID, `" class="chat-messages flex-1 space-y-2 overflow-y-auto p-4"></div>`)
		h.Component(TypingIndicator("", false))
		h.Raw(`<form class="chat-form flex items-end gap-2 border-t p-3" hx-post="/chat/`, views.Esc(id), `/messages" hx-target="#`, messagesID, `" hx-swap="beforeend" hx-encoding="multipart/form-data" hx-on::after-request="if(event.detail.successful) this.reset()">`)
		h.Component(views.HiddenInput("instance", p.Instance))
		h.Raw(`<textarea name="message" rows="1" class="chat-input flex-1 rounded-md border p-2 text-sm" placeholder="Write a message" data-typing></textarea>`)
		h.Raw(`<input type="file" name="file" class="chat-file text-xs">`)
		h.Component(views.Button(views.ButtonProps{Label: "Send", Type: "submit"}))
		h.Raw(`</form></div>`)
	})
}

// Bubble renders one message. Messages from me are aligned right.
func Bubble(m models.ChatMessage, me int64) templ.Component {
	return views.Func(func(h *views.Writer) {
		cls := "chat-bubble max-w-[70%] rounded-lg px-3 py-2 text-sm"
		if m.Mine(me) {
			cls += " mine ml-auto bg-indigo-600 text-white"
		} else {
			cls += " bg-gray-100"
		}
		h.Raw(`<div class="`, cls, `" data-id="`, views.Esc(m.ID), `">`)
		if !m.Mine(me) && m.SenderName != "" {
			h.Raw(`<p class="chat-sender text-xs font-semibold">`)
			h.Text(m.SenderName)
			h.Raw(`</p>`)
		}
		if m.Message != "" {
			h.Raw(`<p class="chat-text whitespace-pre-wrap">`)
			h.Text(m.Message)
			h.Raw(`</p>`)
		}
		if m.FileURL != "" {
			if isImage(m.FileURL) {
				h.Raw(`<a href="`, views.URL(m.FileURL), `" target="_blank" rel="noopener"><img class="chat-image mt-1 max-h-48 rounded" src="`, views.URL(m.FileURL), `" alt=""></a>`)
			} else {
				h.Raw(`<a class="chat-file-link underline" href="`, views.URL(m.FileURL), `" target="_blank" rel="noopener">`)
				h.Text(fileName(m.FileURL))
				h.Raw(`</a>`)
			}
		}
		if !m.CreatedAt.IsZero() {
			h.Raw(`<time class="block text-right text-[10px] opacity-70" datetime="`, m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), `">`, m.CreatedAt.Format("15:04"), `</time>`)
		}
		h.Raw(`</div>`)
	})
}

// History replaces the message list; sent once when the relay opens.
func History(msgs []models.ChatMessage, me int64) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<div id="`, messagesID, `" hx-swap-oob="innerHTML">`)
		if len(msgs) == 0 {
			h.Raw(`<p class="chat-empty text-center text-sm text-gray-400">No messages yet.</p>`)
		}
		for _, m := range msgs {
			h.Component(Bubble(m, me))
		}
		h.Raw(`</div>`)
	})
}

// Appended adds one live message at the bottom of the list.
func Appended(m models.ChatMessage, me int64) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<div id="`, messagesID, `" hx-swap-oob="beforeend">`)
		h.Component(Bubble(m, me))
		h.Raw(`</div>`)
	})
}

func TypingIndicator(name string, oob bool) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<div id="`, typingID, `" class="px-4 text-xs italic text-gray-500"`)
		if oob {
			h.Raw(` hx-swap-oob="true"`)
		}
		h.Raw(`>`)
		if name != "" {
			h.Text(name + " is typing…")
		}
		h.Raw(`</div>`)
	})
}

// StatusBanner shows the reconnecting notice while the backend socket is down.
func StatusBanner(ev ConnectionEvent, oob bool) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<div id="`, statusID, `"`)
		if oob {
			h.Raw(` hx-swap-oob="true"`)
		}
		switch {
		case ev.Lost:
			h.Raw(` class="chat-lost bg-red-50 px-4 py-2 text-sm text-red-700" role="alert">Connection lost. Reload the page to try again.`)
		case !ev.Up:
			h.Raw(` class="chat-reconnecting bg-yellow-50 px-4 py-2 text-sm text-yellow-800" role="status">Reconnecting…`)
		default:
			h.Raw(` class="hidden">`)
		}
		h.Raw(`</div>`)
	})
}

func isImage(u string) bool {
	switch strings.ToLower(path.Ext(strings.SplitN(u, "?", 2)[0])) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

func fileName(u string) string {
	name := path.Base(strings.SplitN(u, "?", 2)[0])
	if name == "." || name == "/" {
		return "Attachment"
	}
	return name
}
