package handler

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/store"
)

func TestContactSubmit(t *testing.T) {
	env := setupEnv(t)
	contacts := store.NewContactStore(env.db)
	m := metrics.NewApp(prometheus.NewRegistry())
	h := NewContactHandler(contacts, env.sender, "admin@example.edu", "Climatology Lab", m, env.render, discard)
	c := &client{t: t}

	rec := c.do(h.Submit, postForm("/contact/", url.Values{
		"name":  {"Asha"},
		"email": {"asha@example.com"},
		"query": {"Can I visit the lab?"},
	}))
	expectRedirect(t, rec, "/")

	subs, err := contacts.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "Asha" {
		t.Fatalf("submissions = %+v", subs)
	}

	msgs := env.sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if msgs[0].To[0] != "admin@example.edu" || msgs[0].Subject != "New Contact Form Submission from Asha" {
		t.Errorf("admin message = %+v", msgs[0])
	}
	if !strings.Contains(msgs[0].Body, "Phone: Not provided") {
		t.Errorf("admin body missing phone placeholder: %q", msgs[0].Body)
	}
	if msgs[1].To[0] != "asha@example.com" || !strings.Contains(msgs[1].Body, "Can I visit the lab?") {
		t.Errorf("auto-reply = %+v", msgs[1])
	}
	if got := testutil.ToFloat64(m.ContactSubmissions); got != 1 {
		t.Errorf("contact submissions metric = %v, want 1", got)
	}
}

func TestContactSubmitMailFailureStillSucceeds(t *testing.T) {
	env := setupEnv(t)
	env.sender.err = errors.New("smtp down")
	contacts := store.NewContactStore(env.db)
	h := NewContactHandler(contacts, env.sender, "admin@example.edu", "Climatology Lab", nil, env.render, discard)
	c := &client{t: t}

	rec := c.do(h.Submit, postForm("/contact/", url.Values{
		"name":  {"Asha"},
		"email": {"asha@example.com"},
		"query": {"Hello"},
	}))
	expectRedirect(t, rec, "/")

	n, err := contacts.CountUnread()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}
}

func TestContactSubmitRejectsInvalid(t *testing.T) {
	env := setupEnv(t)
	contacts := store.NewContactStore(env.db)
	h := NewContactHandler(contacts, env.sender, "admin@example.edu", "Climatology Lab", nil, env.render, discard)
	c := &client{t: t}

	rec := c.do(h.Submit, postForm("/contact/", url.Values{
		"name":  {"Asha"},
		"email": {"not-an-email"},
		"query": {"Hello"},
	}))
	expectRedirect(t, rec, "/")

	if n, _ := contacts.CountUnread(); n != 0 {
		t.Errorf("stored %d submissions, want 0", n)
	}
	if n := len(env.sender.messages()); n != 0 {
		t.Errorf("sent %d messages, want 0", n)
	}
}
