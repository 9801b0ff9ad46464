package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/mail"
	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
)

type ContactHandler struct {
	contacts   *store.ContactStore
	sender     mail.Sender
	adminEmail string
	siteName   string
	metrics    *metrics.App
	render     *Renderer
	logger     *slog.Logger
}

func NewContactHandler(cs *store.ContactStore, sender mail.Sender, adminEmail, siteName string, m *metrics.App, render *Renderer, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contacts:   cs,
		sender:     sender,
		adminEmail: adminEmail,
		siteName:   siteName,
		metrics:    m,
		render:     render,
		logger:     logger.With("component", "contact"),
	}
}

type contactForm struct {
	Name  string `json:"name"  validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=20"`
	Query string `json:"query" validate:"required"`
}

// Submit stores a contact form submission and mails the lab and the sender.
// Mail failures are logged and never shown to the visitor.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	form := contactForm{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Phone: strings.TrimSpace(r.PostFormValue("phone")),
		Query: strings.TrimSpace(r.PostFormValue("query")),
	}
	if err := validate.Struct(form); err != nil {
		h.render.Flash(w, r, session.LevelError, "Please check the contact form: "+validationMessage(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sub, err := h.contacts.Create(form.Name, form.Email, form.Phone, form.Query)
	if err != nil {
		h.logger.Error("failed to store contact submission", "error", err)
		h.render.Flash(w, r, session.LevelError, "Sorry, your message could not be saved. Please try again later.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if h.metrics != nil {
		h.metrics.ContactSubmissions.Inc()
	}

	if err := h.sender.Send(r.Context(), adminNotification(sub, h.adminEmail, h.siteName)); err != nil {
		h.logger.Error("failed to send admin email", "submission_id", sub.ID, "error", err)
	}
	if err := h.sender.Send(r.Context(), autoReply(sub, h.siteName)); err != nil {
		h.logger.Error("failed to send auto-reply", "submission_id", sub.ID, "error", err)
	}

	h.render.Flash(w, r, session.LevelSuccess, "Thank you for contacting us! We have sent a confirmation email to your address.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func adminNotification(sub *model.ContactSubmission, adminEmail, siteName string) mail.Message {
	phone := sub.Phone
	if phone == "" {
		phone = "Not provided"
	}
	var b strings.Builder
	b.WriteString("New contact form submission received:\n\n")
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n\n", sub.Name, sub.Email, phone)
	fmt.Fprintf(&b, "Message/Query:\n%s\n\n", sub.Query)
	fmt.Fprintf(&b, "---\nThis email was sent from the %s website contact form.\nSubmission ID: %d\n", siteName, sub.ID)

	return mail.Message{
		To:      []string{adminEmail},
		Subject: "New Contact Form Submission from " + sub.Name,
		Body:    b.String(),
	}
}

func autoReply(sub *model.ContactSubmission, siteName string) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", sub.Name)
	b.WriteString("Thank you for connecting with us. We have received your query and will get back to you soon.\n\n")
	fmt.Fprintf(&b, "Your Query:\n%s\n\n", sub.Query)
	fmt.Fprintf(&b, "We appreciate your interest in the %s and will respond to your inquiry as quickly as possible.\n\n", siteName)
	fmt.Fprintf(&b, "Best regards,\n%s\n", siteName)

	return mail.Message{
		To:      []string{sub.Email},
		Subject: "Thank You for Contacting " + siteName,
		Body:    b.String(),
	}
}
