package ui

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
)

// renderTemplate executes a template into a buffer first so a template
// error never leaves a half-written response.
func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[ERROR] template %s: %v", name, err)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[ERROR] writing template response: %v", err)
	}
}

// writeFragment sends an HTML fragment, the htmx swap payload.
func writeFragment(w http.ResponseWriter, frag template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(frag)); err != nil {
		log.Printf("[ERROR] writing fragment response: %v", err)
	}
}

// writeNotice sends a scoped user-visible notice fragment.
func writeNotice(w http.ResponseWriter, status int, scope, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	var buf bytes.Buffer
	buf.WriteString(`<div class="notice"><strong>`)
	template.HTMLEscape(&buf, []byte(scope))
	buf.WriteString(`:</strong> `)
	template.HTMLEscape(&buf, []byte(message))
	buf.WriteString(`</div>`)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[ERROR] writing notice response: %v", err)
	}
}
