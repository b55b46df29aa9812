package handler

import (
	"net/http"

	"platformo/internal/editor"
	"platformo/internal/httputil"
	"platformo/internal/i18n"
)

// I18nHandler serves string tables and the localized block catalog. Both are
// public so the login screen can be translated.
type I18nHandler struct {
	store *i18n.Store
}

// NewI18nHandler creates a new translations handler
func NewI18nHandler(store *i18n.Store) *I18nHandler {
	return &I18nHandler{store: store}
}

// GetStrings returns the nested string table for one language
// GET /api/i18n/{lang}
func (h *I18nHandler) GetStrings(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	table, err := h.store.Table(lang)
	if err != nil {
		httputil.RespondErrorWithExtras(w, http.StatusNotFound, err.Error(), map[string]interface{}{
			"supported": h.store.Languages(),
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"language": table.Language,
		"strings":  table.Tree(),
	})
}

// GetBlocks returns block definitions and toolbox for the requested or
// negotiated language
// GET /api/blocks?lang=
func (h *I18nHandler) GetBlocks(w http.ResponseWriter, r *http.Request) {
	lang := httputil.PreferredLanguage(r, h.store.Languages(), h.store.DefaultLanguage())
	table, err := h.store.Table(lang)
	if err != nil {
		table = h.store.Default()
	}

	httputil.RespondJSON(w, http.StatusOK, editor.NewCatalog(table))
}
