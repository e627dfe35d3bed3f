package handlers

import (
	"net/http"
)

// Options returns the dropdown values and labels of the negotiated locale,
// for clients that render their own form.
func (a *App) Options(w http.ResponseWriter, r *http.Request) {
	l := a.locale(r)
	languages := make([]map[string]string, 0, len(l.Options.Languages))
	for _, code := range l.Options.Languages {
		languages = append(languages, map[string]string{"value": code, "label": l.LanguageLabel(code)})
	}
	a.json(w, http.StatusOK, map[string]any{
		"locale":          l.Code,
		"models":          a.Jobs.Models(),
		"upload_mode":     a.Jobs.UploadMode(),
		"options":         l.Options,
		"language_labels": languages,
		"labels":          l.Labels,
	})
}
