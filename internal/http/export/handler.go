package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	txHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

// download accepts the list filters plus format=csv (default) or format=txt.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := txHandler.ListFilter(r.URL.Query())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	owner, _ := middleware.UserID(r.Context())

	var (
		buf         bytes.Buffer
		ext         string
		contentType string
	)

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		ext, contentType = "csv", "text/csv; charset=utf-8"
		err = h.svc.WriteCSV(r.Context(), owner, filter, &buf)
	case "txt":
		ext, contentType = "txt", "text/plain; charset=utf-8"
		err = h.svc.WriteDigest(r.Context(), owner, filter, &buf)
	default:
		respond.BadRequest(w, r, fmt.Sprintf("unsupported format %q", format), nil)
		return
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(h.now(), ext)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
