package importcsv

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	txHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported     int                  `json:"imported"`
	Transactions []txHandler.Response `json:"transactions"`
}

type paramsDTO struct {
	Title    string               `json:"title"`
	Amount   decimal.Decimal      `json:"amount"`
	Category transaction.Category `json:"category"`
	Type     transaction.Type     `json:"type"`
	Date     time.Time            `json:"date"`
}

type conflictDTO struct {
	Incoming paramsDTO          `json:"incoming"`
	Existing txHandler.Response `json:"existing"`
}

type importConflictResponse struct {
	New       []paramsDTO   `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type confirmRequest struct {
	Params []paramsDTO `json:"params"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, r, "failed to parse form", err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file field is required", err)
		return
	}
	defer file.Close()

	owner, _ := middleware.UserID(r.Context())

	params, err := h.importSvc.Parse(r.Context(), owner, file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.txSvc.ImportBatch(r.Context(), owner, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]paramsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: txHandler.ToResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "invalid request body", err)
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, transaction.CreateParams{
			Title:    p.Title,
			Amount:   decimal.NewNullDecimal(p.Amount),
			Category: p.Category,
			Type:     p.Type,
			Date:     p.Date,
		})
	}

	owner, _ := middleware.UserID(r.Context())

	txs, err := h.txSvc.CreateBatch(r.Context(), owner, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(txs))
}

func toSuccessResponse(txs []*transaction.Transaction) importSuccessResponse {
	return importSuccessResponse{
		Imported:     len(txs),
		Transactions: txHandler.ToResponseList(txs),
	}
}

func toParamsDTO(p transaction.CreateParams) paramsDTO {
	return paramsDTO{
		Title:    p.Title,
		Amount:   p.Amount.Decimal,
		Category: p.Category,
		Type:     p.Type,
		Date:     p.Date,
	}
}
