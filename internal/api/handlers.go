package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/database"
	"github.com/jpradley/asset-ledger-service/internal/ledger"
	"github.com/jpradley/asset-ledger-service/internal/models"
	"github.com/jpradley/asset-ledger-service/internal/prices"
	"github.com/jpradley/asset-ledger-service/internal/valuation"
)

const dateLayout = "2006-01-02"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db         *database.DB
	ledger     *ledger.Service
	backfiller *valuation.Backfiller
	prices     *prices.Source
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, ledgerSvc *ledger.Service, backfiller *valuation.Backfiller, priceSource *prices.Source) *Handler {
	return &Handler{
		db:         db,
		ledger:     ledgerSvc,
		backfiller: backfiller,
		prices:     priceSource,
	}
}

// RecordTransaction handles POST /transactions
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, err := h.ledger.RecordTransaction(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// RecordTrade handles POST /trades
func (h *Handler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	var in ledger.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out, inLeg, err := h.ledger.RecordTrade(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, []*models.Transaction{out, inLeg})
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTransactions handles GET /transactions?symbol=&limit=
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	var txs []*models.Transaction
	var err error
	if symbol != "" {
		txs, err = h.db.GetTransactionsBySymbol(symbol)
	} else {
		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			if n, convErr := strconv.Atoi(l); convErr == nil && n > 0 {
				limit = n
			}
		}
		txs, err = h.db.GetAllTransactions(limit)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

// GetAllHoldings handles GET /holdings
func (h *Handler) GetAllHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.db.GetAllHoldings()
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// GetHolding handles GET /holdings/{symbol}
func (h *Handler) GetHolding(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	holding, err := h.db.GetHolding(symbol)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

// GetValuation handles GET /valuations/{symbol}?date=&price=
// When no price is supplied the stored historical price is used, falling back
// to the latest known price.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	var price decimal.Decimal
	if p := r.URL.Query().Get("price"); p != "" {
		price, err = decimal.NewFromString(p)
		if err != nil || price.IsNegative() {
			http.Error(w, "invalid price", http.StatusBadRequest)
			return
		}
	} else {
		price, err = h.prices.On(r.Context(), symbol, date)
		if err != nil {
			price, err = h.prices.Latest(r.Context(), symbol)
			if err != nil {
				price = decimal.Zero
			}
		}
	}

	txs, err := h.db.GetTransactionsBySymbol(symbol)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, valuation.ReplayAsOf(symbol, txs, date, price))
}

// Backfill handles POST /backfill
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol    string `json:"symbol"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		req.Symbol = valuation.AllAssets
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "start_date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		http.Error(w, "end_date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	report, err := h.backfiller.Backfill(r.Context(), req.Symbol, start, end)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetSnapshots handles GET /snapshots/{symbol}?start=&end=
func (h *Handler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	var err error
	if s := r.URL.Query().Get("start"); s != "" {
		if start, err = time.Parse(dateLayout, s); err != nil {
			http.Error(w, "invalid start date", http.StatusBadRequest)
			return
		}
	}
	if e := r.URL.Query().Get("end"); e != "" {
		if end, err = time.Parse(dateLayout, e); err != nil {
			http.Error(w, "invalid end date", http.StatusBadRequest)
			return
		}
	}

	snapshots, err := h.db.GetSnapshotRange(symbol, start, end)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}

// GetAssets handles GET /assets
func (h *Handler) GetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.db.GetAllAssets()
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, assets)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
