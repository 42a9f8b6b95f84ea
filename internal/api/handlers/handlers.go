package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/affiliate-tracker/internal/api/middleware"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/jobs"
	"github.com/dvloznov/affiliate-tracker/internal/networks"
)

// NetworksHandler handles network-related endpoints.
type NetworksHandler struct {
	log zerolog.Logger
}

// NewNetworksHandler creates a new networks handler.
func NewNetworksHandler(log zerolog.Logger) *NetworksHandler {
	return &NetworksHandler{log: log}
}

// ListNetworks handles GET /api/networks
func (h *NetworksHandler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	names := networks.Names()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"networks": names,
		"count":    len(names),
	})
}

// PollsHandler handles poll-related endpoints.
type PollsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewPollsHandler creates a new polls handler.
func NewPollsHandler(publisher jobs.Publisher, log zerolog.Logger) *PollsHandler {
	return &PollsHandler{
		publisher: publisher,
		log:       log,
	}
}

// EnqueuePoll handles POST /api/polls
func (h *PollsHandler) EnqueuePoll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Network string `json:"network"`
		Start   string `json:"start,omitempty"`
		End     string `json:"end,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Network == "" {
		middleware.WriteError(w, http.StatusBadRequest, "network is required")
		return
	}
	if _, err := networks.New(req.Network); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown network")
		return
	}

	job := &jobs.PollNetworkJob{
		Network: req.Network,
	}

	// Window bounds are optional; zero values take the adapter defaults
	if req.Start != "" {
		start, err := time.Parse("2006-01-02", req.Start)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start format, expected YYYY-MM-DD")
			return
		}
		job.Start = start
	}
	if req.End != "" {
		end, err := time.Parse("2006-01-02", req.End)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end format, expected YYYY-MM-DD")
			return
		}
		job.End = end
	}

	ctx := r.Context()

	if err := h.publisher.PublishPoll(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue poll job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue poll job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("network", req.Network).Msg("Poll job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"network": req.Network,
		"status":  string(job.Status),
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	repo bigquery.WarehouseRepository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo bigquery.WarehouseRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	network := query.Get("network")
	startDateStr := query.Get("start_date")
	endDateStr := query.Get("end_date")

	var startDate, endDate time.Time
	var err error

	if startDateStr != "" {
		startDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	} else {
		startDate = time.Now().AddDate(-1, 0, 0) // 1 year ago
	}

	if endDateStr != "" {
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	} else {
		endDate = time.Now()
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, network, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if transactions == nil {
		transactions = []*bigquery.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// MerchantsHandler handles merchant catalog endpoints.
type MerchantsHandler struct {
	repo bigquery.WarehouseRepository
	log  zerolog.Logger
}

// NewMerchantsHandler creates a new merchants handler.
func NewMerchantsHandler(repo bigquery.WarehouseRepository, log zerolog.Logger) *MerchantsHandler {
	return &MerchantsHandler{
		repo: repo,
		log:  log,
	}
}

// ListMerchants handles GET /api/merchants
func (h *MerchantsHandler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	network := r.URL.Query().Get("network")
	if network == "" {
		middleware.WriteError(w, http.StatusBadRequest, "network is required")
		return
	}

	merchants, err := h.repo.ListMerchantsByNetwork(ctx, network)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list merchants")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list merchants")
		return
	}

	if merchants == nil {
		merchants = []*bigquery.MerchantRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"merchants": merchants,
		"count":     len(merchants),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Network: query.Get("network"),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
