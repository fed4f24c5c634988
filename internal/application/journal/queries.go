package journal

import (
	"context"
	"fmt"
	"sort"

	"github.com/andrescamacho/warehouse-go/internal/application/common"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

// DefaultRecentLimit applies when RecentServicesQuery.Limit is not positive
const DefaultRecentLimit = 50

// RecentServicesQuery lists a warehouse's latest services, newest first
type RecentServicesQuery struct {
	Warehouse string
	Limit     int
}

// TruckServicesQuery lists every service of one truck, oldest first
type TruckServicesQuery struct {
	TruckID string
}

// ServicesResponse carries journal entries in query order
type ServicesResponse struct {
	Entries []warehouse.JournalEntry
}

// ServiceSummaryQuery counts a warehouse's successful services by kind
type ServiceSummaryQuery struct {
	Warehouse string
}

// KindCount is one row of a service summary
type KindCount struct {
	Kind  warehouse.TransferKind
	Count int
}

// ServiceSummaryResponse lists counts sorted by kind
type ServiceSummaryResponse struct {
	Warehouse string
	Counts    []KindCount
}

// Total sums every kind
func (r *ServiceSummaryResponse) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c.Count
	}
	return total
}

// RecentServicesHandler handles RecentServicesQuery
type RecentServicesHandler struct {
	repo warehouse.ServiceJournalRepository
}

// NewRecentServicesHandler creates a new handler
func NewRecentServicesHandler(repo warehouse.ServiceJournalRepository) *RecentServicesHandler {
	return &RecentServicesHandler{repo: repo}
}

// Handle executes the query
func (h *RecentServicesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*RecentServicesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	entries, err := h.repo.FindRecent(ctx, query.Warehouse, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent services: %w", err)
	}
	return &ServicesResponse{Entries: entries}, nil
}

// TruckServicesHandler handles TruckServicesQuery
type TruckServicesHandler struct {
	repo warehouse.ServiceJournalRepository
}

// NewTruckServicesHandler creates a new handler
func NewTruckServicesHandler(repo warehouse.ServiceJournalRepository) *TruckServicesHandler {
	return &TruckServicesHandler{repo: repo}
}

// Handle executes the query
func (h *TruckServicesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*TruckServicesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if query.TruckID == "" {
		return nil, fmt.Errorf("truck id is required")
	}

	entries, err := h.repo.FindByTruck(ctx, query.TruckID)
	if err != nil {
		return nil, fmt.Errorf("failed to query services of truck %s: %w", query.TruckID, err)
	}
	return &ServicesResponse{Entries: entries}, nil
}

// ServiceSummaryHandler handles ServiceSummaryQuery
type ServiceSummaryHandler struct {
	repo warehouse.ServiceJournalRepository
}

// NewServiceSummaryHandler creates a new handler
func NewServiceSummaryHandler(repo warehouse.ServiceJournalRepository) *ServiceSummaryHandler {
	return &ServiceSummaryHandler{repo: repo}
}

// Handle executes the query
func (h *ServiceSummaryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ServiceSummaryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	counts, err := h.repo.CountByKind(ctx, query.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise services: %w", err)
	}

	rows := make([]KindCount, 0, len(counts))
	for kind, n := range counts {
		rows = append(rows, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Kind < rows[j].Kind })

	return &ServiceSummaryResponse{Warehouse: query.Warehouse, Counts: rows}, nil
}

// RegisterHandlers binds every journal query to repo
func RegisterHandlers(m common.Mediator, repo warehouse.ServiceJournalRepository) error {
	if err := common.RegisterHandler[*RecentServicesQuery](m, NewRecentServicesHandler(repo)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*TruckServicesQuery](m, NewTruckServicesHandler(repo)); err != nil {
		return err
	}
	return common.RegisterHandler[*ServiceSummaryQuery](m, NewServiceSummaryHandler(repo))
}
