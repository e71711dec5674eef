package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"copurchase-dashboard/internal/dataset"
	"copurchase-dashboard/internal/models"
)

// PrecomputedData is every dashboard view for one enriched dataset.
type PrecomputedData struct {
	Summary         models.Summary            `json:"summary"`
	StatusTrend     models.StatusTrend        `json:"status_trend"`
	TransactionFlow models.TransactionFlow    `json:"transaction_flow"`
	Leaders         models.LeaderActivity     `json:"leaders"`
	Regions         models.RegionalBreakdown  `json:"regions"`
	Categories      models.CategoryPopularity `json:"categories"`
	Favorites       models.FavoritesAnalysis  `json:"favorites"`
	Counts          map[string]int            `json:"counts"`
	Report          dataset.Report            `json:"report"`
	LeaderRule      string                    `json:"leader_rule"`
	LastModified    time.Time                 `json:"last_modified"`
}

// Analytics holds the precomputed views of one session. Views are computed
// once per load and only read afterwards.
type Analytics struct {
	mu          sync.RWMutex
	precomputed *PrecomputedData
	logger      *slog.Logger
}

func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		precomputed: emptyPrecomputed(),
		logger:      logger,
	}
}

func emptyPrecomputed() *PrecomputedData {
	return computeAnalytics(models.EmptyDataset(), "")
}

// SetData replaces every view with ones computed from ds, which must already
// be enriched. report describes where ds came from.
func (a *Analytics) SetData(ds *models.Dataset, leaderRule string, report dataset.Report) {
	data := computeAnalytics(ds, leaderRule)
	data.Report = report

	a.mu.Lock()
	defer a.mu.Unlock()
	a.precomputed = data
}

// Load runs the pipeline and precomputes the views from its output.
func (a *Analytics) Load(ctx context.Context, p *dataset.Pipeline) error {
	start := time.Now()

	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	a.SetData(res.Dataset, p.Classifier().Name(), res.Report)

	a.logger.Info("dataset loaded",
		"policy", res.Report.Policy,
		"sample", res.Report.Sample,
		"boards", res.Dataset.GroupBoards.Len(),
		"participants", res.Dataset.Participants.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// completeDataset substitutes empty tables for nil ones without copying rows.
func completeDataset(ds *models.Dataset) *models.Dataset {
	if ds == nil {
		return models.EmptyDataset()
	}
	out := *ds
	if out.Products == nil {
		out.Products = models.EmptyTable[models.Product]()
	}
	if out.Categories == nil {
		out.Categories = models.EmptyTable[models.Category]()
	}
	if out.GroupProducts == nil {
		out.GroupProducts = models.EmptyTable[models.GroupProduct]()
	}
	if out.GroupBoards == nil {
		out.GroupBoards = models.EmptyTable[models.GroupBoard]()
	}
	if out.Participants == nil {
		out.Participants = models.EmptyTable[models.Participant]()
	}
	if out.Users == nil {
		out.Users = models.EmptyTable[models.User]()
	}
	if out.Favorites == nil {
		out.Favorites = models.EmptyTable[models.Favorite]()
	}
	return &out
}

func computeAnalytics(ds *models.Dataset, leaderRule string) *PrecomputedData {
	ds = completeDataset(ds)
	data := &PrecomputedData{
		Counts:       recordCounts(ds),
		LeaderRule:   leaderRule,
		LastModified: time.Now(),
	}

	// Views read ds concurrently but never write to it.
	views := []func(){
		func() { data.Summary = computeSummary(ds) },
		func() { data.StatusTrend = computeStatusTrend(ds) },
		func() { data.TransactionFlow = computeTransactionFlow(ds) },
		func() { data.Leaders = computeLeaderActivity(ds, leaderRule) },
		func() { data.Regions = computeRegionalBreakdown(ds) },
		func() { data.Categories = computeCategoryPopularity(ds) },
		func() { data.Favorites = computeFavorites(ds) },
	}
	var wg sync.WaitGroup
	wg.Add(len(views))
	for _, view := range views {
		go func() {
			defer wg.Done()
			view()
		}()
	}
	wg.Wait()

	return data
}

func recordCounts(ds *models.Dataset) map[string]int {
	return map[string]int{
		string(dataset.TableProducts):      ds.Products.Len(),
		string(dataset.TableCategories):    ds.Categories.Len(),
		string(dataset.TableGroupProducts): ds.GroupProducts.Len(),
		string(dataset.TableGroupBoards):   ds.GroupBoards.Len(),
		string(dataset.TableParticipants):  ds.Participants.Len(),
		string(dataset.TableUsers):         ds.Users.Len(),
		string(dataset.TableFavorites):     ds.Favorites.Len(),
	}
}

func (a *Analytics) Summary() models.Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Summary
}

func (a *Analytics) StatusTrend() models.StatusTrend {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.StatusTrend
}

func (a *Analytics) TransactionFlow() models.TransactionFlow {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.TransactionFlow
}

func (a *Analytics) LeaderActivity() models.LeaderActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Leaders
}

func (a *Analytics) Regions() models.RegionalBreakdown {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Regions
}

func (a *Analytics) CategoryPopularity() models.CategoryPopularity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Categories
}

func (a *Analytics) Favorites() models.FavoritesAnalysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Favorites
}

func (a *Analytics) Report() dataset.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Report
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_counts":  maps.Clone(a.precomputed.Counts),
		"last_processed": a.precomputed.LastModified,
		"policy":         a.precomputed.Report.Policy,
		"sample":         a.precomputed.Report.Sample,
		"leader_rule":    a.precomputed.LeaderRule,
		"load_duration":  a.precomputed.Report.Duration.String(),
	}
}
