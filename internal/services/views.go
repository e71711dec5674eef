package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"copurchase-dashboard/internal/aggregate"
	"copurchase-dashboard/internal/models"
)

const (
	topN             = 10
	maxHistogramBins = 20
	minCategoryRows  = 3
	monthLayout      = "2006-01"

	// Label for joins that found no category or a blank name.
	unclassified = "미분류"
	// Label for boards with no location.
	unknownRegion = "기타"
)

func month(t *time.Time) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.Format(monthLayout), true
}

func monthlySeries(counts map[string]int) []models.MonthlyCount {
	out := make([]models.MonthlyCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, models.MonthlyCount{Month: m, Count: n})
	}
	slices.SortFunc(out, func(a, b models.MonthlyCount) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// labelCounts sorts by count descending, then label, and keeps at most limit
// entries when limit > 0.
func labelCounts(counts map[string]int, limit int) []models.LabelCount {
	out := make([]models.LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.LabelCount{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b models.LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func bucketCounts(counts map[models.PriceBucket]int) []models.LabelCount {
	out := make([]models.LabelCount, 0, len(models.PriceBuckets))
	for _, b := range models.PriceBuckets {
		out = append(out, models.LabelCount{Label: string(b), Count: counts[b]})
	}
	return out
}

func categoryNames(ds *models.Dataset) map[int64]string {
	names := make(map[int64]string, ds.Categories.Len())
	for _, c := range ds.Categories.Rows {
		names[c.CategoryID] = c.Name
	}
	return names
}

func categoryLabel(names map[int64]string, id *int64) string {
	if id == nil {
		return unclassified
	}
	if name, ok := names[*id]; ok && name != "" {
		return name
	}
	return unclassified
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func computeSummary(ds *models.Dataset) models.Summary {
	boards := ds.GroupBoards
	participants := ds.Participants

	s := models.Summary{
		TotalBoards:       aggregate.SafeCount(boards),
		TotalParticipants: aggregate.SafeCount(participants),
		MonthlyBoards:     []models.MonthlyCount{},
	}
	s.HasData = s.TotalBoards > 0

	succeeded := 0
	var current, capacity int64
	monthly := make(map[string]int)
	for _, b := range boards.Rows {
		if b.Status == models.StatusSucceeded {
			succeeded++
		}
		if b.CurrentParticipants != nil && b.MaxParticipants != nil {
			current += *b.CurrentParticipants
			capacity += *b.MaxParticipants
		}
		if m, ok := month(b.CreatedAt); ok {
			monthly[m]++
		}
	}

	completed := 0
	for _, p := range participants.Rows {
		if p.RoleCleaned == models.RoleLeader {
			s.TotalLeaders++
		}
		if p.TradeCompleted != nil && *p.TradeCompleted {
			completed++
		}
	}

	s.SuccessRate = aggregate.Rate(succeeded, s.TotalBoards)
	s.CompletionRate = aggregate.Rate(completed, s.TotalParticipants)
	s.ParticipationRate = aggregate.Ratio(float64(current), float64(capacity)) * 100
	s.LeaderRatio = aggregate.Rate(s.TotalLeaders, s.TotalParticipants)
	s.MonthlyBoards = monthlySeries(monthly)
	return s
}

func computeStatusTrend(ds *models.Dataset) models.StatusTrend {
	boards := ds.GroupBoards
	st := models.StatusTrend{
		HasData:      aggregate.SafeCount(boards) > 0,
		Monthly:      []models.MonthlyStatus{},
		Distribution: []models.LabelCount{},
	}
	if !st.HasData {
		return st
	}

	byMonth := make(map[string]map[string]int)
	distribution := make(map[string]int)
	hits := 0
	for _, b := range boards.Rows {
		distribution[b.Status]++
		if m, ok := month(b.CreatedAt); ok {
			if byMonth[m] == nil {
				byMonth[m] = make(map[string]int)
			}
			byMonth[m][b.Status]++
		}

		closed := b.Status == models.StatusSucceeded || b.Status == models.StatusClosed
		if closed && b.UpdatedAt != nil && b.Deadline != nil {
			st.ClosedBoardCount++
			if !b.UpdatedAt.After(*b.Deadline) {
				hits++
			}
		}
	}

	for m, counts := range byMonth {
		st.Monthly = append(st.Monthly, models.MonthlyStatus{Month: m, Counts: counts})
	}
	slices.SortFunc(st.Monthly, func(a, b models.MonthlyStatus) int {
		return cmp.Compare(a.Month, b.Month)
	})
	st.Distribution = labelCounts(distribution, 0)
	st.DeadlineHitRate = aggregate.Rate(hits, st.ClosedBoardCount)
	return st
}

func computeTransactionFlow(ds *models.Dataset) models.TransactionFlow {
	tf := models.TransactionFlow{
		HasData:             aggregate.SafeCount(ds.GroupBoards) > 0 && aggregate.SafeCount(ds.Participants) > 0,
		MonthlyCreation:     []models.MonthlyCount{},
		MonthlyCompletion:   []models.MonthlyCount{},
		MonthlyNewLeaders:   []models.MonthlyCount{},
		MonthlyParticipants: []models.MonthlyCount{},
	}
	if !tf.HasData {
		return tf
	}

	creation := make(map[string]int)
	completion := make(map[string]int)
	for _, b := range ds.GroupBoards.Rows {
		m, ok := month(b.CreatedAt)
		if !ok {
			continue
		}
		creation[m]++
		if b.Status == models.StatusSucceeded {
			completion[m]++
		}
	}

	leaders := make(map[string]int)
	joined := make(map[string]int)
	for _, p := range ds.Participants.Rows {
		m, ok := month(p.JoinedAt)
		if !ok {
			continue
		}
		joined[m]++
		if p.RoleCleaned == models.RoleLeader {
			leaders[m]++
		}
	}

	tf.MonthlyCreation = monthlySeries(creation)
	tf.MonthlyCompletion = monthlySeries(completion)
	tf.MonthlyNewLeaders = monthlySeries(leaders)
	tf.MonthlyParticipants = monthlySeries(joined)
	return tf
}

func computeLeaderActivity(ds *models.Dataset, leaderRule string) models.LeaderActivity {
	la := models.LeaderActivity{
		HasData:          aggregate.SafeCount(ds.Participants) > 0,
		Histogram:        []models.HistogramBin{},
		TopCategories:    []models.LabelCount{},
		LeaderClassifier: leaderRule,
	}
	if !la.HasData {
		return la
	}

	perLeader := make(map[int64]int)
	for _, p := range ds.Participants.Rows {
		if p.RoleCleaned == models.RoleLeader && p.UserID != nil {
			perLeader[*p.UserID]++
		}
	}

	counts := make([]int, 0, len(perLeader))
	values := make(stats.Float64Data, 0, len(perLeader))
	repeated := 0
	for _, n := range perLeader {
		counts = append(counts, n)
		values = append(values, float64(n))
		if n >= 2 {
			repeated++
		}
		la.MaxBoards = max(la.MaxBoards, n)
	}

	la.UniqueLeaders = len(perLeader)
	la.RepeatRate = aggregate.Rate(repeated, la.UniqueLeaders)
	la.AverageBoards = aggregate.SafeCompute(func() (float64, error) { return stats.Mean(values) }, 0)
	la.MedianBoards = aggregate.SafeCompute(func() (float64, error) { return stats.Median(values) }, 0)
	la.Histogram = aggregate.Histogram(counts, min(maxHistogramBins, len(counts)))

	if aggregate.SafeCount(ds.GroupBoards) > 0 && aggregate.SafeCount(ds.GroupProducts) > 0 {
		la.TopCategories = boardCategories(ds)
	}
	return la
}

// boardCategories left-joins boards to group products and categories and
// counts boards per category name.
func boardCategories(ds *models.Dataset) []models.LabelCount {
	productCategory := make(map[int64]*int64, ds.GroupProducts.Len())
	for _, gp := range ds.GroupProducts.Rows {
		productCategory[gp.GroupProductID] = gp.CategoryID
	}
	names := categoryNames(ds)

	counts := make(map[string]int)
	for _, b := range ds.GroupBoards.Rows {
		var categoryID *int64
		if b.GroupProductID != nil {
			categoryID = productCategory[*b.GroupProductID]
		}
		counts[categoryLabel(names, categoryID)]++
	}
	return labelCounts(counts, topN)
}

type regionTally struct {
	boards       map[int64]struct{}
	participants map[int64]struct{}
	leaders      map[int64]struct{}
}

func computeRegionalBreakdown(ds *models.Dataset) models.RegionalBreakdown {
	rb := models.RegionalBreakdown{
		Regions:       []models.RegionRow{},
		UserDistricts: userDistricts(ds),
	}
	if aggregate.SafeCount(ds.Participants) == 0 || aggregate.SafeCount(ds.GroupBoards) == 0 {
		return rb
	}

	boards := make(map[int64]models.GroupBoard, ds.GroupBoards.Len())
	for _, b := range ds.GroupBoards.Rows {
		if _, dup := boards[b.GroupBoardID]; !dup {
			boards[b.GroupBoardID] = b
		}
	}

	tallies := make(map[string]*regionTally)
	for _, p := range ds.Participants.Rows {
		if p.GroupBoardID == nil {
			continue
		}
		b, ok := boards[*p.GroupBoardID]
		if !ok {
			continue
		}
		region := b.Location
		if region == "" {
			region = unknownRegion
		}
		t := tallies[region]
		if t == nil {
			t = &regionTally{
				boards:       make(map[int64]struct{}),
				participants: make(map[int64]struct{}),
				leaders:      make(map[int64]struct{}),
			}
			tallies[region] = t
		}
		t.boards[b.GroupBoardID] = struct{}{}
		if p.UserID != nil {
			t.participants[*p.UserID] = struct{}{}
			if p.RoleCleaned == models.RoleLeader {
				t.leaders[*p.UserID] = struct{}{}
			}
		}
	}

	for region, t := range tallies {
		rb.Regions = append(rb.Regions, models.RegionRow{
			Region:               region,
			Boards:               len(t.boards),
			Participants:         len(t.participants),
			Leaders:              len(t.leaders),
			BoardsPerParticipant: round2(aggregate.Ratio(float64(len(t.boards)), float64(len(t.participants)))),
		})
	}
	slices.SortFunc(rb.Regions, func(a, b models.RegionRow) int {
		if c := cmp.Compare(b.Boards, a.Boards); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	rb.HasData = len(rb.Regions) > 0
	return rb
}

func userDistricts(ds *models.Dataset) []models.LabelCount {
	counts := make(map[string]int)
	for _, u := range ds.Users.Rows {
		if u.District != "" {
			counts[u.District]++
		}
	}
	return labelCounts(counts, 0)
}

type ratingTally struct {
	sum   float64
	count int
}

func computeCategoryPopularity(ds *models.Dataset) models.CategoryPopularity {
	cp := models.CategoryPopularity{
		TopRated:     []models.CategoryRating{},
		PriceBuckets: productBuckets(ds),
	}
	if aggregate.SafeCount(ds.Products) == 0 || aggregate.SafeCount(ds.GroupProducts) == 0 || !ds.Products.HasColumn("rating") {
		return cp
	}

	// Inner join products to group products on category_id: each product
	// row repeats once per group product sharing its category.
	perCategory := make(map[int64]int)
	for _, gp := range ds.GroupProducts.Rows {
		if gp.CategoryID != nil {
			perCategory[*gp.CategoryID]++
		}
	}

	var ratings []float64
	tallies := make(map[int64]*ratingTally)
	joined := 0
	for _, p := range ds.Products.Rows {
		if p.CategoryID == nil {
			continue
		}
		n := perCategory[*p.CategoryID]
		if n == 0 {
			continue
		}
		joined += n
		if p.Rating == nil {
			continue
		}
		t := tallies[*p.CategoryID]
		if t == nil {
			t = &ratingTally{}
			tallies[*p.CategoryID] = t
		}
		for range n {
			ratings = append(ratings, *p.Rating)
		}
		t.sum += *p.Rating * float64(n)
		t.count += n
	}
	if joined == 0 {
		return cp
	}

	cp.HasData = true
	cp.Rating = aggregate.Describe(ratings)

	names := categoryNames(ds)
	for id, t := range tallies {
		if t.count < minCategoryRows {
			continue
		}
		cp.TopRated = append(cp.TopRated, models.CategoryRating{
			CategoryID: id,
			Name:       categoryLabel(names, &id),
			MeanRating: aggregate.Ratio(t.sum, float64(t.count)),
			Count:      t.count,
		})
	}
	slices.SortFunc(cp.TopRated, func(a, b models.CategoryRating) int {
		if c := cmp.Compare(b.MeanRating, a.MeanRating); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	if len(cp.TopRated) > topN {
		cp.TopRated = cp.TopRated[:topN]
	}
	return cp
}

func productBuckets(ds *models.Dataset) []models.LabelCount {
	counts := make(map[models.PriceBucket]int)
	for _, p := range ds.Products.Rows {
		if p.PriceBucket != nil {
			counts[*p.PriceBucket]++
		}
	}
	return bucketCounts(counts)
}

func computeFavorites(ds *models.Dataset) models.FavoritesAnalysis {
	fa := models.FavoritesAnalysis{
		HasData:        aggregate.SafeCount(ds.Favorites) > 0,
		TotalFavorites: aggregate.SafeCount(ds.Favorites),
		TopProducts:    []models.ProductCount{},
		ByCategory:     []models.LabelCount{},
		ByPriceBucket:  bucketCounts(nil),
	}
	if !fa.HasData {
		return fa
	}

	products := make(map[int64]models.Product, ds.Products.Len())
	for _, p := range ds.Products.Rows {
		products[p.ProductID] = p
	}
	names := categoryNames(ds)

	users := make(map[int64]struct{})
	perProduct := make(map[int64]int)
	perCategory := make(map[string]int)
	perBucket := make(map[models.PriceBucket]int)
	for _, f := range ds.Favorites.Rows {
		if f.UserID != nil {
			users[*f.UserID] = struct{}{}
		}
		if f.ProductID == nil {
			continue
		}
		perProduct[*f.ProductID]++

		p, ok := products[*f.ProductID]
		if !ok {
			perCategory[unclassified]++
			continue
		}
		perCategory[categoryLabel(names, p.CategoryID)]++
		if p.PriceBucket != nil {
			perBucket[*p.PriceBucket]++
		}
	}

	for id, n := range perProduct {
		pc := models.ProductCount{ProductID: id, Count: n, Category: unclassified}
		if p, ok := products[id]; ok {
			pc.Name = p.Name
			pc.Category = categoryLabel(names, p.CategoryID)
		}
		fa.TopProducts = append(fa.TopProducts, pc)
	}
	slices.SortFunc(fa.TopProducts, func(a, b models.ProductCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(fa.TopProducts) > topN {
		fa.TopProducts = fa.TopProducts[:topN]
	}

	fa.UniqueUsers = len(users)
	fa.ByCategory = labelCounts(perCategory, 0)
	fa.ByPriceBucket = bucketCounts(perBucket)
	return fa
}
