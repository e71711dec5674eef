package models

type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Summary struct {
	HasData           bool           `json:"has_data"`
	TotalBoards       int            `json:"total_boards"`
	TotalParticipants int            `json:"total_participants"`
	TotalLeaders      int            `json:"total_leaders"`
	SuccessRate       float64        `json:"success_rate"`
	CompletionRate    float64        `json:"completion_rate"`
	ParticipationRate float64        `json:"participation_rate"`
	LeaderRatio       float64        `json:"leader_ratio"`
	MonthlyBoards     []MonthlyCount `json:"monthly_boards"`
}

type MonthlyStatus struct {
	Month  string         `json:"month"`
	Counts map[string]int `json:"counts"`
}

type StatusTrend struct {
	HasData          bool            `json:"has_data"`
	Monthly          []MonthlyStatus `json:"monthly"`
	Distribution     []LabelCount    `json:"distribution"`
	DeadlineHitRate  float64         `json:"deadline_hit_rate"`
	ClosedBoardCount int             `json:"closed_board_count"`
}

type TransactionFlow struct {
	HasData             bool           `json:"has_data"`
	MonthlyCreation     []MonthlyCount `json:"monthly_creation"`
	MonthlyCompletion   []MonthlyCount `json:"monthly_completion"`
	MonthlyNewLeaders   []MonthlyCount `json:"monthly_new_leaders"`
	MonthlyParticipants []MonthlyCount `json:"monthly_participants"`
}

type HistogramBin struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
	Count int `json:"count"`
}

type LeaderActivity struct {
	HasData          bool           `json:"has_data"`
	UniqueLeaders    int            `json:"unique_leaders"`
	AverageBoards    float64        `json:"average_boards"`
	MedianBoards     float64        `json:"median_boards"`
	MaxBoards        int            `json:"max_boards"`
	RepeatRate       float64        `json:"repeat_rate"`
	Histogram        []HistogramBin `json:"histogram"`
	TopCategories    []LabelCount   `json:"top_categories"`
	LeaderClassifier string         `json:"leader_classifier"`
}

type RegionRow struct {
	Region               string  `json:"region"`
	Boards               int     `json:"boards"`
	Participants         int     `json:"participants"`
	Leaders              int     `json:"leaders"`
	BoardsPerParticipant float64 `json:"boards_per_participant"`
}

type RegionalBreakdown struct {
	HasData       bool         `json:"has_data"`
	Regions       []RegionRow  `json:"regions"`
	UserDistricts []LabelCount `json:"user_districts"`
}

type Description struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

type CategoryRating struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	MeanRating float64 `json:"mean_rating"`
	Count      int     `json:"count"`
}

type CategoryPopularity struct {
	HasData      bool             `json:"has_data"`
	Rating       Description      `json:"rating"`
	TopRated     []CategoryRating `json:"top_rated"`
	PriceBuckets []LabelCount     `json:"price_buckets"`
}

type ProductCount struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Count     int    `json:"count"`
}

type FavoritesAnalysis struct {
	HasData        bool           `json:"has_data"`
	TotalFavorites int            `json:"total_favorites"`
	UniqueUsers    int            `json:"unique_users"`
	TopProducts    []ProductCount `json:"top_products"`
	ByCategory     []LabelCount   `json:"by_category"`
	ByPriceBucket  []LabelCount   `json:"by_price_bucket"`
}
