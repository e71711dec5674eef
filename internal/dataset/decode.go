package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"copurchase-dashboard/internal/models"
)

type column []string

func (c column) at(i int) string {
	if i < len(c) {
		return c[i]
	}
	return ""
}

type timeColumn []*time.Time

func (c timeColumn) at(i int) *time.Time {
	if i < len(c) {
		return c[i]
	}
	return nil
}

func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	// Integer columns with gaps are often exported as floats ("12.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	v := int64(f)
	return &v
}

func parseID(s string) int64 {
	if v := parseInt(s); v != nil {
		return *v
	}
	return 0
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseBool(s string) *bool {
	var v bool
	switch strings.ToLower(s) {
	case "true", "t", "1", "1.0", "yes", "y":
		v = true
	case "false", "f", "0", "0.0", "no", "n":
		v = false
	default:
		return nil
	}
	return &v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decodeProducts(f Frame) *models.Table[models.Product] {
	ids, cats, names := column(f.Strings("product_id")), column(f.Strings("category_id")), column(f.Strings("name"))
	prices, ratings := column(f.Strings("price")), column(f.Strings("rating"))
	created := timeColumn(f.Times("created_at"))

	rows := make([]models.Product, f.Nrow())
	for i := range rows {
		rows[i] = models.Product{
			ProductID:  parseID(ids.at(i)),
			CategoryID: parseInt(cats.at(i)),
			Name:       names.at(i),
			Price:      parseDecimal(prices.at(i)),
			Rating:     parseFloat(ratings.at(i)),
			CreatedAt:  created.at(i),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeCategories(f Frame) *models.Table[models.Category] {
	ids, names := column(f.Strings("category_id")), column(f.Strings("name"))
	levels, parents := column(f.Strings("level")), column(f.Strings("parent_category_id"))

	rows := make([]models.Category, f.Nrow())
	for i := range rows {
		rows[i] = models.Category{
			CategoryID:       parseID(ids.at(i)),
			Name:             names.at(i),
			Level:            levels.at(i),
			ParentCategoryID: parseInt(parents.at(i)),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeGroupProducts(f Frame) *models.Table[models.GroupProduct] {
	ids, products, cats := column(f.Strings("group_product_id")), column(f.Strings("product_id")), column(f.Strings("category_id"))
	discounts, minQty := column(f.Strings("discount_rate")), column(f.Strings("min_quantity"))

	rows := make([]models.GroupProduct, f.Nrow())
	for i := range rows {
		rows[i] = models.GroupProduct{
			GroupProductID: parseID(ids.at(i)),
			ProductID:      parseInt(products.at(i)),
			CategoryID:     parseInt(cats.at(i)),
			DiscountRate:   parseFloat(discounts.at(i)),
			MinQuantity:    parseInt(minQty.at(i)),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeGroupBoards(f Frame) *models.Table[models.GroupBoard] {
	ids, products := column(f.Strings("group_board_id")), column(f.Strings("group_product_id"))
	titles, locations, statuses := column(f.Strings("title")), column(f.Strings("location")), column(f.Strings("status"))
	current, capacity := column(f.Strings("current_participants")), column(f.Strings("max_participants"))
	created, deadline, updated := timeColumn(f.Times("created_at")), timeColumn(f.Times("deadline")), timeColumn(f.Times("updated_at"))

	rows := make([]models.GroupBoard, f.Nrow())
	for i := range rows {
		rows[i] = models.GroupBoard{
			GroupBoardID:        parseID(ids.at(i)),
			GroupProductID:      parseInt(products.at(i)),
			Title:               titles.at(i),
			Location:            locations.at(i),
			Status:              statuses.at(i),
			CreatedAt:           created.at(i),
			Deadline:            deadline.at(i),
			UpdatedAt:           updated.at(i),
			CurrentParticipants: parseInt(current.at(i)),
			MaxParticipants:     parseInt(capacity.at(i)),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeParticipants(f Frame) *models.Table[models.Participant] {
	ids, boards, users := column(f.Strings("participant_id")), column(f.Strings("group_board_id")), column(f.Strings("user_id"))
	roles, quantities, completed := column(f.Strings("role")), column(f.Strings("quantity")), column(f.Strings("trade_completed"))
	joined := timeColumn(f.Times("joined_at"))

	rows := make([]models.Participant, f.Nrow())
	for i := range rows {
		rows[i] = models.Participant{
			ParticipantID:  parseID(ids.at(i)),
			GroupBoardID:   parseInt(boards.at(i)),
			UserID:         parseInt(users.at(i)),
			Role:           roles.at(i),
			JoinedAt:       joined.at(i),
			Quantity:       parseInt(quantities.at(i)),
			TradeCompleted: parseBool(completed.at(i)),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeUsers(f Frame) *models.Table[models.User] {
	ids, names, emails := column(f.Strings("user_id")), column(f.Strings("username")), column(f.Strings("email"))

	// Exports disagree on the address column name.
	addresses := column(f.Strings("address"))
	if addresses == nil {
		addresses = column(f.Strings("location"))
	}
	joined := timeColumn(f.Times("joined_date"))
	if joined == nil {
		joined = timeColumn(f.Times("created_at"))
	}

	rows := make([]models.User, f.Nrow())
	for i := range rows {
		rows[i] = models.User{
			UserID:     parseID(ids.at(i)),
			Username:   names.at(i),
			Email:      emails.at(i),
			Address:    optionalString(addresses.at(i)),
			JoinedDate: joined.at(i),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

func decodeFavorites(f Frame) *models.Table[models.Favorite] {
	products, users := column(f.Strings("product_id")), column(f.Strings("user_id"))
	created := timeColumn(f.Times("created_at"))

	rows := make([]models.Favorite, f.Nrow())
	for i := range rows {
		rows[i] = models.Favorite{
			ProductID: parseInt(products.at(i)),
			UserID:    parseInt(users.at(i)),
			CreatedAt: created.at(i),
		}
	}
	return models.NewTable(f.Columns(), rows)
}

// decodeDataset builds typed tables from normalized frames. Tables without a
// frame become empty tables.
func decodeDataset(frames map[TableName]Frame) *models.Dataset {
	get := func(t TableName) Frame {
		if f, ok := frames[t]; ok {
			return f
		}
		return emptyFrame()
	}
	return &models.Dataset{
		Products:      decodeProducts(get(TableProducts)),
		Categories:    decodeCategories(get(TableCategories)),
		GroupProducts: decodeGroupProducts(get(TableGroupProducts)),
		GroupBoards:   decodeGroupBoards(get(TableGroupBoards)),
		Participants:  decodeParticipants(get(TableParticipants)),
		Users:         decodeUsers(get(TableUsers)),
		Favorites:     decodeFavorites(get(TableFavorites)),
	}
}
