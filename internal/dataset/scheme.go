package dataset

import "fmt"

type TableName string

const (
	TableProducts      TableName = "products"
	TableCategories    TableName = "categories"
	TableGroupProducts TableName = "group_products"
	TableGroupBoards   TableName = "group_boards"
	TableParticipants  TableName = "participants"
	TableUsers         TableName = "users"
	TableFavorites     TableName = "favorites"
)

// AllTables is the fixed load order.
var AllTables = []TableName{
	TableProducts,
	TableCategories,
	TableGroupProducts,
	TableGroupBoards,
	TableParticipants,
	TableUsers,
	TableFavorites,
}

type Policy string

const (
	// PolicyStrict reads the six export files from one directory and replaces
	// the whole dataset with generated sample data when any of them fails.
	PolicyStrict Policy = "strict-with-sample-fallback"
	// PolicyLenient searches several directories per file and substitutes an
	// empty table for each file that cannot be read.
	PolicyLenient Policy = "lenient-per-file-empty"
)

// ParsePolicy accepts the long names and the short config forms.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "strict", string(PolicyStrict):
		return PolicyStrict, nil
	case "lenient", string(PolicyLenient):
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown data policy %q", s)
	}
}

// Scheme maps a logical table to its file name.
type Scheme map[TableName]string

var SchemeStrict = Scheme{
	TableProducts:      "products_df_final.csv",
	TableGroupProducts: "group_product_df_final.csv",
	TableCategories:    "category_df_final.csv",
	TableParticipants:  "participants_dummy_data_3000.csv",
	TableGroupBoards:   "group_boards_dummy_data_500.csv",
	TableUsers:         "user_df_final.csv",
}

var SchemeLenient = Scheme{
	TableProducts:      "products_dummy_860.csv",
	TableCategories:    "categories_dummy_211.csv",
	TableUsers:         "users_dummy_200.csv",
	TableFavorites:     "favorite_products_dummy_3000_updated.csv",
	TableParticipants:  "participants_dummy_2312.csv",
	TableGroupProducts: "group_products_dummy_366.csv",
	TableGroupBoards:   "group_boards_dummy_366_title_change.csv",
}

func SchemeFor(p Policy) Scheme {
	if p == PolicyStrict {
		return SchemeStrict
	}
	return SchemeLenient
}
