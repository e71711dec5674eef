package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Board statuses as written by the platform.
const (
	StatusOpen      = "모집중"
	StatusSucceeded = "공구성공"
	StatusFailed    = "공구실패"
	StatusClosed    = "마감"
)

const (
	RoleLeaderLabel      = "리더"
	RoleParticipantLabel = "참여자"
)

type Role string

const (
	RoleLeader      Role = "leader"
	RoleParticipant Role = "participant"
)

type PriceBucket string

const (
	BucketUnder10K  PriceBucket = "[0,10000)"
	Bucket10Kto30K  PriceBucket = "[10000,30000)"
	Bucket30Kto50K  PriceBucket = "[30000,50000)"
	Bucket50Kto100K PriceBucket = "[50000,100000)"
	BucketOver100K  PriceBucket = "[100000,inf)"
)

// PriceBuckets lists the buckets in ascending order.
var PriceBuckets = []PriceBucket{
	BucketUnder10K,
	Bucket10Kto30K,
	Bucket30Kto50K,
	Bucket50Kto100K,
	BucketOver100K,
}

type Product struct {
	ProductID  int64
	CategoryID *int64
	Name       string
	Price      decimal.NullDecimal
	Rating     *float64
	CreatedAt  *time.Time

	// Derived by the enricher; nil when the price is null.
	PriceBucket *PriceBucket
}

type Category struct {
	CategoryID       int64
	Name             string
	Level            string
	ParentCategoryID *int64
}

type GroupProduct struct {
	GroupProductID int64
	ProductID      *int64
	CategoryID     *int64
	DiscountRate   *float64
	MinQuantity    *int64
}

type GroupBoard struct {
	GroupBoardID        int64
	GroupProductID      *int64
	Title               string
	Location            string
	Status              string
	CreatedAt           *time.Time
	Deadline            *time.Time
	UpdatedAt           *time.Time
	CurrentParticipants *int64
	MaxParticipants     *int64
}

type Participant struct {
	ParticipantID  int64
	GroupBoardID   *int64
	UserID         *int64
	Role           string
	JoinedAt       *time.Time
	Quantity       *int64
	TradeCompleted *bool

	// Derived by the enricher.
	RoleCleaned Role
}

type User struct {
	UserID     int64
	Username   string
	Email      string
	Address    *string
	JoinedDate *time.Time

	// Derived by the enricher.
	District string
}

type Favorite struct {
	ProductID *int64
	UserID    *int64
	CreatedAt *time.Time
}

// Dataset is the full set of tables one load cycle produces. Every table is
// non-nil after loading.
type Dataset struct {
	Products      *Table[Product]
	Categories    *Table[Category]
	GroupProducts *Table[GroupProduct]
	GroupBoards   *Table[GroupBoard]
	Participants  *Table[Participant]
	Users         *Table[User]
	Favorites     *Table[Favorite]
}

func EmptyDataset() *Dataset {
	return &Dataset{
		Products:      EmptyTable[Product](),
		Categories:    EmptyTable[Category](),
		GroupProducts: EmptyTable[GroupProduct](),
		GroupBoards:   EmptyTable[GroupBoard](),
		Participants:  EmptyTable[Participant](),
		Users:         EmptyTable[User](),
		Favorites:     EmptyTable[Favorite](),
	}
}

// Clone returns a dataset whose tables can be rewritten independently.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return EmptyDataset()
	}
	return &Dataset{
		Products:      d.Products.Clone(),
		Categories:    d.Categories.Clone(),
		GroupProducts: d.GroupProducts.Clone(),
		GroupBoards:   d.GroupBoards.Clone(),
		Participants:  d.Participants.Clone(),
		Users:         d.Users.Clone(),
		Favorites:     d.Favorites.Clone(),
	}
}
