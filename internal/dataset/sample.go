package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"copurchase-dashboard/internal/models"
)

const (
	sampleProducts      = 200
	sampleGroupProducts = 500
	sampleBoards        = 500
	sampleParticipants  = 3000
	sampleUsers         = 1000

	// DeadlineWindow is the fixed campaign length of generated boards.
	DeadlineWindow = 7 * 24 * time.Hour
)

var (
	sampleCategories = []string{"식품", "생활용품", "화장품", "의류", "가전제품", "도서", "스포츠", "문구", "건강식품", "반려동물용품"}
	sampleLocations  = []string{"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종", "경기", "강원"}

	sampleStatuses = []weighted{
		{models.StatusOpen, 0.3},
		{models.StatusSucceeded, 0.4},
		{models.StatusFailed, 0.1},
		{models.StatusClosed, 0.2},
	}
	sampleRoles = []weighted{
		{models.RoleLeaderLabel, 0.2},
		{models.RoleParticipantLabel, 0.8},
	}

	sampleWindowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sampleWindowEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	sampleUsersStart  = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
)

type weighted struct {
	value  string
	weight float64
}

type sampler struct {
	r *rand.Rand
}

// between returns a uniform integer in [lo, hi).
func (s sampler) between(lo, hi int) int {
	return lo + s.r.IntN(hi-lo)
}

func (s sampler) choose(values []string) string {
	return values[s.r.IntN(len(values))]
}

func (s sampler) chooseWeighted(options []weighted) string {
	x := s.r.Float64()
	acc := 0.0
	for _, o := range options {
		acc += o.weight
		if x < acc {
			return o.value
		}
	}
	return options[len(options)-1].value
}

// hourIn draws an hour-aligned timestamp between start and end inclusive.
func (s sampler) hourIn(start, end time.Time) time.Time {
	hours := int(end.Sub(start) / time.Hour)
	return start.Add(time.Duration(s.r.IntN(hours+1)) * time.Hour)
}

func (s sampler) dayIn(start, end time.Time) time.Time {
	days := int(end.Sub(start) / (24 * time.Hour))
	return start.AddDate(0, 0, s.r.IntN(days+1))
}

func ptr[T any](v T) *T {
	return &v
}

// GenerateSample builds a self-consistent synthetic dataset. The stream comes
// from math/rand/v2 PCG seeded with (seed, seed): the same seed produces the
// same tables for a given Go release of that generator.
func GenerateSample(seed uint64) *models.Dataset {
	s := sampler{r: rand.New(rand.NewPCG(seed, seed))}
	ds := models.EmptyDataset()

	categories := make([]models.Category, len(sampleCategories))
	for i, name := range sampleCategories {
		categories[i] = models.Category{
			CategoryID:       int64(i + 1),
			Name:             name,
			Level:            "medium",
			ParentCategoryID: ptr(int64(s.between(1, 4))),
		}
	}
	ds.Categories = models.NewTable([]string{"category_id", "name", "level", "parent_category_id"}, categories)

	products := make([]models.Product, sampleProducts)
	for i := range products {
		rating := math.Round((3.0+2.0*s.r.Float64())*10) / 10
		products[i] = models.Product{
			ProductID:  int64(i + 1),
			CategoryID: ptr(int64(s.between(1, len(sampleCategories)+1))),
			Name:       fmt.Sprintf("상품_%d", i+1),
			Price:      decimal.NewNullDecimal(decimal.NewFromInt(int64(s.between(5000, 100000)))),
			Rating:     &rating,
		}
	}
	ds.Products = models.NewTable([]string{"product_id", "category_id", "name", "price", "rating"}, products)

	groupProducts := make([]models.GroupProduct, sampleGroupProducts)
	for i := range groupProducts {
		groupProducts[i] = models.GroupProduct{
			GroupProductID: int64(i + 1),
			ProductID:      ptr(int64(s.between(1, sampleProducts+1))),
			CategoryID:     ptr(int64(s.between(1, len(sampleCategories)+1))),
			DiscountRate:   ptr(float64(s.between(10, 50))),
			MinQuantity:    ptr(int64(s.between(10, 100))),
		}
	}
	ds.GroupProducts = models.NewTable([]string{"group_product_id", "product_id", "category_id", "discount_rate", "min_quantity"}, groupProducts)

	boards := make([]models.GroupBoard, sampleBoards)
	for i := range boards {
		created := s.hourIn(sampleWindowStart, sampleWindowEnd)
		deadline := created.Add(DeadlineWindow)
		updated := created.AddDate(0, 0, s.between(1, 8))
		boards[i] = models.GroupBoard{
			GroupBoardID:        int64(i + 1),
			GroupProductID:      ptr(int64(s.between(1, sampleGroupProducts+1))),
			Title:               fmt.Sprintf("공구방_%d", i+1),
			Location:            s.choose(sampleLocations),
			Status:              s.chooseWeighted(sampleStatuses),
			CreatedAt:           &created,
			Deadline:            &deadline,
			UpdatedAt:           &updated,
			CurrentParticipants: ptr(int64(s.between(5, 50))),
			MaxParticipants:     ptr(int64(s.between(50, 200))),
		}
	}
	ds.GroupBoards = models.NewTable([]string{
		"group_board_id", "group_product_id", "location", "status", "created_at", "deadline",
		"updated_at", "title", "current_participants", "max_participants",
	}, boards)

	participants := make([]models.Participant, sampleParticipants)
	for i := range participants {
		joined := s.hourIn(sampleWindowStart, sampleWindowEnd)
		participants[i] = models.Participant{
			ParticipantID: int64(i + 1),
			GroupBoardID:  ptr(int64(s.between(1, sampleBoards+1))),
			UserID:        ptr(int64(s.between(1, sampleUsers))),
			Role:          s.chooseWeighted(sampleRoles),
			JoinedAt:      &joined,
			Quantity:      ptr(int64(s.between(1, 10))),
		}
	}
	ds.Participants = models.NewTable([]string{"participant_id", "group_board_id", "user_id", "role", "joined_at", "quantity"}, participants)

	users := make([]models.User, sampleUsers)
	for i := range users {
		joined := s.dayIn(sampleUsersStart, sampleWindowEnd)
		users[i] = models.User{
			UserID:     int64(i + 1),
			Username:   fmt.Sprintf("user_%d", i+1),
			Email:      fmt.Sprintf("user_%d@example.com", i+1),
			Address:    ptr(s.choose(sampleLocations)),
			JoinedDate: &joined,
		}
	}
	ds.Users = models.NewTable([]string{"user_id", "username", "email", "location", "joined_date"}, users)

	return ds
}
