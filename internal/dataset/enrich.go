package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"copurchase-dashboard/internal/models"
)

// DistrictFallback labels addresses without a recognizable district or city.
const DistrictFallback = "기타"

var (
	districtPattern = regexp.MustCompile(`[가-힣]+구`)
	cityPattern     = regexp.MustCompile(`[가-힣]+시`)
)

// ExtractDistrict returns the first Hangul run ending in 구, else the first
// ending in 시, else DistrictFallback.
func ExtractDistrict(address *string) string {
	if address == nil {
		return DistrictFallback
	}
	if m := districtPattern.FindString(*address); m != "" {
		return m
	}
	if m := cityPattern.FindString(*address); m != "" {
		return m
	}
	return DistrictFallback
}

// RoleClassifier maps a free-text participant role to leader or participant.
type RoleClassifier interface {
	Name() string
	Classify(role string) models.Role
}

// ContainsMarker treats any role containing the marker letter, in either
// case, as a leader.
type ContainsMarker struct {
	Marker rune
}

func (c ContainsMarker) Name() string { return "contains" }

func (c ContainsMarker) Classify(role string) models.Role {
	marker := c.Marker
	if marker == 0 {
		marker = 'L'
	}
	if strings.ContainsRune(strings.ToUpper(role), unicode.ToUpper(marker)) {
		return models.RoleLeader
	}
	return models.RoleParticipant
}

// ExactLabel treats only the exact leader label as a leader.
type ExactLabel struct {
	Label string
}

func (e ExactLabel) Name() string { return "exact" }

func (e ExactLabel) Classify(role string) models.Role {
	label := e.Label
	if label == "" {
		label = models.RoleLeaderLabel
	}
	if strings.TrimSpace(role) == label {
		return models.RoleLeader
	}
	return models.RoleParticipant
}

// RoleClassifierFor resolves a configured rule name.
func RoleClassifierFor(name string) (RoleClassifier, error) {
	switch name {
	case "contains":
		return ContainsMarker{Marker: 'L'}, nil
	case "exact":
		return ExactLabel{Label: models.RoleLeaderLabel}, nil
	default:
		return nil, fmt.Errorf("unknown leader rule %q", name)
	}
}

var bucketBounds = []struct {
	upper  decimal.Decimal
	bucket models.PriceBucket
}{
	{decimal.NewFromInt(10000), models.BucketUnder10K},
	{decimal.NewFromInt(30000), models.Bucket10Kto30K},
	{decimal.NewFromInt(50000), models.Bucket30Kto50K},
	{decimal.NewFromInt(100000), models.Bucket50Kto100K},
}

// BucketPrice assigns a price to its half-open bucket. Null and negative
// prices are not bucketed.
func BucketPrice(price decimal.NullDecimal) (models.PriceBucket, bool) {
	if !price.Valid || price.Decimal.IsNegative() {
		return "", false
	}
	for _, b := range bucketBounds {
		if price.Decimal.LessThan(b.upper) {
			return b.bucket, true
		}
	}
	return models.BucketOver100K, true
}

// Enrich returns a copy of ds with the derived fields filled in. The input is
// left untouched so one loaded dataset can back several sessions.
func Enrich(ds *models.Dataset, classifier RoleClassifier) *models.Dataset {
	out := ds.Clone()

	for i := range out.Users.Rows {
		out.Users.Rows[i].District = ExtractDistrict(out.Users.Rows[i].Address)
	}
	for i := range out.Participants.Rows {
		out.Participants.Rows[i].RoleCleaned = classifier.Classify(out.Participants.Rows[i].Role)
	}
	for i := range out.Products.Rows {
		out.Products.Rows[i].PriceBucket = nil
		if b, ok := BucketPrice(out.Products.Rows[i].Price); ok {
			out.Products.Rows[i].PriceBucket = &b
		}
	}
	return out
}
