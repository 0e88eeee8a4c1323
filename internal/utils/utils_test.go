package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	number := GenerateOrderNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^FD-20240309-[A-Z0-9]{6}$`), number)
}

func TestMoneyHelpers(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(40), 10).Equal(decimal.NewFromInt(4)))
	assert.Equal(t, 12.35, ToAmount(decimal.RequireFromString("12.345")))
	assert.True(t, ClampAmount(decimal.NewFromInt(100), decimal.NewFromInt(50)).Equal(decimal.NewFromInt(50)))
	assert.True(t, ClampAmount(decimal.NewFromInt(-3), decimal.NewFromInt(50)).IsZero())
	assert.True(t, Money(19.999).Equal(decimal.NewFromInt(20)))
}

func TestParseHHMM(t *testing.T) {
	minutes, err := ParseHHMM("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)

	for _, bad := range []string{"9:30", "24:00", "12:60", "noon", ""} {
		_, err := ParseHHMM(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewPaginationParams(t *testing.T) {
	p := NewPaginationParams(0, 1000, "total", "sideways", "", "total")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, "total", p.Sort)
	assert.Equal(t, "desc", p.Order)

	p = NewPaginationParams(3, 10, "password", "asc", "")
	assert.Equal(t, "created_at", p.Sort)
	assert.Equal(t, 20, p.GetSkip())

	meta := CreatePaginationMeta(p, 45)
	assert.Equal(t, 5, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
}

func TestGetSearchFilter_EscapesRegex(t *testing.T) {
	p := NewPaginationParams(1, 10, "", "", "a.b*")
	filter := p.GetSearchFilter([]string{"name"})
	conditions, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, conditions, 1)
	assert.Equal(t, `a\.b\*`, conditions[0]["name"].(bson.M)["$regex"])
}

func TestJWTRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	token, err := GenerateToken(id, "restaurant", "fooddash", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "fooddash", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "restaurant", claims.Role)

	_, err = ValidateToken(token, "fooddash", "other-secret")
	assert.Error(t, err)

	_, err = ValidateToken(token, "someone-else", "secret")
	assert.Error(t, err)
}

func TestPhoneHelpers(t *testing.T) {
	assert.True(t, IsValidPhone("+14155552671"))
	assert.False(t, IsValidPhone("4155552671"))
	assert.Equal(t, "+14155552671", NormalizePhone("1 (415) 555-2671"))
	assert.Equal(t, "********2671", MaskPhone("+14155552671"))
}
