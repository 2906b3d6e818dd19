package utils

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 3, 3},
		{"7", 3, 7},
		{"abc", 3, 3},
		{"0", 3, 3},
		{"-2", 3, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseInt(tt.in, tt.def), "input %q", tt.in)
	}
}

func TestGenerateOrderID(t *testing.T) {
	id := uuid.MustParse("6f1c1f2e-8a59-4d39-9a57-5d4f4b8f0c11")
	now := time.Unix(1767225600, 0)
	assert.Equal(t, "order_6f1c1f2e-8a59-4d39-9a57-5d4f4b8f0c11_1767225600", GenerateOrderID(id, now))
}

func TestUserContextRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := SetUserContext(context.Background(), id, RoleAdmin)

	got, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	role, ok := GetRoleFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		CheckIn string `json:"check_in" validate:"required,datetime=2006-01-02"`
		Adults  int    `json:"adults" validate:"min=1"`
	}

	errs := ValidateStruct(payload{CheckIn: "2026/01/01", Adults: 0})
	assert.Equal(t, "Must be a date in 2006-01-02 format", errs["check_in"])
	assert.Equal(t, "Minimum value is 1", errs["adults"])

	assert.Nil(t, ValidateStruct(payload{CheckIn: "2026-01-01", Adults: 2}))
}

func TestCalculatePagination(t *testing.T) {
	assert.Equal(t, 3, CalculateTotalPages(21, 10))
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))
}
