package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"100", "100"},
		{"1 000 ₽", "1000"},
		{"1 250,50", "1250.5"},
		{"99.90", "99.9"},
		{"", "0"},
		{"free", "0"},
	}
	for _, tc := range cases {
		got := ParsePrice(tc.raw)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "ParsePrice(%q) = %s", tc.raw, got)
	}
}

func TestParseActive(t *testing.T) {
	for _, raw := range []string{"TRUE", "true", "Yes", "да", "1", " da "} {
		assert.True(t, ParseActive(raw), "ParseActive(%q)", raw)
	}
	for _, raw := range []string{"", "FALSE", "no", "0", "нет", "archived"} {
		assert.False(t, ParseActive(raw), "ParseActive(%q)", raw)
	}
}

func TestActorUpdatedBy(t *testing.T) {
	a := Actor{ID: 42, Username: "petrov"}
	assert.Equal(t, "tg:petrov", a.UpdatedBy())
}

func TestIntakeDraftFingerprintStable(t *testing.T) {
	d1 := &IntakeDraft{Name: "Carrots", Price: decimal.NewFromInt(100), Quantity: 10, SKU: "PRD-1"}
	d2 := &IntakeDraft{Name: "Carrots", Price: decimal.NewFromInt(100), Quantity: 10, SKU: "PRD-1"}
	assert.Equal(t, d1.Fingerprint(), d2.Fingerprint())
	assert.Len(t, d1.Fingerprint(), 16)

	d2.Quantity = 11
	assert.NotEqual(t, d1.Fingerprint(), d2.Fingerprint())
}
