package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInvestmentType_IsValid(t *testing.T) {
	for _, it := range AllInvestmentTypes() {
		if !it.IsValid() {
			t.Errorf("Expected %s to be valid", it)
		}
	}
	if InvestmentType("crypto").IsValid() {
		t.Error("Expected unknown type to be invalid")
	}
}

func TestInvestmentType_DisplayName(t *testing.T) {
	tests := []struct {
		it       InvestmentType
		expected string
	}{
		{InvestmentShortTerm, "Short-term"},
		{InvestmentLongTerm, "Long-term"},
		{InvestmentSecureIncome, "Secure Income"},
		{InvestmentType("bonds"), "bonds"},
	}

	for _, tt := range tests {
		if got := tt.it.DisplayName(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestInvestment_Contributes(t *testing.T) {
	tests := []struct {
		status   InvestmentStatus
		expected bool
	}{
		{StatusActive, true},
		{StatusMatured, true},
		{StatusPending, false},
		{StatusCancelled, false},
		{InvestmentStatus("on-hold"), false},
	}

	for _, tt := range tests {
		inv := &Investment{Status: tt.status}
		if got := inv.Contributes(); got != tt.expected {
			t.Errorf("Status %s: expected %v, got %v", tt.status, tt.expected, got)
		}
	}
}

func TestInvestment_ElapsedMonths(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := &Investment{CreatedAt: created, TermMonths: 8}
	day := 24 * time.Hour

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{"before creation", created.Add(-day), 0},
		{"same day", created, 0},
		{"29 days", created.Add(29 * day), 0},
		{"30 days", created.Add(30 * day), 1},
		{"95 days", created.Add(95 * day), 3},
		{"capped at term", created.Add(400 * day), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inv.ElapsedMonths(tt.now); got != tt.expected {
				t.Errorf("Expected %d months, got %d", tt.expected, got)
			}
		})
	}
}

func TestInvestment_ValueAt(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := &Investment{
		Amount:         decimal.NewFromInt(12000),
		ExpectedReturn: decimal.NewFromInt(12),
		TermMonths:     12,
		CreatedAt:      created,
	}

	if got := inv.ValueAt(created); !got.Equal(inv.Amount) {
		t.Errorf("Expected no growth at creation, got %s", got)
	}

	// 12% nominal is 1% a month: 12000 * 1.01^2
	got := inv.ValueAt(created.Add(60 * 24 * time.Hour)).Round(2)
	expected := decimal.RequireFromString("12241.20")
	if !got.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}
