package domain

import "github.com/shopspring/decimal"

// DashboardCounts holds the admin work queue sizes
type DashboardCounts struct {
	PendingLoans    int `json:"pendingLoans"`
	ActiveLoans     int `json:"activeLoans"`
	OverdueLoans    int `json:"overdueLoans"`
	PendingDeposits int `json:"pendingDeposits"`
	PendingWires    int `json:"pendingWires"`
	PendingCrypto   int `json:"pendingCrypto"`
	OpenTickets     int `json:"openTickets"`
	Customers       int `json:"customers"`
}

// Dashboard is the admin console overview
type Dashboard struct {
	Counts        DashboardCounts `json:"counts"`
	TotalBalances decimal.Decimal `json:"totalBalances"`
	DailyVolumes  []DailyVolume   `json:"dailyVolumes"`
	VolumeSource  string          `json:"volumeSource"`
}
