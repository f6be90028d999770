package schema

import "fmt"

// Account is the funds view of the running instance.
//
// Soft invariant, periodically re-synced from the gateway:
//
//	TotalAsset ~= Cash + Margin + Frozen
//
// Cash is unencumbered, Margin backs open positions, Frozen is reserved
// for working orders that have not filled yet.
type Account struct {
	AccountID  string
	TotalAsset float64
	Cash       float64
	Margin     float64
	Frozen     float64
}

func (a Account) String() string {
	return fmt.Sprintf("<Account account_id:%s total_asset:%.3f cash:%.3f margin:%.3f frozen:%.3f>",
		a.AccountID, a.TotalAsset, a.Cash, a.Margin, a.Frozen)
}
