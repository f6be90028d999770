// Package contracts holds the read-only instrument reference table. It is
// initialized once at process start, from a file, a database, or a gateway
// query, and is never mutated afterwards.
package contracts

import (
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// Table is the immutable contract lookup service.
type Table struct {
	byIndex  []schema.Contract
	byTicker map[string]uint32
}

// NewTable builds a table from a contract list, assigning each entry its
// stable TickerID index. IDs start at 1 so that zero stays "unknown".
func NewTable(list []schema.Contract) (*Table, error) {
	t := &Table{
		byIndex:  make([]schema.Contract, len(list)+1),
		byTicker: make(map[string]uint32, len(list)),
	}
	for i, c := range list {
		if c.Ticker == "" {
			return nil, errors.Errorf("contract %d has empty ticker", i)
		}
		if c.Size <= 0 {
			return nil, errors.Errorf("contract %s has non-positive size %d", c.Ticker, c.Size)
		}
		if _, dup := t.byTicker[c.Ticker]; dup {
			return nil, errors.Errorf("duplicate contract ticker %s", c.Ticker)
		}
		id := uint32(i + 1)
		c.TickerID = id
		t.byIndex[id] = c
		t.byTicker[c.Ticker] = id
	}
	return t, nil
}

// ByTicker looks a contract up by its ticker symbol.
func (t *Table) ByTicker(ticker string) *schema.Contract {
	id, ok := t.byTicker[ticker]
	if !ok {
		return nil
	}
	return &t.byIndex[id]
}

// ByIndex looks a contract up by its stable ticker id.
func (t *Table) ByIndex(tickerID uint32) *schema.Contract {
	if tickerID == 0 || int(tickerID) >= len(t.byIndex) {
		return nil
	}
	return &t.byIndex[tickerID]
}

// Count returns the number of contracts in the table.
func (t *Table) Count() int {
	return len(t.byIndex) - 1
}
