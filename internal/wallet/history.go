package wallet

import (
	"context"

	"github.com/mrz1836/kaswallet/internal/history"
)

// LoadTransactions returns one page of history. Cursor 0 refetches the
// history from the node; later cursors page through that result.
func (w *Wallet) LoadTransactions(ctx context.Context, cursor int) (history.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoaded(); err != nil {
		return history.Page{}, err
	}

	if cursor <= 0 || w.history == nil {
		book := w.ledger.Book()
		records, err := w.reconciler.Load(ctx, w.node, book.Used(), book)
		if err != nil {
			return history.Page{}, err
		}
		w.history = records
	}
	return history.Paginate(w.history, cursor, w.txPerPage), nil
}
