package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxFromContext(t *testing.T) {
	ctx := context.Background()

	_, ok := TxFromContext(ctx)
	assert.False(t, ok, "plain context carries no transaction")

	open := &Transaction{}
	ctxTx := context.WithValue(ctx, txStatusKey, "open")
	ctxTx = context.WithValue(ctxTx, txKey, Tx(open))

	got, ok := TxFromContext(ctxTx)
	assert.True(t, ok)
	assert.Same(t, open, got)

	// A closed transaction must never be handed back out.
	closed := &Transaction{isClosed: true}
	ctxClosed := context.WithValue(ctx, txStatusKey, "open")
	ctxClosed = context.WithValue(ctxClosed, txKey, Tx(closed))
	_, ok = TxFromContext(ctxClosed)
	assert.False(t, ok)

	// Without the status marker the context did not come from GetTx.
	ctxNoStatus := context.WithValue(ctx, txKey, Tx(open))
	_, ok = TxFromContext(ctxNoStatus)
	assert.False(t, ok)
}
