package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Statements issued with a GetTx context must run on that transaction, not
// on the pool. A rollback after such statements has to discard them.
func TestGetTx_StatementsShareTheTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	f := seedProject(t, db, 1, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	insert := `INSERT INTO project_bids (id, tenant_id, project_id, trade_id, project_sub_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, 'bidding', $6, $6)`
	count := `SELECT COUNT(*) FROM project_bids WHERE tenant_id = $1 AND project_id = $2`

	ctxTx, tx, err := db.GetTx(ctx, &sql.TxOptions{})
	require.NoError(t, err)

	_, err = db.ExecContext(ctxTx, insert, uuid.New(), f.tenantID, f.projectID, f.tradeID, f.subIDs[0], now)
	require.NoError(t, err)

	// Visible inside the transaction, invisible to the pool.
	var inTx int
	require.NoError(t, db.GetContext(ctxTx, &inTx, count, f.tenantID, f.projectID))
	assert.Equal(t, 1, inTx)
	assert.Equal(t, 0, countRows(t, db, count, f.tenantID, f.projectID))

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 0, countRows(t, db, count, f.tenantID, f.projectID))

	// Committed work lands.
	ctxTx, tx, err = db.GetTx(ctx, &sql.TxOptions{})
	require.NoError(t, err)
	_, err = db.ExecContext(ctxTx, insert, uuid.New(), f.tenantID, f.projectID, f.tradeID, f.subIDs[0], now)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctxTx))
	assert.Equal(t, 1, countRows(t, db, count, f.tenantID, f.projectID))
}
