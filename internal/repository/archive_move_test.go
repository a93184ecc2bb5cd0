package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errCommitRefused = errors.New("commit refused")

// commitFailDriver hands out connections whose transactions always
// fail at commit, so the archive move helpers can be checked against
// commit errors without a live database.
type commitFailDriver struct{}

func (commitFailDriver) Open(string) (driver.Conn, error) { return &commitFailConn{}, nil }

type commitFailConn struct{}

func (*commitFailConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (*commitFailConn) Close() error			  { return nil }
func (*commitFailConn) Begin() (driver.Tx, error) { return commitFailTx{}, nil }

// ExecContext pretends every statement touched one row, steering the
// move helpers past the not-found check and into the commit.
func (*commitFailConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}

type commitFailTx struct{}

func (commitFailTx) Commit() error	 { return errCommitRefused }
func (commitFailTx) Rollback() error { return nil }

func init() { sql.Register("commitfail", commitFailDriver{}) }

func TestArchiveMovesReportCommitFailure(t *testing.T) {
	db, err := sql.Open("commitfail", "")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	tickets := &TicketRepo{DB: db}
	require.ErrorIs(t, tickets.Archive(ctx, "t1"), errCommitRefused)
	require.ErrorIs(t, tickets.Restore(ctx, "t1"), errCommitRefused)

	projects := &ProjectRepo{DB: db}
	require.ErrorIs(t, projects.Archive(ctx, "p1"), errCommitRefused)
	require.ErrorIs(t, projects.Restore(ctx, "p1"), errCommitRefused)
}
