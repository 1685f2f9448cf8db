package pgsource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/clients/pgsource"
	"github.com/jrsteele09/go-token-engine/internal/utils"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case **string:
			if v, ok := r.values[i].(*string); ok {
				*p = v
			}
		case **int:
			if v, ok := r.values[i].(*int); ok {
				*p = v
			}
		default:
			return errors.New("unexpected destination type")
		}
	}
	return nil
}

type recordingQuerier struct {
	statements []string
	args       [][]any
	row        fakeRow
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.statements = append(q.statements, sql)
	q.args = append(q.args, args)
	return q.row
}

func swordRow() fakeRow {
	return fakeRow{values: []any{
		"sword",
		"{noop}sword_secret",
		(*string)(nil),
		utils.Ptr("all"),
		utils.Ptr("password,refresh_token"),
		(*string)(nil),
		(*string)(nil),
		utils.Ptr(3600),
		(*int)(nil),
		(*string)(nil),
		(*string)(nil),
	}}
}

func TestSource_SelectUsesSelectStatement(t *testing.T) {
	q := &recordingQuerier{row: swordRow()}
	src := pgsource.New(q)

	row, err := src.Select(context.Background(), "sword")
	require.NoError(t, err)
	require.Equal(t, "sword", row.ClientID)
	require.Equal(t, "{noop}sword_secret", row.ClientSecret)
	require.Equal(t, 3600, utils.Value(row.AccessTokenValidity))
	require.Nil(t, row.RefreshTokenValidity)

	require.Equal(t, []string{pgsource.DefaultSelectStatement}, q.statements)
	require.Equal(t, []any{"sword"}, q.args[0])
	require.Equal(t, []string{"password", "refresh_token"}, row.Client().GrantTypes)
}

func TestSource_StatementsAreIndependent(t *testing.T) {
	q := &recordingQuerier{row: swordRow()}
	src := pgsource.New(q,
		pgsource.WithSelectStatement("SELECT custom_select"),
		pgsource.WithFindStatement("SELECT custom_find"),
	)

	_, err := src.Find(context.Background(), "sword")
	require.NoError(t, err)
	_, err = src.Select(context.Background(), "sword")
	require.NoError(t, err)

	require.Equal(t, []string{"SELECT custom_find", "SELECT custom_select"}, q.statements)
}

func TestSource_NoRows(t *testing.T) {
	q := &recordingQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	src := pgsource.New(q)

	_, err := src.Select(context.Background(), "missing")
	require.ErrorIs(t, err, clients.ErrNotFound)

	store := clients.NewStore(src)
	exists, err := store.Exists(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSource_QueryError(t *testing.T) {
	q := &recordingQuerier{row: fakeRow{err: errors.New("conn closed")}}
	_, err := pgsource.New(q).Find(context.Background(), "sword")
	require.Error(t, err)
	require.NotErrorIs(t, err, clients.ErrNotFound)
	require.Contains(t, err.Error(), "conn closed")
}
