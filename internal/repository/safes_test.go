package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
)

const (
	aliceHex = "0x0000000000000000000000000000000000000001"
	bobHex   = "0x0000000000000000000000000000000000000002"
	tokAHex  = "0x00000000000000000000000000000000000000aa"
	tokBHex  = "0x00000000000000000000000000000000000000bb"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestLoadAll(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT address, token_address, organization").
		WillReturnRows(pgxmock.NewRows([]string{"address", "token_address", "organization"}).
			AddRow(aliceHex, tokAHex, false).
			AddRow(bobHex, tokBHex, true))

	mock.ExpectQuery("SELECT safe_address, token_address, balance").
		WillReturnRows(pgxmock.NewRows([]string{"safe_address", "token_address", "balance"}).
			AddRow(aliceHex, tokAHex, "1000000000000000000").
			AddRow(bobHex, tokBHex, "25").
			AddRow(bobHex, tokAHex, "7"))

	mock.ExpectQuery("SELECT user_address, can_send_to_address, trust_limit").
		WillReturnRows(pgxmock.NewRows([]string{"user_address", "can_send_to_address", "trust_limit"}).
			AddRow(aliceHex, bobHex, int16(50)))

	repo := NewPostgresSafeRepository(mock)
	safes, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	alice := types.MustParseAddress(aliceHex)
	bob := types.MustParseAddress(bobHex)
	tokA := types.MustParseAddress(tokAHex)
	tokB := types.MustParseAddress(tokBHex)

	require.Len(t, safes, 2)

	require.Contains(t, safes, alice)
	assert.Equal(t, tokA, safes[alice].TokenAddress)
	assert.False(t, safes[alice].Organization)
	assert.Equal(t, types.MustParseU256("1000000000000000000"), safes[alice].Balance(tokA))
	assert.Equal(t, uint8(50), safes[alice].LimitPercentage[bob])

	require.Contains(t, safes, bob)
	assert.True(t, safes[bob].Organization)
	assert.Equal(t, types.NewU256(25), safes[bob].Balance(tokB))
	assert.Equal(t, types.NewU256(7), safes[bob].Balance(tokA))
}

func TestLoadAll_BalanceForUnknownSafeSkipped(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT address, token_address, organization").
		WillReturnRows(pgxmock.NewRows([]string{"address", "token_address", "organization"}).
			AddRow(aliceHex, tokAHex, false))

	mock.ExpectQuery("SELECT safe_address, token_address, balance").
		WillReturnRows(pgxmock.NewRows([]string{"safe_address", "token_address", "balance"}).
			AddRow(bobHex, tokBHex, "25"))

	mock.ExpectQuery("SELECT user_address, can_send_to_address, trust_limit").
		WillReturnRows(pgxmock.NewRows([]string{"user_address", "can_send_to_address", "trust_limit"}))

	repo := NewPostgresSafeRepository(mock)
	safes, err := repo.LoadAll(context.Background())
	require.NoError(t, err)

	alice := types.MustParseAddress(aliceHex)
	require.Len(t, safes, 1)
	assert.True(t, safes[alice].Balance(types.MustParseAddress(tokBHex)).IsZero())
}

func TestLoadAll_MalformedAddress(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT address, token_address, organization").
		WillReturnRows(pgxmock.NewRows([]string{"address", "token_address", "organization"}).
			AddRow("not-an-address", tokAHex, false))

	repo := NewPostgresSafeRepository(mock)
	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAddress))
}

func TestLoadAll_BadTrustLimit(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT address, token_address, organization").
		WillReturnRows(pgxmock.NewRows([]string{"address", "token_address", "organization"}).
			AddRow(aliceHex, tokAHex, false).
			AddRow(bobHex, tokBHex, false))

	mock.ExpectQuery("SELECT safe_address, token_address, balance").
		WillReturnRows(pgxmock.NewRows([]string{"safe_address", "token_address", "balance"}))

	mock.ExpectQuery("SELECT user_address, can_send_to_address, trust_limit").
		WillReturnRows(pgxmock.NewRows([]string{"user_address", "can_send_to_address", "trust_limit"}).
			AddRow(aliceHex, bobHex, int16(250)))

	repo := NewPostgresSafeRepository(mock)
	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTrust))
}

func TestLoadAll_QueryError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT address, token_address, organization").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgresSafeRepository(mock)
	_, err := repo.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStorage))
}

func TestCountSafes(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	repo := NewPostgresSafeRepository(mock)
	count, err := repo.CountSafes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
