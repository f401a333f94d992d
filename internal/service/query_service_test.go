// internal/service/query_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"pixbank/internal/domain"
	"pixbank/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueryTestEnv() (*MockAccountRepository, *MockLedgerRepository, *MockDBExecutor, QueryService) {
	accountRepo := new(MockAccountRepository)
	ledgerRepo := new(MockLedgerRepository)
	executor := new(MockDBExecutor)
	return accountRepo, ledgerRepo, executor, NewQueryService(executor, accountRepo, ledgerRepo)
}

func entriesFixture(accountID string, n int) []domain.LedgerEntry {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := make([]domain.LedgerEntry, n)
	for i := range entries {
		e := domain.NewLedgerEntry(accountID, domain.EntryTypeDeposit, decimal.NewFromInt(int64(i+1)), nil)
		// Newest first, matching the store's ordering.
		e.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		entries[i] = *e
	}
	return entries
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	accountID := "acct-1"

	t.Run("FullPageYieldsNextCursor", func(t *testing.T) {
		accountRepo, ledgerRepo, executor, svc := newQueryTestEnv()
		page := entriesFixture(accountID, 3)

		accountRepo.On("GetAccountByID", ctx, executor, accountID).Return(testAccount(accountID, 0), nil).Once()
		ledgerRepo.On("ListEntries", ctx, executor, accountID, domain.EntryFilter{Limit: 3}).Return(page, nil).Once()

		entries, nextCursor, err := svc.ListTransactions(ctx, accountID, domain.EntryFilter{Limit: 3})

		require.NoError(t, err)
		assert.Len(t, entries, 3)
		require.NotEmpty(t, nextCursor)

		cursor, err := domain.ParseCursor(nextCursor)
		require.NoError(t, err)
		assert.Equal(t, page[2].ID, cursor.ID)
		assert.True(t, page[2].CreatedAt.Equal(cursor.CreatedAt))
	})

	t.Run("ShortPageEndsListing", func(t *testing.T) {
		accountRepo, ledgerRepo, executor, svc := newQueryTestEnv()
		page := entriesFixture(accountID, 2)

		accountRepo.On("GetAccountByID", ctx, executor, accountID).Return(testAccount(accountID, 0), nil).Once()
		ledgerRepo.On("ListEntries", ctx, executor, accountID, domain.EntryFilter{Limit: 3}).Return(page, nil).Once()

		entries, nextCursor, err := svc.ListTransactions(ctx, accountID, domain.EntryFilter{Limit: 3})

		require.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Empty(t, nextCursor)
	})

	t.Run("DefaultsAndClampsLimit", func(t *testing.T) {
		accountRepo, ledgerRepo, executor, svc := newQueryTestEnv()

		accountRepo.On("GetAccountByID", ctx, executor, accountID).Return(testAccount(accountID, 0), nil).Twice()
		ledgerRepo.On("ListEntries", ctx, executor, accountID, domain.EntryFilter{Limit: DefaultPageLimit}).Return([]domain.LedgerEntry{}, nil).Once()
		ledgerRepo.On("ListEntries", ctx, executor, accountID, domain.EntryFilter{Limit: MaxPageLimit}).Return([]domain.LedgerEntry{}, nil).Once()

		_, _, err := svc.ListTransactions(ctx, accountID, domain.EntryFilter{})
		require.NoError(t, err)

		_, _, err = svc.ListTransactions(ctx, accountID, domain.EntryFilter{Limit: 5000})
		require.NoError(t, err)

		mock.AssertExpectationsForObjects(t, accountRepo, ledgerRepo)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		accountRepo, ledgerRepo, executor, svc := newQueryTestEnv()
		accountRepo.On("GetAccountByID", ctx, executor, accountID).Return(nil, util.ErrAccountNotFound).Once()

		_, _, err := svc.ListTransactions(ctx, accountID, domain.EntryFilter{})

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
		ledgerRepo.AssertNotCalled(t, "ListEntries")
	})
}

func TestGetTransactionByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		_, ledgerRepo, executor, svc := newQueryTestEnv()
		entry := domain.NewLedgerEntry("acct-1", domain.EntryTypeWithdraw, decimal.NewFromInt(10), nil)
		ledgerRepo.On("GetEntryByID", ctx, executor, entry.ID).Return(entry, nil).Once()

		got, err := svc.GetTransactionByID(ctx, entry.ID)

		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, ledgerRepo, executor, svc := newQueryTestEnv()
		ledgerRepo.On("GetEntryByID", ctx, executor, "missing").Return(nil, util.ErrNotFound).Once()

		_, err := svc.GetTransactionByID(ctx, "missing")

		assert.ErrorIs(t, err, util.ErrNotFound)
	})
}

func TestGetBalanceSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		accountRepo, ledgerRepo, executor, svc := newQueryTestEnv()
		account := testAccount("acct-1", 320.50)
		account.InvestedBalance = decimal.NewFromFloat(80.00)
		accountRepo.On("GetAccountByID", ctx, executor, "acct-1").Return(account, nil).Once()
		ledgerRepo.On("SumEffects", ctx, executor, "acct-1").Return(decimal.NewFromFloat(320.50), nil).Once()

		summary, err := svc.GetBalanceSummary(ctx, "acct-1")

		require.NoError(t, err)
		assert.Equal(t, account.ID, summary.AccountID)
		assert.Equal(t, account.AccountNumber, summary.AccountNumber)
		assert.True(t, summary.AvailableBalance.Equal(decimal.NewFromFloat(320.50)))
		assert.True(t, summary.InvestedBalance.Equal(decimal.NewFromFloat(80.00)))
		assert.True(t, summary.LedgerBalance.Equal(summary.AvailableBalance))
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		accountRepo, _, executor, svc := newQueryTestEnv()
		accountRepo.On("GetAccountByID", ctx, executor, "missing").Return(nil, util.ErrAccountNotFound).Once()

		_, err := svc.GetBalanceSummary(ctx, "missing")

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
	})
}
