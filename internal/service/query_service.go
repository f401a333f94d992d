// internal/service/query_service.go
package service

import (
	"context"
	"fmt"

	"pixbank/internal/domain"
	"pixbank/internal/repository"
)

// Default and maximum page sizes for ledger listings.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// QueryService is the read side of the ledger: it only ever reads from the
// account and ledger stores and never mutates them.
type QueryService interface {
	// ListTransactions returns an account's entries newest-first together
	// with the cursor for the next page ("" when the listing is exhausted).
	ListTransactions(ctx context.Context, accountID string, filter domain.EntryFilter) ([]domain.LedgerEntry, string, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	// GetBalanceSummary reads the latest committed balances, never a cached value.
	GetBalanceSummary(ctx context.Context, accountID string) (*domain.BalanceSummary, error)
}

// queryService implements the QueryService interface.
type queryService struct {
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	ledgerRepo  repository.LedgerRepository
}

// NewQueryService creates a new instance of QueryService.
func NewQueryService(dbExecutor repository.DBExecutor, accountRepo repository.AccountRepository, ledgerRepo repository.LedgerRepository) QueryService {
	return &queryService{
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ListTransactions retrieves a filtered, cursor-paginated ledger listing.
func (s *queryService) ListTransactions(ctx context.Context, accountID string, filter domain.EntryFilter) ([]domain.LedgerEntry, string, error) {
	if _, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID); err != nil {
		return nil, "", fmt.Errorf("list transactions: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	entries, err := s.ledgerRepo.ListEntries(ctx, s.dbExecutor, accountID, filter)
	if err != nil {
		return nil, "", fmt.Errorf("list transactions: %w", err)
	}

	nextCursor := ""
	if len(entries) == filter.Limit {
		nextCursor = domain.CursorFromEntry(&entries[len(entries)-1]).Encode()
	}
	return entries, nextCursor, nil
}

// GetTransactionByID retrieves a single ledger entry.
func (s *queryService) GetTransactionByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	entry, err := s.ledgerRepo.GetEntryByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return entry, nil
}

// GetBalanceSummary returns a point-in-time read of the account's balances,
// alongside the balance its ledger entries imply.
func (s *queryService) GetBalanceSummary(ctx context.Context, accountID string) (*domain.BalanceSummary, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("get balance summary: %w", err)
	}
	ledgerBalance, err := s.ledgerRepo.SumEffects(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("get balance summary: %w", err)
	}
	return &domain.BalanceSummary{
		AccountID:        account.ID,
		AccountNumber:    account.AccountNumber,
		AvailableBalance: account.AvailableBalance,
		InvestedBalance:  account.InvestedBalance,
		LedgerBalance:    ledgerBalance,
	}, nil
}
