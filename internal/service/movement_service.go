// internal/service/movement_service.go
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"pixbank/internal/domain"
	"pixbank/internal/metrics"
	"pixbank/internal/pix"
	"pixbank/internal/repository"
	"pixbank/internal/util"
	"pixbank/pkg/db"

	"github.com/shopspring/decimal"
)

// maxConflictRetries bounds how many times the engine re-runs an operation
// after a detected lost-update race before surfacing ErrConcurrencyConflict.
const maxConflictRetries = 3

// MovementService is the money movement engine: it validates and atomically
// applies every balance-affecting operation, producing ledger entries.
// Each operation is a single all-or-nothing unit against the account and
// ledger stores; no partial application is ever observable.
type MovementService interface {
	CreateAccount(ctx context.Context, ownerID, ownerName string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string) error

	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)
	Invest(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)
	Redeem(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)
	Transfer(ctx context.Context, fromAccountID, toAccountNumber string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)

	RegisterPixKey(ctx context.Context, accountID string, keyType domain.PixKeyType, keyValue string) (*domain.PixKey, error)
	DeactivatePixKey(ctx context.Context, keyID string) error
	GeneratePixReceipt(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.PixPayload, error)
	DecodePix(rawCode string) (*domain.PixPayload, error)
	PayPix(ctx context.Context, payerAccountID string, payload *domain.PixPayload, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)

	PayBoleto(ctx context.Context, payerAccountID string, boleto *domain.Boleto, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error)
}

// movementService implements the MovementService interface.
type movementService struct {
	dbBeginner  db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor  repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	accountRepo repository.AccountRepository
	ledgerRepo  repository.LedgerRepository
	pixKeyRepo  repository.PixKeyRepository
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	logger      *slog.Logger
}

// NewMovementService creates a new instance of MovementService.
func NewMovementService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	ledgerRepo repository.LedgerRepository,
	pixKeyRepo repository.PixKeyRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) MovementService {
	return &movementService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		pixKeyRepo:  pixKeyRepo,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		logger:      logger,
	}
}

// runAtomic executes fn inside one database transaction, committing only if
// fn succeeds. A concurrency conflict re-runs the whole operation a bounded
// number of times; every other error propagates after rollback.
func (s *movementService) runAtomic(ctx context.Context, fn func(q repository.DBExecutor) error) error {
	var err error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		err = s.runOnce(ctx, fn)
		if !errors.Is(err, util.ErrConcurrencyConflict) {
			return err
		}
		metrics.ConflictRetries.Inc()
		s.logger.Warn("Concurrency conflict detected, retrying operation", "attempt", attempt)
	}
	return err
}

func (s *movementService) runOnce(ctx context.Context, fn func(q repository.DBExecutor) error) error {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("transaction controller does not implement DBExecutor")
	}

	if err := fn(txExecutor); err != nil {
		return err
	}
	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// replayedEntry returns the entry previously recorded under the caller's
// idempotency key, or nil when the key is unseen (or absent). A hit means the
// retried request must be answered without re-applying its effect.
func (s *movementService) replayedEntry(ctx context.Context, q repository.DBExecutor, accountID, key string) (*domain.LedgerEntry, error) {
	if key == "" {
		return nil, nil
	}
	entry, err := s.ledgerRepo.FindEntryByIdempotencyKey(ctx, q, accountID, key)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return entry, nil
}

func (s *movementService) activeAccount(ctx context.Context, q repository.DBExecutor, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, util.ErrAccountNotFound
	}
	return account, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// newAccountNumber generates a random ten-digit human-facing account number.
func newAccountNumber() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate account number: %w", err)
	}
	digits := make([]byte, len(buf))
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}

// CreateAccount onboards a new account with zero balances.
func (s *movementService) CreateAccount(ctx context.Context, ownerID, ownerName string) (*domain.Account, error) {
	if ownerID == "" || ownerName == "" {
		return nil, util.ErrInvalidInput
	}

	number, err := newAccountNumber()
	if err != nil {
		return nil, err
	}
	account := domain.NewAccount(ownerID, ownerName, number)
	if err := s.accountRepo.CreateAccount(ctx, s.dbExecutor, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// DeactivateAccount soft-deletes an account; movement operations against it
// fail with AccountNotFound from then on.
func (s *movementService) DeactivateAccount(ctx context.Context, accountID string) error {
	if err := s.accountRepo.DeactivateAccount(ctx, s.dbExecutor, accountID); err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return nil
}

// Deposit adds money to an account's available balance.
func (s *movementService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.singleEntryMovement(ctx, accountID, domain.EntryTypeDeposit, amount, amount, decimal.Zero, optionalString(description), idempotencyKey)
	metrics.RecordOperation("deposit", err)
	return account, entry, err
}

// Withdraw removes money from an account's available balance, rejecting any
// amount above the committed balance.
func (s *movementService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.singleEntryMovement(ctx, accountID, domain.EntryTypeWithdraw, amount, amount.Neg(), decimal.Zero, optionalString(description), idempotencyKey)
	metrics.RecordOperation("withdraw", err)
	return account, entry, err
}

// Invest moves money from the available balance into the invested balance.
func (s *movementService) Invest(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.singleEntryMovement(ctx, accountID, domain.EntryTypeInvest, amount, amount.Neg(), amount, nil, idempotencyKey)
	metrics.RecordOperation("invest", err)
	return account, entry, err
}

// Redeem moves money from the invested balance back into the available balance.
func (s *movementService) Redeem(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.singleEntryMovement(ctx, accountID, domain.EntryTypeRedeem, amount, amount, amount.Neg(), nil, idempotencyKey)
	metrics.RecordOperation("redeem", err)
	return account, entry, err
}

// singleEntryMovement applies one-sided operations: a balance delta plus one
// ledger entry, committed as a single atomic unit. The conditional update in
// the store guarantees neither balance can be driven negative even under
// concurrent mutation.
func (s *movementService) singleEntryMovement(
	ctx context.Context,
	accountID string,
	entryType domain.EntryType,
	amount, availableDelta, investedDelta decimal.Decimal,
	description *string,
	idempotencyKey string,
) (*domain.Account, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	var resAccount *domain.Account
	var resEntry *domain.LedgerEntry

	err := s.runAtomic(ctx, func(q repository.DBExecutor) error {
		account, err := s.activeAccount(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("%s: %w", entryType, err)
		}

		if prior, err := s.replayedEntry(ctx, q, accountID, idempotencyKey); err != nil {
			return err
		} else if prior != nil {
			resAccount, resEntry = account, prior
			return nil
		}

		if err := s.accountRepo.ApplyBalanceDelta(ctx, q, accountID, availableDelta, investedDelta); err != nil {
			return fmt.Errorf("%s: %w", entryType, err)
		}

		entry := domain.NewLedgerEntry(accountID, entryType, amount, description)
		entry.IdempotencyKey = optionalString(idempotencyKey)
		if err := s.ledgerRepo.AppendEntries(ctx, q, []*domain.LedgerEntry{entry}); err != nil {
			return fmt.Errorf("%s: failed to append ledger entry: %w", entryType, err)
		}

		updated, err := s.accountRepo.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("%s: failed to re-fetch account: %w", entryType, err)
		}
		resAccount, resEntry = updated, entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resAccount, resEntry, nil
}

// Transfer moves money between two accounts, resolving the destination by its
// account number and appending a linked debit/credit entry pair in the same
// atomic unit as both balance mutations.
func (s *movementService) Transfer(ctx context.Context, fromAccountID, toAccountNumber string, amount decimal.Decimal, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.pairedMovement(ctx, fromAccountID, amount, optionalString(description), idempotencyKey,
		domain.EntryTypeTransferOut, domain.EntryTypeTransferIn,
		func(q repository.DBExecutor) (string, error) {
			dest, err := s.accountRepo.GetAccountByNumber(ctx, q, toAccountNumber)
			if err != nil {
				return "", fmt.Errorf("transfer: %w", err)
			}
			return dest.ID, nil
		})
	metrics.RecordOperation("transfer", err)
	return account, entry, err
}

// PayPix executes a decoded pix payload: the payload's key resolves to the
// receiving account and the payment applies with the same semantics as a
// transfer, recorded as a pix_out/pix_in pair.
func (s *movementService) PayPix(ctx context.Context, payerAccountID string, payload *domain.PixPayload, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	description := payload.Description
	if description == "" {
		description = payload.ReceiverName
	}
	account, entry, err := s.pairedMovement(ctx, payerAccountID, payload.Amount, optionalString(description), idempotencyKey,
		domain.EntryTypePixOut, domain.EntryTypePixIn,
		func(q repository.DBExecutor) (string, error) {
			key, err := s.pixKeyRepo.GetActiveKeyByValue(ctx, q, payload.PixKey)
			if err != nil {
				return "", fmt.Errorf("pay pix: %w", err)
			}
			return key.OwnerAccountID, nil
		})
	metrics.RecordOperation("pix_payment", err)
	return account, entry, err
}

// pairedMovement is the shared debit/credit core of Transfer and PayPix.
// resolveDest runs inside the transaction and yields the receiving account id.
// Both account rows are locked in ascending id order so two opposing payments
// can never deadlock on each other.
func (s *movementService) pairedMovement(
	ctx context.Context,
	fromAccountID string,
	amount decimal.Decimal,
	description *string,
	idempotencyKey string,
	outType, inType domain.EntryType,
	resolveDest func(q repository.DBExecutor) (string, error),
) (*domain.Account, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	var resAccount *domain.Account
	var resEntry *domain.LedgerEntry

	err := s.runAtomic(ctx, func(q repository.DBExecutor) error {
		toAccountID, err := resolveDest(q)
		if err != nil {
			return err
		}
		if toAccountID == fromAccountID {
			return util.ErrSameAccount
		}

		// Deterministic lock order keeps two transfers that target each
		// other's accounts from deadlocking.
		lockOrder := []string{fromAccountID, toAccountID}
		if lockOrder[1] < lockOrder[0] {
			lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
		}
		locked := make(map[string]*domain.Account, 2)
		for _, id := range lockOrder {
			account, err := s.accountRepo.GetAccountByIDForUpdate(ctx, q, id)
			if err != nil {
				return fmt.Errorf("%s: %w", outType, err)
			}
			locked[id] = account
		}
		source, dest := locked[fromAccountID], locked[toAccountID]
		if !source.Active || !dest.Active {
			return util.ErrAccountNotFound
		}

		if prior, err := s.replayedEntry(ctx, q, fromAccountID, idempotencyKey); err != nil {
			return err
		} else if prior != nil {
			resAccount, resEntry = source, prior
			return nil
		}

		if source.AvailableBalance.LessThan(amount) {
			return util.ErrInsufficientFunds
		}

		if err := s.accountRepo.ApplyBalanceDelta(ctx, q, source.ID, amount.Neg(), decimal.Zero); err != nil {
			return fmt.Errorf("%s: failed to debit source: %w", outType, err)
		}
		if err := s.accountRepo.ApplyBalanceDelta(ctx, q, dest.ID, amount, decimal.Zero); err != nil {
			return fmt.Errorf("%s: failed to credit destination: %w", outType, err)
		}

		out, in := domain.NewEntryPair(source.ID, dest.ID, outType, inType, amount, description)
		out.IdempotencyKey = optionalString(idempotencyKey)
		if err := s.ledgerRepo.AppendEntries(ctx, q, []*domain.LedgerEntry{out, in}); err != nil {
			return fmt.Errorf("%s: failed to append ledger entries: %w", outType, err)
		}

		updated, err := s.accountRepo.GetAccountByID(ctx, q, source.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to re-fetch source account: %w", outType, err)
		}
		resAccount, resEntry = updated, out
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resAccount, resEntry, nil
}

// RegisterPixKey registers a new addressing key for an account.
func (s *movementService) RegisterPixKey(ctx context.Context, accountID string, keyType domain.PixKeyType, keyValue string) (*domain.PixKey, error) {
	if !domain.ValidPixKeyType(keyType) || keyValue == "" {
		return nil, util.ErrInvalidInput
	}

	if _, err := s.activeAccount(ctx, s.dbExecutor, accountID); err != nil {
		return nil, fmt.Errorf("register pix key: %w", err)
	}

	key := domain.NewPixKey(accountID, keyType, keyValue)
	if err := s.pixKeyRepo.CreatePixKey(ctx, s.dbExecutor, key); err != nil {
		return nil, fmt.Errorf("register pix key: %w", err)
	}
	return key, nil
}

// DeactivatePixKey retires a key; its value becomes reusable by other owners.
func (s *movementService) DeactivatePixKey(ctx context.Context, keyID string) error {
	if err := s.pixKeyRepo.DeactivateKey(ctx, s.dbExecutor, keyID); err != nil {
		return fmt.Errorf("deactivate pix key: %w", err)
	}
	return nil
}

// GeneratePixReceipt produces a transferable payload bound to the account's
// oldest active key. It has no ledger effect; money moves only when a payer
// executes PayPix against the payload.
func (s *movementService) GeneratePixReceipt(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.PixPayload, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	account, err := s.activeAccount(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("generate pix receipt: %w", err)
	}

	keys, err := s.pixKeyRepo.ListActiveKeysByAccount(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, fmt.Errorf("generate pix receipt: %w", err)
	}
	if len(keys) == 0 {
		return nil, util.ErrNoPixKeyRegistered
	}

	payload := &domain.PixPayload{
		PixKey:       keys[0].KeyValue,
		ReceiverName: account.OwnerName,
		Amount:       amount,
		Description:  description,
	}
	rawCode, err := pix.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("generate pix receipt: %w", err)
	}
	payload.RawCode = rawCode
	return payload, nil
}

// DecodePix parses a transferable payload. It is a pure function of its input.
func (s *movementService) DecodePix(rawCode string) (*domain.PixPayload, error) {
	payload, err := pix.Decode(rawCode)
	if err != nil {
		return nil, fmt.Errorf("decode pix: %w", err)
	}
	return payload, nil
}

// PayBoleto debits the payer for an external barcode instrument. Paying the
// same barcode twice from the same account is rejected with DuplicatePayment,
// so a retried request can never double-debit.
func (s *movementService) PayBoleto(ctx context.Context, payerAccountID string, boleto *domain.Boleto, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	account, entry, err := s.payBoleto(ctx, payerAccountID, boleto, description, idempotencyKey)
	metrics.RecordOperation("boleto_payment", err)
	return account, entry, err
}

func (s *movementService) payBoleto(ctx context.Context, payerAccountID string, boleto *domain.Boleto, description, idempotencyKey string) (*domain.Account, *domain.LedgerEntry, error) {
	if boleto == nil || !domain.ValidBarCode(boleto.BarCode) {
		return nil, nil, util.ErrInvalidInput
	}
	if boleto.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}
	if description == "" {
		description = boleto.Beneficiary
	}

	var resAccount *domain.Account
	var resEntry *domain.LedgerEntry

	err := s.runAtomic(ctx, func(q repository.DBExecutor) error {
		account, err := s.activeAccount(ctx, q, payerAccountID)
		if err != nil {
			return fmt.Errorf("pay boleto: %w", err)
		}

		if prior, err := s.replayedEntry(ctx, q, payerAccountID, idempotencyKey); err != nil {
			return err
		} else if prior != nil {
			resAccount, resEntry = account, prior
			return nil
		}

		paid, err := s.ledgerRepo.HasBoletoPayment(ctx, q, payerAccountID, boleto.BarCode)
		if err != nil {
			return fmt.Errorf("pay boleto: %w", err)
		}
		if paid {
			return util.ErrDuplicatePayment
		}

		if err := s.accountRepo.ApplyBalanceDelta(ctx, q, payerAccountID, boleto.Amount.Neg(), decimal.Zero); err != nil {
			return fmt.Errorf("pay boleto: %w", err)
		}

		entry := domain.NewLedgerEntry(payerAccountID, domain.EntryTypeBoletoPayment, boleto.Amount, optionalString(description))
		entry.Reference = &boleto.BarCode
		entry.IdempotencyKey = optionalString(idempotencyKey)
		if err := s.ledgerRepo.AppendEntries(ctx, q, []*domain.LedgerEntry{entry}); err != nil {
			return fmt.Errorf("pay boleto: failed to append ledger entry: %w", err)
		}

		updated, err := s.accountRepo.GetAccountByID(ctx, q, payerAccountID)
		if err != nil {
			return fmt.Errorf("pay boleto: failed to re-fetch account: %w", err)
		}
		resAccount, resEntry = updated, entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resAccount, resEntry, nil
}
