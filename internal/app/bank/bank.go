// Package bank manages the bank sub-ledger: a demand balance plus fixed-term
// deposits. Every bank movement is mirrored by a paired entry on the day
// ledger so the daily score reflects points leaving or re-entering play:
//
//  1. Deposit debits the day (a deduction entry) and credits the bank.
//  2. Withdraw credits the day (a gain entry) and debits the demand balance.
//  3. Deleting a bank deduction from the ledger undoes the bank side.
//
// The service returns the paired entry; appending it to the right day is the
// caller's job.
package bank

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/observability"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Term deposit parameters. One fixed product: a 30-day term at 5% simple
// monthly interest.
const (
	TermDays    = 30
	MonthlyRate = 0.05
)

// Paired-entry names. Undo dispatches on these, so they are part of the
// persisted format.
const (
	NameDemandDeposit = "Bank demand deposit"
	NameTermDeposit   = "Bank term deposit"
	NameWithdrawal    = "Bank withdrawal"
)

// Service owns all bank state transitions.
type Service struct {
	db  *sqlite.DB
	now func() time.Time
}

// New creates a bank service.
func New(db *sqlite.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// State returns the current bank state.
func (s *Service) State() (domain.BankState, error) {
	return s.db.LoadBankState()
}

// Deposit moves amount points into the bank and returns the deduction entry
// to append to today's ledger. Demand deposits add to the liquid balance;
// term deposits lock the amount until maturity.
func (s *Service) Deposit(amount int64, mode domain.DepositMode) (domain.Entry, error) {
	if amount <= 0 {
		return domain.Entry{}, domain.ErrInvalidAmount
	}

	txID := "bank-" + uuid.NewString()
	name := NameDemandDeposit

	switch mode {
	case domain.DepositTerm:
		name = NameTermDeposit
		start := s.now()
		deposit := domain.FixedDeposit{
			ID:           txID,
			Amount:       amount,
			StartDate:    domain.DateKey(start),
			MaturityDate: domain.DateKey(start.AddDate(0, 0, TermDays)),
			Rate:         MonthlyRate,
		}
		if err := s.db.InsertFixedDeposit(deposit); err != nil {
			return domain.Entry{}, err
		}
		observability.BankTransactions.WithLabelValues("deposit_term").Inc()

	default:
		state, err := s.db.LoadBankState()
		if err != nil {
			return domain.Entry{}, err
		}
		if err := s.db.SetDemand(state.Demand + amount); err != nil {
			return domain.Entry{}, err
		}
		observability.BankTransactions.WithLabelValues("deposit_demand").Inc()
	}

	score := int(amount)
	return domain.Entry{
		ID:          txID + "-deduct",
		Name:        name,
		ScoreType:   domain.ScoreDeduction,
		FixedScore:  &score,
		CategoryKey: domain.CategoryBank,
	}, nil
}

// Withdraw moves amount points out of the demand balance and returns the gain
// entry to append to today's ledger. Term deposits cannot be withdrawn.
func (s *Service) Withdraw(amount int64) (domain.Entry, error) {
	if amount <= 0 {
		return domain.Entry{}, domain.ErrInvalidAmount
	}
	state, err := s.db.LoadBankState()
	if err != nil {
		return domain.Entry{}, err
	}
	if amount > state.Demand {
		return domain.Entry{}, domain.ErrInsufficientFunds
	}
	if err := s.db.SetDemand(state.Demand - amount); err != nil {
		return domain.Entry{}, err
	}
	observability.BankTransactions.WithLabelValues("withdraw").Inc()

	score := int(amount)
	return domain.Entry{
		ID:          "bank-withdraw-" + uuid.NewString() + "-gain",
		Name:        NameWithdrawal,
		ScoreType:   domain.ScoreGain,
		FixedScore:  &score,
		CategoryKey: domain.CategoryBank,
	}, nil
}

// Revert unwinds the bank side of a paired entry that never reached the day
// ledger. Unlike Undo it also reverses withdrawals, crediting the amount back
// to the demand balance.
func (s *Service) Revert(entry domain.Entry) error {
	if entry.CategoryKey == domain.CategoryBank &&
		entry.ScoreType == domain.ScoreGain && entry.Name == NameWithdrawal &&
		entry.FixedScore != nil {
		state, err := s.db.LoadBankState()
		if err != nil {
			return err
		}
		if err := s.db.SetDemand(state.Demand + int64(*entry.FixedScore)); err != nil {
			return err
		}
		observability.BankTransactions.WithLabelValues("undo").Inc()
		return nil
	}
	return s.Undo(entry)
}

// Undo reverses the bank side of a deleted ledger entry. Only bank deposit
// deductions are reversible; anything else is a silent no-op so the ledger
// delete path can call this unconditionally.
func (s *Service) Undo(entry domain.Entry) error {
	if entry.CategoryKey != domain.CategoryBank || entry.ScoreType != domain.ScoreDeduction {
		return nil
	}
	var amount int64
	if entry.FixedScore != nil {
		amount = int64(*entry.FixedScore)
		if amount < 0 {
			amount = -amount
		}
	}
	if amount == 0 {
		return nil
	}

	switch entry.Name {
	case NameDemandDeposit:
		state, err := s.db.LoadBankState()
		if err != nil {
			return err
		}
		demand := state.Demand - amount
		if demand < 0 {
			demand = 0
		}
		if err := s.db.SetDemand(demand); err != nil {
			return err
		}
		observability.BankTransactions.WithLabelValues("undo").Inc()

	case NameTermDeposit:
		refID := strings.TrimSuffix(entry.ID, "-deduct")
		if _, err := s.db.DeleteFixedDeposit(refID); err != nil {
			return err
		}
		observability.BankTransactions.WithLabelValues("undo").Inc()
	}
	return nil
}
