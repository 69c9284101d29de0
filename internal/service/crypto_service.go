package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

// CryptoRepository defines crypto holding and transaction operations
type CryptoRepository interface {
	GetHoldingForUpdate(ctx context.Context, userID uuid.UUID, asset string) (*domain.Holding, error)
	SaveHolding(ctx context.Context, h *domain.Holding) error
	ListHoldings(ctx context.Context, userID uuid.UUID) ([]domain.Holding, error)
	CreateTransaction(ctx context.Context, t *domain.CryptoTransaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.CryptoTransaction, error)
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*domain.CryptoTransaction, error)
	UpdateTransactionStatus(ctx context.Context, t *domain.CryptoTransaction) error
	ListTransactions(ctx context.Context, filter domain.CryptoFilter, limit, offset int) ([]domain.CryptoTransaction, int, error)
}

// PriceQuoter quotes asset prices
type PriceQuoter interface {
	Quote(ctx context.Context, asset string) (*domain.Quote, error)
}

// CryptoService implements crypto buy/sell submission and admin settlement
type CryptoService struct {
	tx       Transactor
	repo     CryptoRepository
	accounts AccountStore
	prices   PriceQuoter
	settings Settings
	notifier Notifier
	audit    AuditRecorder
	logger   *zap.Logger
	now      Clock
}

// NewCryptoService creates a new crypto service
func NewCryptoService(
	tx Transactor,
	repo CryptoRepository,
	accounts AccountStore,
	prices PriceQuoter,
	settings Settings,
	notifier Notifier,
	audit AuditRecorder,
	logger *zap.Logger,
) *CryptoService {
	return &CryptoService{
		tx:       tx,
		repo:     repo,
		accounts: accounts,
		prices:   prices,
		settings: settings,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      utcNow,
	}
}

// BuyQuantity returns the fee and the quantity bought for amount at price.
// Quantity is truncated to 8 decimal places. A non-positive price is an
// unavailable quote.
func BuyQuantity(amount, price, feePercent decimal.Decimal) (fee, quantity decimal.Decimal, err error) {
	if !price.IsPositive() {
		return decimal.Zero, decimal.Zero, apperrors.Unavailable("no usable price available")
	}
	fee = domain.Percent(amount, feePercent)
	quantity = amount.Sub(fee).DivRound(price, 16).Truncate(domain.QuantityPlaces)
	return fee, quantity, nil
}

// SaleCost returns the cost basis removed by selling quantity out of a holding
// and the holding's average cost per unit before the sale. Selling the whole
// holding removes the whole cost basis.
func SaleCost(h *domain.Holding, quantity decimal.Decimal) (removed, avgCost decimal.Decimal) {
	avgCost = h.CostBasis.DivRound(h.Quantity, 12)
	if quantity.Equal(h.Quantity) {
		return h.CostBasis, avgCost
	}
	removed = h.CostBasis.Mul(quantity).DivRound(h.Quantity, domain.CentsPlaces)
	if removed.GreaterThan(h.CostBasis) {
		removed = h.CostBasis
	}
	return removed, avgCost
}

// Assets returns the tradable asset symbols
func (s *CryptoService) Assets(ctx context.Context) []string {
	return s.settings.Strings(ctx, domain.SettingCryptoAssets)
}

func (s *CryptoService) supported(ctx context.Context, asset string) (string, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	for _, a := range s.Assets(ctx) {
		if a == asset {
			return asset, nil
		}
	}
	return "", apperrors.Validation(fmt.Sprintf("asset %q is not supported", asset))
}

// Buy debits the USD amount now and records a pending buy at the current price
func (s *CryptoService) Buy(ctx context.Context, userID uuid.UUID, in *domain.BuyInput) (*domain.CryptoTransaction, error) {
	asset, err := s.supported(ctx, in.Asset)
	if err != nil {
		return nil, err
	}
	if err := requireCents("amount", in.AmountUSD); err != nil {
		return nil, err
	}
	quote, err := s.prices.Quote(ctx, asset)
	if err != nil {
		return nil, err
	}

	fee, qty, err := BuyQuantity(in.AmountUSD, quote.Price, s.settings.Decimal(ctx, domain.SettingCryptoFeePercent))
	if err != nil {
		return nil, err
	}
	if !qty.IsPositive() {
		return nil, apperrors.Validation("amount is too small to buy any " + asset)
	}

	now := s.now()
	txn := &domain.CryptoTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: in.AccountID,
		Side:      domain.CryptoSideBuy,
		Asset:     asset,
		Quantity:  qty,
		Price:     quote.Price,
		Amount:    in.AmountUSD,
		Fee:       fee,
		Status:    domain.CryptoStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := ownedAccount(ctx, s.accounts, userID, in.AccountID); err != nil {
			return err
		}
		if _, err := s.accounts.Debit(ctx, &domain.Posting{
			AccountID:   in.AccountID,
			Amount:      in.AmountUSD,
			Category:    domain.CategoryCryptoBuy,
			ReferenceID: refID(txn.ID),
			Description: fmt.Sprintf("Buy %s %s", qty.String(), asset),
		}); err != nil {
			return err
		}
		return s.repo.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCryptoTrade(string(txn.Side), asset, string(txn.Status))
	s.notifier.Notify(ctx, userID, domain.EventTypeCryptoSubmitted, "Crypto buy submitted",
		fmt.Sprintf("Your order to buy %s %s for $%s is pending settlement.", qty.String(), asset, in.AmountUSD.StringFixed(2)),
		txn.ID.String())
	return txn, nil
}

// Sell removes the quantity and its share of cost basis from the holding now
// and records a pending sell whose proceeds are credited at settlement
func (s *CryptoService) Sell(ctx context.Context, userID uuid.UUID, in *domain.SellInput) (*domain.CryptoTransaction, error) {
	asset, err := s.supported(ctx, in.Asset)
	if err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, apperrors.Validation("quantity must be positive")
	}
	if !in.Quantity.Equal(in.Quantity.Truncate(domain.QuantityPlaces)) {
		return nil, apperrors.Validation("quantity must have at most 8 decimal places")
	}
	quote, err := s.prices.Quote(ctx, asset)
	if err != nil {
		return nil, err
	}

	gross := in.Quantity.Mul(quote.Price).Round(domain.CentsPlaces)
	fee := domain.Percent(gross, s.settings.Decimal(ctx, domain.SettingCryptoFeePercent))
	if !gross.Sub(fee).IsPositive() {
		return nil, apperrors.Validation("quantity is too small to sell")
	}

	now := s.now()
	txn := &domain.CryptoTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: in.AccountID,
		Side:      domain.CryptoSideSell,
		Asset:     asset,
		Quantity:  in.Quantity,
		Price:     quote.Price,
		Amount:    gross,
		Fee:       fee,
		Status:    domain.CryptoStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := ownedAccount(ctx, s.accounts, userID, in.AccountID); err != nil {
			return err
		}
		h, err := s.repo.GetHoldingForUpdate(ctx, userID, asset)
		if err != nil {
			return err
		}
		if in.Quantity.GreaterThan(h.Quantity) {
			return apperrors.InsufficientFunds(fmt.Sprintf("insufficient %s holding", asset))
		}

		removed, avg := SaleCost(h, in.Quantity)
		txn.AvgCostAtSale = &avg
		txn.CostRemoved = &removed

		h.Quantity = h.Quantity.Sub(in.Quantity)
		h.CostBasis = h.CostBasis.Sub(removed)
		if err := s.repo.SaveHolding(ctx, h); err != nil {
			return err
		}
		return s.repo.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCryptoTrade(string(txn.Side), asset, string(txn.Status))
	s.notifier.Notify(ctx, userID, domain.EventTypeCryptoSubmitted, "Crypto sell submitted",
		fmt.Sprintf("Your order to sell %s %s for $%s is pending settlement.", in.Quantity.String(), asset, txn.Proceeds().StringFixed(2)),
		txn.ID.String())
	return txn, nil
}

// Settle completes a pending transaction: buys credit the holding, sells credit the account
func (s *CryptoService) Settle(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.CryptoTransaction, error) {
	var txn *domain.CryptoTransaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.repo.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.Status != domain.CryptoStatusPending {
			return apperrors.InvalidState("only pending transactions can be settled")
		}

		switch txn.Side {
		case domain.CryptoSideBuy:
			h, err := s.repo.GetHoldingForUpdate(ctx, txn.UserID, txn.Asset)
			if err != nil {
				return err
			}
			h.Quantity = h.Quantity.Add(txn.Quantity)
			h.CostBasis = h.CostBasis.Add(txn.Amount.Sub(txn.Fee))
			if err := s.repo.SaveHolding(ctx, h); err != nil {
				return err
			}
		case domain.CryptoSideSell:
			if _, err := s.accounts.Credit(ctx, &domain.Posting{
				AccountID:   txn.AccountID,
				Amount:      txn.Proceeds(),
				Category:    domain.CategoryCryptoSell,
				ReferenceID: refID(txn.ID),
				Description: fmt.Sprintf("Sell %s %s", txn.Quantity.String(), txn.Asset),
			}); err != nil {
				return err
			}
		}

		now := s.now()
		txn.Status = domain.CryptoStatusSettled
		txn.SettledBy = refID(actor.ID)
		txn.SettledAt = &now
		return s.repo.UpdateTransactionStatus(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCryptoTrade(string(txn.Side), txn.Asset, string(txn.Status))
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionCryptoSettled, domain.AuditResourceCrypto,
		txn.ID.String(), fmt.Sprintf("Settled %s %s %s", txn.Side, txn.Quantity.String(), txn.Asset)))
	s.notifier.Notify(ctx, txn.UserID, domain.EventTypeCryptoSettled, "Crypto trade settled",
		fmt.Sprintf("Your %s of %s %s has settled.", txn.Side, txn.Quantity.String(), txn.Asset), txn.ID.String())
	return txn, nil
}

// Reject cancels a pending transaction on behalf of an admin
func (s *CryptoService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.CryptoTransaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("reason is required")
	}
	txn, err := s.cancel(ctx, id, reason, func(*domain.CryptoTransaction) error { return nil })
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionCryptoCancelled, domain.AuditResourceCrypto,
		txn.ID.String(), "Rejected: "+reason))
	return txn, nil
}

// Cancel cancels a customer's own pending transaction
func (s *CryptoService) Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.CryptoTransaction, error) {
	return s.cancel(ctx, id, "cancelled by customer", func(t *domain.CryptoTransaction) error {
		if t.UserID != userID {
			return apperrors.NotFound("crypto transaction")
		}
		return nil
	})
}

// cancel reverses a pending transaction: buys refund the USD amount and sells
// restore the quantity at the recorded average cost
func (s *CryptoService) cancel(ctx context.Context, id uuid.UUID, reason string, check func(*domain.CryptoTransaction) error) (*domain.CryptoTransaction, error) {
	var txn *domain.CryptoTransaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.repo.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := check(txn); err != nil {
			return err
		}
		if txn.Status != domain.CryptoStatusPending {
			return apperrors.InvalidState("only pending transactions can be cancelled")
		}

		switch txn.Side {
		case domain.CryptoSideBuy:
			if _, err := s.accounts.Credit(ctx, &domain.Posting{
				AccountID:   txn.AccountID,
				Amount:      txn.Amount,
				Category:    domain.CategoryCryptoRefund,
				ReferenceID: refID(txn.ID),
				Description: fmt.Sprintf("Refund cancelled %s buy", txn.Asset),
			}); err != nil {
				return err
			}
		case domain.CryptoSideSell:
			h, err := s.repo.GetHoldingForUpdate(ctx, txn.UserID, txn.Asset)
			if err != nil {
				return err
			}
			restored := decimal.Zero
			if txn.AvgCostAtSale != nil {
				restored = txn.Quantity.Mul(*txn.AvgCostAtSale).Round(domain.CentsPlaces)
			}
			h.Quantity = h.Quantity.Add(txn.Quantity)
			h.CostBasis = h.CostBasis.Add(restored)
			if err := s.repo.SaveHolding(ctx, h); err != nil {
				return err
			}
		}

		txn.Status = domain.CryptoStatusCancelled
		txn.CancelReason = reason
		return s.repo.UpdateTransactionStatus(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCryptoTrade(string(txn.Side), txn.Asset, string(txn.Status))
	s.notifier.Notify(ctx, txn.UserID, domain.EventTypeCryptoCancelled, "Crypto trade cancelled",
		fmt.Sprintf("Your %s of %s %s was cancelled: %s.", txn.Side, txn.Quantity.String(), txn.Asset, reason), txn.ID.String())
	return txn, nil
}

// Get returns a customer's own transaction
func (s *CryptoService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.CryptoTransaction, error) {
	txn, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, apperrors.NotFound("crypto transaction")
	}
	return txn, nil
}

// ListTransactions lists transactions matching filter
func (s *CryptoService) ListTransactions(ctx context.Context, filter domain.CryptoFilter, limit, offset int) ([]domain.CryptoTransaction, int, error) {
	return s.repo.ListTransactions(ctx, filter, limit, offset)
}

// Portfolio values a customer's holdings at current prices
func (s *CryptoService) Portfolio(ctx context.Context, userID uuid.UUID) (*domain.Portfolio, error) {
	holdings, err := s.repo.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &domain.Portfolio{Positions: make([]domain.Position, 0, len(holdings))}
	for _, h := range holdings {
		pos := domain.Position{
			Asset:     h.Asset,
			Quantity:  h.Quantity,
			CostBasis: h.CostBasis,
		}
		quote, err := s.prices.Quote(ctx, h.Asset)
		if err != nil {
			s.logger.Warn("no price for holding", zap.String("asset", h.Asset), zap.Error(err))
		} else {
			pos.Price = quote.Price
			pos.MarketValue = h.Quantity.Mul(quote.Price).Round(domain.CentsPlaces)
			pos.UnrealizedPnL = pos.MarketValue.Sub(h.CostBasis)
		}
		p.Positions = append(p.Positions, pos)
		p.CostBasis = p.CostBasis.Add(pos.CostBasis)
		p.MarketValue = p.MarketValue.Add(pos.MarketValue)
		p.UnrealizedPnL = p.UnrealizedPnL.Add(pos.UnrealizedPnL)
	}
	return p, nil
}
