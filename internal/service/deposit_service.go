package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

const (
	sniffLen           = 3072
	imageURLExpiry     = 15 * time.Minute
	rollingLimitWindow = 24 * time.Hour
)

var checkImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// DepositRepository defines mobile deposit repository operations
type DepositRepository interface {
	Create(ctx context.Context, d *domain.MobileDeposit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error)
	CheckNumberInUse(ctx context.Context, userID uuid.UUID, checkNumber string) (bool, error)
	SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error)
	UpdateReview(ctx context.Context, d *domain.MobileDeposit) error
	List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error)
}

// ImageStore stores check images
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// DepositService implements mobile check deposit submission and review
type DepositService struct {
	tx       Transactor
	repo     DepositRepository
	accounts AccountStore
	images   ImageStore
	settings Settings
	notifier Notifier
	audit    AuditRecorder
	logger   *zap.Logger
	now      Clock
}

// NewDepositService creates a new deposit service
func NewDepositService(
	tx Transactor,
	repo DepositRepository,
	accounts AccountStore,
	images ImageStore,
	settings Settings,
	notifier Notifier,
	audit AuditRecorder,
	logger *zap.Logger,
) *DepositService {
	return &DepositService{
		tx:       tx,
		repo:     repo,
		accounts: accounts,
		images:   images,
		settings: settings,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      utcNow,
	}
}

type sniffedImage struct {
	body        io.Reader
	size        int64
	contentType string
	ext         string
}

// sniffImage detects the image type from its leading bytes and returns a
// reader that replays them
func sniffImage(side string, img domain.CheckImage, maxBytes int64) (*sniffedImage, error) {
	if img.Body == nil || img.Size <= 0 {
		return nil, apperrors.Validation(side + " image is required")
	}
	if maxBytes > 0 && img.Size > maxBytes {
		return nil, apperrors.Validation(fmt.Sprintf("%s image exceeds %d bytes", side, maxBytes))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read %s image: %w", side, err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	ext, ok := checkImageTypes[mt.String()]
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("%s image must be JPEG or PNG", side))
	}

	return &sniffedImage{
		body:        io.MultiReader(bytes.NewReader(head), img.Body),
		size:        img.Size,
		contentType: mt.String(),
		ext:         ext,
	}, nil
}

func imageKey(userID, depositID uuid.UUID, side, ext string) string {
	return fmt.Sprintf("deposits/%s/%s/%s.%s", userID, depositID, side, ext)
}

// Submit validates limits, stores both check images and records a pending deposit
func (s *DepositService) Submit(ctx context.Context, userID uuid.UUID, in *domain.DepositInput) (*domain.MobileDeposit, error) {
	if err := requireCents("amount", in.Amount); err != nil {
		return nil, err
	}
	checkNumber := strings.TrimSpace(in.CheckNumber)
	if checkNumber == "" {
		return nil, apperrors.Validation("checkNumber is required")
	}
	if maxAmount := s.settings.Decimal(ctx, domain.SettingDepositMaxAmount); maxAmount.IsPositive() && in.Amount.GreaterThan(maxAmount) {
		return nil, apperrors.LimitExceeded(fmt.Sprintf("deposits are limited to $%s each", maxAmount.StringFixed(2)))
	}

	acct, err := ownedAccount(ctx, s.accounts, userID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if acct.Status != domain.AccountStatusActive {
		return nil, apperrors.InvalidState("account is frozen")
	}

	now := s.now()
	maxBytes := int64(s.settings.Int(ctx, domain.SettingDepositMaxImageBytes))
	front, err := sniffImage("front", in.Front, maxBytes)
	if err != nil {
		return nil, err
	}
	back, err := sniffImage("back", in.Back, maxBytes)
	if err != nil {
		return nil, err
	}

	dep := &domain.MobileDeposit{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   in.AccountID,
		Amount:      in.Amount,
		CheckNumber: checkNumber,
		Status:      domain.DepositStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	dep.FrontImageKey = imageKey(userID, dep.ID, "front", front.ext)
	dep.BackImageKey = imageKey(userID, dep.ID, "back", back.ext)

	if err := s.images.Put(ctx, dep.FrontImageKey, front.body, front.size, front.contentType); err != nil {
		return nil, err
	}
	if err := s.images.Put(ctx, dep.BackImageKey, back.body, back.size, back.contentType); err != nil {
		s.discardImages(ctx, dep.FrontImageKey)
		return nil, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error { return s.record(ctx, dep) }); err != nil {
		s.discardImages(ctx, dep.FrontImageKey, dep.BackImageKey)
		return nil, err
	}

	metrics.RecordDeposit(string(dep.Status))
	s.notifier.Notify(ctx, userID, domain.EventTypeDepositSubmitted, "Check deposit received",
		fmt.Sprintf("Your deposit of $%s (check %s) is under review.", dep.Amount.StringFixed(2), dep.CheckNumber),
		dep.ID.String())
	return dep, nil
}

// record inserts dep once its check number is unused and the rolling limit
// allows it. The owner lock makes the checks and the insert atomic per user.
func (s *DepositService) record(ctx context.Context, dep *domain.MobileDeposit) error {
	if err := s.accounts.LockOwner(ctx, dep.UserID); err != nil {
		return err
	}
	inUse, err := s.repo.CheckNumberInUse(ctx, dep.UserID, dep.CheckNumber)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.Conflict("check has already been deposited")
	}
	if limit := s.settings.Decimal(ctx, domain.SettingDepositDailyLimit); limit.IsPositive() {
		recent, err := s.repo.SumSince(ctx, dep.UserID, dep.CreatedAt.Add(-rollingLimitWindow))
		if err != nil {
			return err
		}
		if recent.Add(dep.Amount).GreaterThan(limit) {
			return apperrors.LimitExceeded(fmt.Sprintf("deposit would exceed the 24 hour limit of $%s", limit.StringFixed(2)))
		}
	}
	return s.repo.Create(ctx, dep)
}

func (s *DepositService) discardImages(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove orphaned check image", zap.String("key", key), zap.Error(err))
		}
	}
}

// Approve credits the account and marks the deposit approved
func (s *DepositService) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.MobileDeposit, error) {
	dep, err := s.review(ctx, actor, id, func(ctx context.Context, d *domain.MobileDeposit) error {
		if _, err := s.accounts.Credit(ctx, &domain.Posting{
			AccountID:   d.AccountID,
			Amount:      d.Amount,
			Category:    domain.CategoryMobileDeposit,
			ReferenceID: refID(d.ID),
			Description: "Mobile deposit check " + d.CheckNumber,
		}); err != nil {
			return err
		}
		d.Status = domain.DepositStatusApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionDepositApproved, domain.AuditResourceDeposit,
		dep.ID.String(), fmt.Sprintf("Approved deposit of $%s", dep.Amount.StringFixed(2))))
	s.notifier.Notify(ctx, dep.UserID, domain.EventTypeDepositApproved, "Check deposit approved",
		fmt.Sprintf("Your deposit of $%s has been credited.", dep.Amount.StringFixed(2)), dep.ID.String())
	return dep, nil
}

// Reject marks the deposit rejected with a reason
func (s *DepositService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.MobileDeposit, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("reason is required")
	}
	dep, err := s.review(ctx, actor, id, func(_ context.Context, d *domain.MobileDeposit) error {
		d.Status = domain.DepositStatusRejected
		d.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionDepositRejected, domain.AuditResourceDeposit,
		dep.ID.String(), "Rejected deposit: "+reason))
	s.notifier.Notify(ctx, dep.UserID, domain.EventTypeDepositRejected, "Check deposit rejected",
		fmt.Sprintf("Your deposit of $%s was rejected: %s.", dep.Amount.StringFixed(2), reason), dep.ID.String())
	return dep, nil
}

func (s *DepositService) review(ctx context.Context, actor domain.Actor, id uuid.UUID, apply func(context.Context, *domain.MobileDeposit) error) (*domain.MobileDeposit, error) {
	var dep *domain.MobileDeposit
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		dep, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if dep.Status != domain.DepositStatusPending {
			return apperrors.InvalidState("deposit has already been reviewed")
		}
		if err := apply(ctx, dep); err != nil {
			return err
		}
		now := s.now()
		dep.ReviewedBy = refID(actor.ID)
		dep.ReviewedAt = &now
		return s.repo.UpdateReview(ctx, dep)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordDeposit(string(dep.Status))
	return dep, nil
}

// Get returns a customer's own deposit
func (s *DepositService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.MobileDeposit, error) {
	dep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dep.UserID != userID {
		return nil, apperrors.NotFound("deposit")
	}
	return dep, nil
}

// GetAny returns any deposit
func (s *DepositService) GetAny(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists deposits matching filter
func (s *DepositService) List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Images returns presigned URLs for the deposit's check images
func (s *DepositService) Images(ctx context.Context, id uuid.UUID) (*domain.DepositImages, error) {
	dep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	front, err := s.images.PresignedGet(ctx, dep.FrontImageKey, imageURLExpiry)
	if err != nil {
		return nil, err
	}
	back, err := s.images.PresignedGet(ctx, dep.BackImageKey, imageURLExpiry)
	if err != nil {
		return nil, err
	}
	return &domain.DepositImages{
		FrontURL:  front,
		BackURL:   back,
		ExpiresAt: s.now().Add(imageURLExpiry),
	}, nil
}
