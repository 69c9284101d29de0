package service

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

var (
	testLogger = zap.NewNop()
	fixedNow   = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int {
	return &n
}

// passthroughTx runs fn on the caller's context, marked as transactional
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(context.WithValue(ctx, inTxKey{}, true))
}

type inTxKey struct{}

// inTx reports whether ctx came from passthroughTx.WithinTx
func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

// fakeSettings serves registry defaults with per-test overrides
type fakeSettings struct {
	values map[string]string
}

func newFakeSettings(overrides map[string]string) *fakeSettings {
	return &fakeSettings{values: overrides}
}

func (f *fakeSettings) raw(key string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	def, _ := LookupSetting(key)
	return def.Default
}

func (f *fakeSettings) Bool(_ context.Context, key string) bool {
	b, _ := strconv.ParseBool(f.raw(key))
	return b
}

func (f *fakeSettings) Int(_ context.Context, key string) int {
	n, _ := strconv.Atoi(f.raw(key))
	return n
}

func (f *fakeSettings) Decimal(_ context.Context, key string) decimal.Decimal {
	d, err := decimal.NewFromString(f.raw(key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f *fakeSettings) Strings(_ context.Context, key string) []string {
	return splitSettingList(f.raw(key))
}

// recordingNotifier keeps every notification
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.EventType
	users  []uuid.UUID
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, event domain.EventType, _, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.users = append(n.users, userID)
}

// sequenceRand replays fixed draws
type sequenceRand struct {
	draws []float64
	i     int
}

func (r *sequenceRand) Float64() float64 {
	v := r.draws[r.i%len(r.draws)]
	r.i++
	return v
}

// MockAccountStore is a mock implementation of AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) Credit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockAccountStore) Debit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockAccountStore) LockOwner(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Log(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLog), args.Error(1)
}

// MockLoanRepository is a mock implementation of LoanRepository
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.Loan), args.Int(1), args.Error(2)
}

func (m *MockLoanRepository) ListDueBefore(ctx context.Context, t time.Time, limit int) ([]domain.Loan, error) {
	args := m.Called(ctx, t, limit)
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// memCryptoRepository keeps holdings and transactions in memory
type memCryptoRepository struct {
	holdings map[string]*domain.Holding
	txns     map[uuid.UUID]*domain.CryptoTransaction
}

func newMemCryptoRepository() *memCryptoRepository {
	return &memCryptoRepository{
		holdings: make(map[string]*domain.Holding),
		txns:     make(map[uuid.UUID]*domain.CryptoTransaction),
	}
}

func holdingKey(userID uuid.UUID, asset string) string { return userID.String() + "/" + asset }

func (r *memCryptoRepository) GetHoldingForUpdate(_ context.Context, userID uuid.UUID, asset string) (*domain.Holding, error) {
	if h, ok := r.holdings[holdingKey(userID, asset)]; ok {
		cp := *h
		return &cp, nil
	}
	return &domain.Holding{UserID: userID, Asset: asset}, nil
}

func (r *memCryptoRepository) SaveHolding(_ context.Context, h *domain.Holding) error {
	cp := *h
	r.holdings[holdingKey(h.UserID, h.Asset)] = &cp
	return nil
}

func (r *memCryptoRepository) ListHoldings(_ context.Context, userID uuid.UUID) ([]domain.Holding, error) {
	var out []domain.Holding
	for _, h := range r.holdings {
		if h.UserID == userID && h.Quantity.IsPositive() {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (r *memCryptoRepository) CreateTransaction(_ context.Context, t *domain.CryptoTransaction) error {
	cp := *t
	r.txns[t.ID] = &cp
	return nil
}

func (r *memCryptoRepository) GetTransaction(_ context.Context, id uuid.UUID) (*domain.CryptoTransaction, error) {
	t, ok := r.txns[id]
	if !ok {
		return nil, apperrors.NotFound("crypto transaction")
	}
	cp := *t
	return &cp, nil
}

func (r *memCryptoRepository) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*domain.CryptoTransaction, error) {
	return r.GetTransaction(ctx, id)
}

func (r *memCryptoRepository) UpdateTransactionStatus(_ context.Context, t *domain.CryptoTransaction) error {
	cp := *t
	r.txns[t.ID] = &cp
	return nil
}

func (r *memCryptoRepository) ListTransactions(_ context.Context, _ domain.CryptoFilter, _, _ int) ([]domain.CryptoTransaction, int, error) {
	var out []domain.CryptoTransaction
	for _, t := range r.txns {
		out = append(out, *t)
	}
	return out, len(out), nil
}

// fixedQuoter quotes fixed prices
type fixedQuoter map[string]decimal.Decimal

func (q fixedQuoter) Quote(_ context.Context, asset string) (*domain.Quote, error) {
	p, ok := q[asset]
	if !ok {
		return nil, apperrors.Unavailable("no price for " + asset)
	}
	return &domain.Quote{Asset: asset, Price: p, Source: priceSourceSettings, AsOf: fixedNow}, nil
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, d *domain.MobileDeposit) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MobileDeposit), args.Error(1)
}

func (m *MockDepositRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MobileDeposit), args.Error(1)
}

func (m *MockDepositRepository) CheckNumberInUse(ctx context.Context, userID uuid.UUID, checkNumber string) (bool, error) {
	args := m.Called(ctx, userID, checkNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockDepositRepository) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDepositRepository) UpdateReview(ctx context.Context, d *domain.MobileDeposit) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDepositRepository) List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.MobileDeposit), args.Int(1), args.Error(2)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	// Drain so the caller's readers are consumed as they would be by an upload
	_, _ = io.Copy(io.Discard, body)
	return m.Called(ctx, key, size, contentType).Error(0)
}

func (m *MockImageStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// MockWireRepository is a mock implementation of WireRepository
type MockWireRepository struct {
	mock.Mock
}

func (m *MockWireRepository) Create(ctx context.Context, w *domain.WireTransfer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWireRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WireTransfer), args.Error(1)
}

func (m *MockWireRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WireTransfer), args.Error(1)
}

func (m *MockWireRepository) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWireRepository) UpdateStatus(ctx context.Context, w *domain.WireTransfer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWireRepository) List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.WireTransfer), args.Int(1), args.Error(2)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockUserRepository) GetSessionByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockUserRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

// MockAccountOpener is a mock implementation of AccountOpener
type MockAccountOpener struct {
	mock.Mock
}

func (m *MockAccountOpener) Create(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountOpener) NumberExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

// memCache is an in-memory Cache
type memCache struct {
	values map[string]any
	sets   int
}

func newMemCache() *memCache { return &memCache{values: make(map[string]any)} }

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *domain.Quote:
		*d = v.(domain.Quote)
	case *[]domain.StoredSetting:
		*d = v.([]domain.StoredSetting)
	}
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	c.sets++
	switch v := value.(type) {
	case *domain.Quote:
		c.values[key] = *v
	default:
		c.values[key] = v
	}
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}
