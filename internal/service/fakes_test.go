package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		AIDailyLimit:           3,
		PremiumPackagePrice:    100,
		PremiumPackageRequests: 50,
		AdminUserID:            999,
	}
}

type fakeSettingsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.Setting
	getErr    error
	upsertErr error
	getCalls  int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{rows: make(map[string]models.Setting)}
}

func (r *fakeSettingsRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, setting *models.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[setting.Key] = *setting
	return nil
}

func (r *fakeSettingsRepo) List(ctx context.Context) ([]models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Setting, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

type fakePremiumRepo struct {
	mu         sync.Mutex
	accounts   map[int64]*models.PremiumAccount
	getErr     error
	addErr     error
	consumeErr error
}

func newFakePremiumRepo() *fakePremiumRepo {
	return &fakePremiumRepo{accounts: make(map[int64]*models.PremiumAccount)}
}

func (r *fakePremiumRepo) Get(ctx context.Context, userID int64) (*models.PremiumAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	account, ok := r.accounts[userID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *fakePremiumRepo) AddRequests(ctx context.Context, userID int64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	account, ok := r.accounts[userID]
	if !ok {
		account = &models.PremiumAccount{UserID: userID, CreatedAt: time.Now()}
		r.accounts[userID] = account
	}
	account.RequestsCount += count
	account.TotalPurchased += count
	return nil
}

func (r *fakePremiumRepo) ConsumeRequest(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumeErr != nil {
		return false, r.consumeErr
	}
	account, ok := r.accounts[userID]
	if !ok || account.RequestsCount <= 0 {
		return false, nil
	}
	account.RequestsCount--
	account.TotalUsed++
	return true, nil
}

type fakeUsageRepo struct {
	mu       sync.Mutex
	counts   map[string]int
	countErr error
	incErr   error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int)}
}

func usageKey(userID int64, day time.Time) string {
	return fmt.Sprintf("%d|%s", userID, day.UTC().Format("2006-01-02"))
}

func (r *fakeUsageRepo) CountForDay(ctx context.Context, userID int64, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.counts[usageKey(userID, day)], nil
}

func (r *fakeUsageRepo) Increment(ctx context.Context, userID int64, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incErr != nil {
		return r.incErr
	}
	r.counts[usageKey(userID, day)]++
	return nil
}

type fakeTxnRepo struct {
	mu        sync.Mutex
	stars     map[string]*models.StarTransaction
	donations map[string]*models.Donation
	purchases map[string]*models.PremiumPurchase
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{
		stars:     make(map[string]*models.StarTransaction),
		donations: make(map[string]*models.Donation),
		purchases: make(map[string]*models.PremiumPurchase),
	}
}

func (r *fakeTxnRepo) FindStarTransaction(ctx context.Context, chargeID string) (*models.StarTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.stars[chargeID]
	if !ok {
		return nil, nil
	}
	copied := *txn
	return &copied, nil
}

func (r *fakeTxnRepo) CreateStarTransaction(ctx context.Context, txn *models.StarTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *txn
	r.stars[txn.ChargeID] = &copied
	return nil
}

func (r *fakeTxnRepo) DeleteStarTransaction(ctx context.Context, chargeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stars, chargeID)
	return nil
}

func (r *fakeTxnRepo) CreateDonation(ctx context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *donation
	r.donations[donation.PaymentID] = &copied
	return nil
}

func (r *fakeTxnRepo) CreatePremiumPurchase(ctx context.Context, purchase *models.PremiumPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *purchase
	r.purchases[purchase.PaymentID] = &copied
	return nil
}

func (r *fakeTxnRepo) CompleteDonation(ctx context.Context, paymentID, status, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	donation, ok := r.donations[paymentID]
	if !ok || donation.PaymentStatus != "pending" {
		return false, nil
	}
	donation.PaymentStatus = status
	return true, nil
}

func (r *fakeTxnRepo) CompletePurchase(ctx context.Context, paymentID string) (*models.PremiumPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.purchases[paymentID]
	if !ok || purchase.PaymentStatus != "pending" {
		return nil, nil
	}
	purchase.PaymentStatus = "completed"
	copied := *purchase
	return &copied, nil
}

func (r *fakeTxnRepo) ReopenPurchase(ctx context.Context, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if purchase, ok := r.purchases[paymentID]; ok && purchase.PaymentStatus == "completed" {
		purchase.PaymentStatus = "pending"
	}
	return nil
}

func (r *fakeTxnRepo) MarkPurchaseFailed(ctx context.Context, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if purchase, ok := r.purchases[paymentID]; ok {
		purchase.PaymentStatus = "failed"
	}
	return nil
}

type fakeBookmarkRepo struct {
	mu     sync.Mutex
	rows   []*models.Bookmark
	nextID int64
	err    error
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{nextID: 1}
}

func (r *fakeBookmarkRepo) List(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Bookmark, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeBookmarkRepo) Find(ctx context.Context, userID int64, reference string) (*models.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, row := range r.rows {
		if row.UserID == userID && row.Reference == reference {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeBookmarkRepo) Create(ctx context.Context, bookmark *models.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	bookmark.ID = r.nextID
	r.nextID++
	copied := *bookmark
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeBookmarkRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for i, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
