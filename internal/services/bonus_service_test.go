package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/lavanda/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.BonusHistoryEntry{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, balance int, level string, lifetimeSpend float64) *models.User {
	t.Helper()

	user := models.User{
		Phone:         "+7916" + uuid.NewString()[:7],
		BonusBalance:  balance,
		BonusLevel:    level,
		LifetimeSpend: lifetimeSpend,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func ledgerEntries(t *testing.T, db *gorm.DB, userID uuid.UUID) []models.BonusHistoryEntry {
	t.Helper()

	var entries []models.BonusHistoryEntry
	if err := db.Where("user_id = ?", userID).Order("created_at asc").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	return entries
}

func reloadUser(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	return &user
}

func TestCreditFloorsCashback(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelBronze, 0)

	// 2.5% of 1999 is 49.975, floored to 49.
	amount, err := svc.Credit(user.ID, 1999, uuid.New())
	if err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}
	if amount != 49 {
		t.Errorf("credit amount = %d, want 49", amount)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 49 {
		t.Errorf("balance = %d, want 49", got.BonusBalance)
	}
	if got.LifetimeSpend != 1999 {
		t.Errorf("lifetime spend = %v, want 1999", got.LifetimeSpend)
	}

	entries := ledgerEntries(t, db, user.ID)
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].Reason != models.BonusReasonOrder || entries[0].Amount != 49 {
		t.Errorf("entry = %+v, want order/+49", entries[0])
	}
}

func TestCreditPercentByLevel(t *testing.T) {
	tests := []struct {
		level string
		total float64
		want  int
	}{
		{models.LevelBronze, 1000, 25},
		{models.LevelSilver, 1000, 50},
		{models.LevelGold, 1000, 75},
		{models.LevelPlatinum, 1000, 100},
		{models.LevelPremium, 1000, 150},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			db := openTestDB(t)
			svc := NewBonusService(db, 6)
			user := createTestUser(t, db, 0, tt.level, 0)

			amount, err := svc.Credit(user.ID, tt.total, uuid.New())
			if err != nil {
				t.Fatalf("Credit returned error: %v", err)
			}
			if amount != tt.want {
				t.Errorf("credit for %s = %d, want %d", tt.level, amount, tt.want)
			}
		})
	}
}

func TestCreditUpgradesLevel(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelBronze, 9500)

	// Crossing the 10000 threshold promotes to silver. The cashback for
	// this order still uses the level held before the purchase.
	amount, err := svc.Credit(user.ID, 1000, uuid.New())
	if err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}
	if amount != 25 {
		t.Errorf("credit amount = %d, want 25 (bronze rate)", amount)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusLevel != models.LevelSilver {
		t.Errorf("level = %q, want silver", got.BonusLevel)
	}
	if got.LifetimeSpend != 10500 {
		t.Errorf("lifetime spend = %v, want 10500", got.LifetimeSpend)
	}
}

func TestCreditNeverDowngrades(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	// Admin granted premium even though the spend only qualifies for bronze.
	user := createTestUser(t, db, 0, models.LevelPremium, 100)

	if _, err := svc.Credit(user.ID, 500, uuid.New()); err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusLevel != models.LevelPremium {
		t.Errorf("level = %q, want premium to stick", got.BonusLevel)
	}
}

func TestCreditIsIdempotentPerOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelGold, 25000)
	orderID := uuid.New()

	if _, err := svc.Credit(user.ID, 2000, orderID); err != nil {
		t.Fatalf("first Credit returned error: %v", err)
	}
	if _, err := svc.Credit(user.ID, 2000, orderID); err != ErrAlreadyCredited {
		t.Fatalf("second Credit = %v, want ErrAlreadyCredited", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 150 {
		t.Errorf("balance = %d, want 150 after a single credit", got.BonusBalance)
	}
	if entries := ledgerEntries(t, db, user.ID); len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
}

func TestCreditZeroCashbackStillMarksOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelBronze, 0)
	orderID := uuid.New()

	// 2.5% of 10 floors to zero, but the order still counts as credited.
	amount, err := svc.Credit(user.ID, 10, orderID)
	if err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}
	if amount != 0 {
		t.Errorf("credit amount = %d, want 0", amount)
	}

	if _, err := svc.Credit(user.ID, 10, orderID); err != ErrAlreadyCredited {
		t.Fatalf("repeated Credit = %v, want ErrAlreadyCredited", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.LifetimeSpend != 10 {
		t.Errorf("lifetime spend = %v, want a single bump to 10", got.LifetimeSpend)
	}
	if got.BonusBalance != 0 {
		t.Errorf("balance = %d, want 0", got.BonusBalance)
	}
	if entries := ledgerEntries(t, db, user.ID); len(entries) != 1 {
		t.Errorf("ledger entries = %d, want the single marker row", len(entries))
	}
}

func TestDebitRoundTrip(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelSilver, 15000)
	orderID := uuid.New()

	if _, err := svc.Credit(user.ID, 2000, orderID); err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}
	redeemOrder := uuid.New()
	if err := svc.Debit(user.ID, 60, &redeemOrder); err != nil {
		t.Fatalf("Debit returned error: %v", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 40 {
		t.Errorf("balance = %d, want 40", got.BonusBalance)
	}

	// The ledger sums to the cached balance.
	entries := ledgerEntries(t, db, user.ID)
	sum := 0
	for _, e := range entries {
		sum += e.Amount
	}
	if sum != got.BonusBalance {
		t.Errorf("ledger sum = %d, balance = %d; must match", sum, got.BonusBalance)
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 10, models.LevelBronze, 0)

	err := svc.Debit(user.ID, 50, nil)
	if err != ErrInsufficientBalance {
		t.Fatalf("Debit = %v, want ErrInsufficientBalance", err)
	}

	// Refused debits leave no trace.
	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 10 {
		t.Errorf("balance = %d, want untouched 10", got.BonusBalance)
	}
	if entries := ledgerEntries(t, db, user.ID); len(entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(entries))
	}
}

func TestDebitUnknownUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)

	if err := svc.Debit(uuid.New(), 10, nil); err != gorm.ErrRecordNotFound {
		t.Fatalf("Debit = %v, want ErrRecordNotFound", err)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 100, models.LevelBronze, 0)

	if err := svc.Debit(user.ID, 0, nil); err == nil {
		t.Error("Debit(0) should fail")
	}
	if err := svc.Debit(user.ID, -5, nil); err == nil {
		t.Error("Debit(-5) should fail")
	}
}

func TestExpireStaleReversesOldCredits(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 100, models.LevelBronze, 0)

	orderID := uuid.New()
	stale := models.BonusHistoryEntry{
		BaseModel: models.BaseModel{CreatedAt: time.Now().AddDate(0, -7, 0)},
		UserID:    user.ID,
		Amount:    100,
		Reason:    models.BonusReasonOrder,
		OrderID:   &orderID,
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed stale credit: %v", err)
	}

	count, err := svc.ExpireStale(user.ID)
	if err != nil {
		t.Fatalf("ExpireStale returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("expired count = %d, want 1", count)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 0 {
		t.Errorf("balance = %d, want 0", got.BonusBalance)
	}

	entries := ledgerEntries(t, db, user.ID)
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want credit plus offset", len(entries))
	}
	var offset *models.BonusHistoryEntry
	for i := range entries {
		if entries[i].Reason == models.BonusReasonExpired {
			offset = &entries[i]
		}
	}
	if offset == nil || offset.Amount != -100 {
		t.Fatalf("missing -100 expired offset, entries: %+v", entries)
	}

	// Second sweep finds nothing: the credit is stamped.
	count, err = svc.ExpireStale(user.ID)
	if err != nil {
		t.Fatalf("second ExpireStale returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep expired %d, want 0", count)
	}
}

func TestExpireStaleCapsAtBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	// 100 were credited long ago but 70 have since been spent.
	user := createTestUser(t, db, 30, models.LevelBronze, 0)

	stale := models.BonusHistoryEntry{
		BaseModel: models.BaseModel{CreatedAt: time.Now().AddDate(0, -8, 0)},
		UserID:    user.ID,
		Amount:    100,
		Reason:    models.BonusReasonOrder,
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed stale credit: %v", err)
	}

	if _, err := svc.ExpireStale(user.ID); err != nil {
		t.Fatalf("ExpireStale returned error: %v", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 0 {
		t.Errorf("balance = %d, want 0 and never negative", got.BonusBalance)
	}
}

func TestExpireStaleIgnoresFreshCredits(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelBronze, 0)

	if _, err := svc.Credit(user.ID, 4000, uuid.New()); err != nil {
		t.Fatalf("Credit returned error: %v", err)
	}

	count, err := svc.ExpireStale(user.ID)
	if err != nil {
		t.Fatalf("ExpireStale returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expired count = %d, want 0 for fresh credits", count)
	}
}

func TestSetLevel(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 0, models.LevelBronze, 0)

	if err := svc.SetLevel(user.ID, models.LevelPlatinum); err != nil {
		t.Fatalf("SetLevel returned error: %v", err)
	}
	if got := reloadUser(t, db, user.ID); got.BonusLevel != models.LevelPlatinum {
		t.Errorf("level = %q, want platinum", got.BonusLevel)
	}

	if err := svc.SetLevel(user.ID, "diamond"); err != ErrUnknownLevel {
		t.Errorf("SetLevel(diamond) = %v, want ErrUnknownLevel", err)
	}
	if err := svc.SetLevel(uuid.New(), models.LevelGold); err != gorm.ErrRecordNotFound {
		t.Errorf("SetLevel(unknown user) = %v, want ErrRecordNotFound", err)
	}
}

func TestAdjust(t *testing.T) {
	db := openTestDB(t)
	svc := NewBonusService(db, 6)
	user := createTestUser(t, db, 50, models.LevelBronze, 0)

	if err := svc.Adjust(user.ID, 100, "goodwill"); err != nil {
		t.Fatalf("positive Adjust returned error: %v", err)
	}
	if err := svc.Adjust(user.ID, -30, ""); err != nil {
		t.Fatalf("negative Adjust returned error: %v", err)
	}

	got := reloadUser(t, db, user.ID)
	if got.BonusBalance != 120 {
		t.Errorf("balance = %d, want 120", got.BonusBalance)
	}

	if err := svc.Adjust(user.ID, 0, "noop"); err != ErrZeroAdjustment {
		t.Errorf("Adjust(0) = %v, want ErrZeroAdjustment", err)
	}
	if err := svc.Adjust(user.ID, -10000, "drain"); err != ErrInsufficientBalance {
		t.Errorf("overdraft Adjust = %v, want ErrInsufficientBalance", err)
	}

	entries := ledgerEntries(t, db, user.ID)
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Amount == -30 && e.Reason != models.BonusReasonAdjustment {
			t.Errorf("blank reason should default to %q, got %q",
				models.BonusReasonAdjustment, e.Reason)
		}
	}
}
