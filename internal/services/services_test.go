package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"locshare/internal/storage"
	"locshare/internal/storage/sqlitetest"
)

// publishedRecord is one call to recordingProducer.Publish.
type publishedRecord struct {
	topic   string
	key     []byte
	payload []byte
}

type recordingProducer struct {
	mu      sync.Mutex
	records []publishedRecord
	err     error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, publishedRecord{topic: topic, key: key, payload: payload})
	return p.err
}

func (p *recordingProducer) Close() {}

func (p *recordingProducer) published() []publishedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedRecord(nil), p.records...)
}

const testLedgerTopic = "ledger-test"

type testEnv struct {
	db        *gorm.DB
	producer  *recordingProducer
	users     UserService
	friends   FriendService
	tokens    TokenService
	locations LocationService
	shareRepo storage.LocationShareRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := sqlitetest.NewDB(t)
	producer := &recordingProducer{}
	userRepo := storage.NewGormUserRepository(db)
	friendRepo := storage.NewGormFriendRepository(db)
	shareRepo := storage.NewGormLocationShareRepository(db)

	return &testEnv{
		db:        db,
		producer:  producer,
		users:     NewUserService(userRepo),
		friends:   NewFriendService(userRepo, friendRepo),
		tokens:    NewTokenService(db, storage.NewGormTokenRepository(db), producer, testLedgerTopic),
		locations: NewLocationService(db, userRepo, friendRepo, shareRepo, producer, testLedgerTopic, 0),
		shareRepo: shareRepo,
	}
}
