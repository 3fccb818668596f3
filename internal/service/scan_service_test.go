package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockcount-service/internal/models"
	"stockcount-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanStore struct {
	appendErr error
	appended  []*models.ScanEvent
}

func (f *fakeScanStore) AppendScan(ctx context.Context, ev *models.ScanEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, ev)
	return nil
}

func (f *fakeScanStore) GetScansByInvoice(ctx context.Context, invoiceNumber string) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	for _, ev := range f.appended {
		if ev.InvoiceNumber == invoiceNumber {
			events = append(events, *ev)
		}
	}
	return events, nil
}

func (f *fakeScanStore) ClearScans(ctx context.Context, invoiceNumber string) (int64, error) {
	kept := f.appended[:0]
	var cleared int64
	for _, ev := range f.appended {
		if ev.InvoiceNumber == invoiceNumber {
			cleared++
			continue
		}
		kept = append(kept, ev)
	}
	f.appended = kept
	return cleared, nil
}

type fakeScanCache struct {
	claims       map[string]bool
	released     []string
	scanCount    int64
	lastActivity time.Time
	activityErr  error
}

func newFakeScanCache() *fakeScanCache {
	return &fakeScanCache{claims: make(map[string]bool)}
}

func (f *fakeScanCache) ClaimScanKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeScanCache) ReleaseScanKey(ctx context.Context, key string) error {
	delete(f.claims, key)
	f.released = append(f.released, key)
	return nil
}

func (f *fakeScanCache) GetActivity(ctx context.Context, invoiceNumber string) (int64, time.Time, error) {
	if f.activityErr != nil {
		return 0, time.Time{}, f.activityErr
	}
	return f.scanCount, f.lastActivity, nil
}

func (f *fakeScanCache) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeScanCache) ReleaseLock(ctx context.Context, lockKey string) error {
	return nil
}

type fakeEventPublisher struct {
	scanEvents   []*models.ScanRecordedEvent
	closedEvents []*models.SessionClosedEvent
}

func (f *fakeEventPublisher) PublishScanRecorded(ctx context.Context, event *models.ScanRecordedEvent) error {
	f.scanEvents = append(f.scanEvents, event)
	return nil
}

func (f *fakeEventPublisher) PublishSessionClosed(ctx context.Context, event *models.SessionClosedEvent) error {
	f.closedEvents = append(f.closedEvents, event)
	return nil
}

func newTestScanService(st *fakeScanStore, cache *fakeScanCache) *ScanService {
	return &ScanService{
		store:          st,
		redis:          cache,
		eventPublisher: &fakeEventPublisher{},
		logger:         util.GetLogger(),
		dedupeTTL:      time.Hour,
		closeLockTTL:   30 * time.Second,
	}
}

func TestValidateScanRejections(t *testing.T) {
	cases := []struct {
		name string
		req  RecordScanRequest
		want error
	}{
		{"empty barcode", RecordScanRequest{InvoiceNumber: "001", UserID: "u1", Barcode: "", Quantity: 5}, ErrEmptyBarcode},
		{"zero quantity", RecordScanRequest{InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: 0}, ErrNonPositiveQuantity},
		{"negative quantity", RecordScanRequest{InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: -3}, ErrNonPositiveQuantity},
		{"empty invoice", RecordScanRequest{InvoiceNumber: "", UserID: "u1", Barcode: "123", Quantity: 1}, ErrEmptyInvoiceNumber},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateScan(&tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateScanAccepts(t *testing.T) {
	req := RecordScanRequest{InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: 0.5}
	assert.NoError(t, validateScan(&req))
}

func TestRecordScanRejectionLeavesLedgerUntouched(t *testing.T) {
	st := &fakeScanStore{}
	s := newTestScanService(st, newFakeScanCache())

	ev, err := s.RecordScan(context.Background(), &RecordScanRequest{
		InvoiceNumber: "001", UserID: "u1", Barcode: "", Quantity: 5,
	})
	assert.ErrorIs(t, err, ErrEmptyBarcode)
	assert.Nil(t, ev)

	ev, err = s.RecordScan(context.Background(), &RecordScanRequest{
		InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrNonPositiveQuantity)
	assert.Nil(t, ev)

	assert.Empty(t, st.appended)
}

func TestRecordScanDeduplicatesRetries(t *testing.T) {
	st := &fakeScanStore{}
	s := newTestScanService(st, newFakeScanCache())

	req := &RecordScanRequest{
		InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: 2,
		IdempotencyKey: "device-1-42",
	}

	ev, err := s.RecordScan(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, ev)

	_, err = s.RecordScan(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateScan)
	assert.Len(t, st.appended, 1)
}

func TestRecordScanReleasesIdempotencyKeyOnAppendFailure(t *testing.T) {
	// A failed INSERT must not leave the idempotency claim standing:
	// the device's retry has to reach the ledger, not bounce as a
	// duplicate while nothing was stored.
	st := &fakeScanStore{appendErr: errors.New("connection reset")}
	cache := newFakeScanCache()
	s := newTestScanService(st, cache)

	req := &RecordScanRequest{
		InvoiceNumber: "001", UserID: "u1", Barcode: "123", Quantity: 2,
		IdempotencyKey: "device-1-42",
	}

	_, err := s.RecordScan(context.Background(), req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateScan)
	assert.Equal(t, []string{"device-1-42"}, cache.released)

	st.appendErr = nil
	ev, err := s.RecordScan(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Len(t, st.appended, 1)
}

func TestActivityReadsLiveCache(t *testing.T) {
	cache := newFakeScanCache()
	cache.scanCount = 3
	cache.lastActivity = time.Unix(200, 0)
	s := newTestScanService(&fakeScanStore{}, cache)

	count, last, err := s.Activity(context.Background(), "001")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, time.Unix(200, 0), last)
}

func TestActivityRequiresInvoiceNumber(t *testing.T) {
	s := newTestScanService(&fakeScanStore{}, newFakeScanCache())

	_, _, err := s.Activity(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInvoiceNumber)
}

func TestCloseSessionRequiresInvoiceNumber(t *testing.T) {
	s := &ScanService{}

	_, err := s.CloseSession(context.Background(), "", "u1")
	assert.ErrorIs(t, err, ErrEmptyInvoiceNumber)
}

func TestCloseSessionClearsOnlyTargetInvoice(t *testing.T) {
	st := &fakeScanStore{}
	s := newTestScanService(st, newFakeScanCache())

	for _, invoice := range []string{"001", "001", "002"} {
		_, err := s.RecordScan(context.Background(), &RecordScanRequest{
			InvoiceNumber: invoice, UserID: "u1", Barcode: "123", Quantity: 1,
		})
		require.NoError(t, err)
	}

	cleared, err := s.CloseSession(context.Background(), "001", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	remaining, err := s.EventsFor(context.Background(), "002")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
