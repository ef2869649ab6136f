package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"tourlink/internal/data/entity"
	"tourlink/internal/data/repository"
	"tourlink/pkg/gateway"
	"tourlink/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", id, err)
	}
	return parsed
}

// memStore is a single in-memory dataset shared by all fake repositories, so
// service tests exercise real cross-repo flows without a database.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[string]*entity.Session
	tourists map[uuid.UUID]*entity.Tourist
	guides   map[uuid.UUID]*entity.Guide
	listings map[uuid.UUID]*entity.Listing
	bookings map[uuid.UUID]*entity.Booking
	payments map[uuid.UUID]*entity.Payment

	// Invoked before a conditional payment completion, so tests can slip a
	// competing write in between a service's read and its CAS update.
	beforeMarkCompleted func()

	// When set, listing lookups fail with this error.
	listingFindErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[string]*entity.Session),
		tourists: make(map[uuid.UUID]*entity.Tourist),
		guides:   make(map[uuid.UUID]*entity.Guide),
		listings: make(map[uuid.UUID]*entity.Listing),
		bookings: make(map[uuid.UUID]*entity.Booking),
		payments: make(map[uuid.UUID]*entity.Payment),
	}
}

func newMemRepository(store *memStore) *repository.Repository {
	repo := &repository.Repository{
		User:    &memUserRepo{store},
		Session: &memSessionRepo{store},
		Tourist: &memTouristRepo{store},
		Guide:   &memGuideRepo{store},
		Listing: &memListingRepo{store},
		Booking: &memBookingRepo{store},
		Payment: &memPaymentRepo{store},
	}
	repo.Tx = &memTxRunner{repo: repo}
	return repo
}

// memTxRunner runs fn against the same store. Rollback is not simulated;
// tests assert on the visible end state instead.
type memTxRunner struct {
	repo *repository.Repository
}

func (r *memTxRunner) WithinTx(ctx context.Context, fn func(r *repository.Repository) error) error {
	return fn(r.repo)
}

// ---------- users ----------

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user, ok := r.s.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

// ---------- sessions ----------

type memSessionRepo struct{ s *memStore }

func (r *memSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *session
	r.s.sessions[session.Token.String()] = &cp
	return nil
}

func (r *memSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[token]
	if !ok || session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return errRevoked
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

var errRevoked = &revokeError{}

type revokeError struct{}

func (*revokeError) Error() string { return "session not found or already revoked" }

// ---------- tourists ----------

type memTouristRepo struct{ s *memStore }

func (r *memTouristRepo) Create(ctx context.Context, tourist *entity.Tourist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *tourist
	r.s.tourists[tourist.ID] = &cp
	return nil
}

func (r *memTouristRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tourist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tourist, ok := r.s.tourists[id]; ok {
		cp := *tourist
		return &cp, nil
	}
	return nil, nil
}

func (r *memTouristRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Tourist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tourist := range r.s.tourists {
		if tourist.UserID == userID {
			cp := *tourist
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTouristRepo) IncrementToursBooked(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tourist, ok := r.s.tourists[id]
	if !ok {
		return false, nil
	}
	tourist.TotalToursBooked++
	return true, nil
}

// ---------- guides ----------

type memGuideRepo struct{ s *memStore }

func (r *memGuideRepo) Create(ctx context.Context, guide *entity.Guide) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *guide
	r.s.guides[guide.ID] = &cp
	return nil
}

func (r *memGuideRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Guide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if guide, ok := r.s.guides[id]; ok {
		cp := *guide
		return &cp, nil
	}
	return nil, nil
}

func (r *memGuideRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Guide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, guide := range r.s.guides {
		if guide.UserID == userID {
			cp := *guide
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memGuideRepo) IncrementStats(ctx context.Context, id uuid.UUID, revenue float64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	guide, ok := r.s.guides[id]
	if !ok {
		return false, nil
	}
	guide.TotalBookings++
	guide.TotalRevenue += revenue
	return true, nil
}

// ---------- listings ----------

type memListingRepo struct{ s *memStore }

func (r *memListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *listing
	r.s.listings[listing.ID] = &cp
	return nil
}

func (r *memListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listingFindErr != nil {
		return nil, r.s.listingFindErr
	}
	if listing, ok := r.s.listings[id]; ok {
		cp := *listing
		return &cp, nil
	}
	return nil, nil
}

func (r *memListingRepo) matches(listing *entity.Listing, filter repository.ListingFilter) bool {
	if !listing.IsActive || listing.DeletedAt != nil {
		return false
	}
	if filter.City != "" && listing.City != filter.City {
		return false
	}
	if filter.Country != "" && listing.Country != filter.Country {
		return false
	}
	return true
}

func (r *memListingRepo) FindActive(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Listing
	skipped := 0
	for _, listing := range r.s.listings {
		if !r.matches(listing, filter) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) >= limit {
			break
		}
		cp := *listing
		result = append(result, &cp)
	}
	return result, nil
}

func (r *memListingRepo) CountActive(ctx context.Context, filter repository.ListingFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, listing := range r.s.listings {
		if r.matches(listing, filter) {
			count++
		}
	}
	return count, nil
}

// ---------- bookings ----------

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *booking
	r.s.bookings[booking.ID] = &cp
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if booking, ok := r.s.bookings[id]; ok {
		cp := *booking
		return &cp, nil
	}
	return nil, nil
}

func (r *memBookingRepo) collect(pred func(*entity.Booking) bool, limit, offset int) []*entity.Booking {
	var result []*entity.Booking
	skipped := 0
	for _, booking := range r.s.bookings {
		if booking.DeletedAt != nil || !pred(booking) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) >= limit {
			break
		}
		cp := *booking
		result = append(result, &cp)
	}
	return result
}

func (r *memBookingRepo) tally(pred func(*entity.Booking) bool) int64 {
	var count int64
	for _, booking := range r.s.bookings {
		if booking.DeletedAt == nil && pred(booking) {
			count++
		}
	}
	return count
}

func matchesBookingFilter(b *entity.Booking, filter repository.BookingFilter) bool {
	return filter.Status == "" || b.Status == filter.Status
}

func (r *memBookingRepo) FindByTouristID(ctx context.Context, touristID uuid.UUID, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(b *entity.Booking) bool {
		return b.TouristID == touristID && matchesBookingFilter(b, filter)
	}, limit, offset), nil
}

func (r *memBookingRepo) CountByTouristID(ctx context.Context, touristID uuid.UUID, filter repository.BookingFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tally(func(b *entity.Booking) bool {
		return b.TouristID == touristID && matchesBookingFilter(b, filter)
	}), nil
}

func (r *memBookingRepo) FindByGuideID(ctx context.Context, guideID uuid.UUID, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(b *entity.Booking) bool {
		return b.GuideID == guideID && matchesBookingFilter(b, filter)
	}, limit, offset), nil
}

func (r *memBookingRepo) CountByGuideID(ctx context.Context, guideID uuid.UUID, filter repository.BookingFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tally(func(b *entity.Booking) bool {
		return b.GuideID == guideID && matchesBookingFilter(b, filter)
	}), nil
}

func (r *memBookingRepo) FindByListingID(ctx context.Context, listingID uuid.UUID, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(b *entity.Booking) bool {
		return b.ListingID == listingID && matchesBookingFilter(b, filter)
	}, limit, offset), nil
}

func (r *memBookingRepo) CountByListingID(ctx context.Context, listingID uuid.UUID, filter repository.BookingFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.tally(func(b *entity.Booking) bool {
		return b.ListingID == listingID && matchesBookingFilter(b, filter)
	}), nil
}

func (r *memBookingRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booking, ok := r.s.bookings[id]
	if !ok || booking.DeletedAt != nil || booking.Status != from {
		return false, nil
	}
	booking.Status = to
	booking.UpdatedAt = time.Now()
	return true, nil
}

func (r *memBookingRepo) CancelFrom(ctx context.Context, id uuid.UUID, from entity.BookingStatus, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booking, ok := r.s.bookings[id]
	if !ok || booking.DeletedAt != nil || booking.Status != from {
		return false, nil
	}
	booking.Status = entity.BookingStatusCancelled
	booking.CancellationReason = &reason
	booking.UpdatedAt = time.Now()
	return true, nil
}

func (r *memBookingRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if booking, ok := r.s.bookings[id]; ok {
		booking.PaymentStatus = status
		booking.UpdatedAt = time.Now()
	}
	return nil
}

// ---------- payments ----------

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.BookingID == payment.BookingID {
			return repository.ErrDuplicateBookingPayment
		}
	}
	cp := *payment
	r.s.payments[payment.ID] = &cp
	return nil
}

func (r *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if payment, ok := r.s.payments[id]; ok {
		cp := *payment
		return &cp, nil
	}
	return nil, nil
}

func (r *memPaymentRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.BookingID == bookingID {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) FindByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.GatewayPaymentIntentID != nil && *payment.GatewayPaymentIntentID == intentID {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) bookingOf(paymentBookingID uuid.UUID) *entity.Booking {
	return r.s.bookings[paymentBookingID]
}

func matchesPaymentFilter(p *entity.Payment, filter repository.PaymentFilter) bool {
	return filter.Status == "" || p.Status == filter.Status
}

func (r *memPaymentRepo) FindByTouristID(ctx context.Context, touristID uuid.UUID, filter repository.PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Payment
	for _, payment := range r.s.payments {
		if !matchesPaymentFilter(payment, filter) {
			continue
		}
		if booking := r.bookingOf(payment.BookingID); booking != nil && booking.TouristID == touristID {
			cp := *payment
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *memPaymentRepo) CountByTouristID(ctx context.Context, touristID uuid.UUID, filter repository.PaymentFilter) (int64, error) {
	payments, _ := r.FindByTouristID(ctx, touristID, filter, 0, 0)
	return int64(len(payments)), nil
}

func (r *memPaymentRepo) FindByGuideID(ctx context.Context, guideID uuid.UUID, filter repository.PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Payment
	for _, payment := range r.s.payments {
		if !matchesPaymentFilter(payment, filter) {
			continue
		}
		if booking := r.bookingOf(payment.BookingID); booking != nil && booking.GuideID == guideID {
			cp := *payment
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *memPaymentRepo) CountByGuideID(ctx context.Context, guideID uuid.UUID, filter repository.PaymentFilter) (int64, error) {
	payments, _ := r.FindByGuideID(ctx, guideID, filter, 0, 0)
	return int64(len(payments)), nil
}

func (r *memPaymentRepo) SetIntentID(ctx context.Context, bookingID uuid.UUID, intentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.BookingID == bookingID && !payment.Status.IsTerminal() {
			payment.GatewayPaymentIntentID = &intentID
			payment.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *memPaymentRepo) MarkCompletedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error) {
	if r.s.beforeMarkCompleted != nil {
		r.s.beforeMarkCompleted()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.GatewayPaymentIntentID != nil && *payment.GatewayPaymentIntentID == intentID && !payment.Status.IsTerminal() {
			now := time.Now()
			payment.Status = entity.PaymentStatusCompleted
			payment.PaidAt = &now
			payment.UpdatedAt = now
			return payment.BookingID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *memPaymentRepo) MarkFailedByIntentID(ctx context.Context, intentID string) (uuid.UUID, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.GatewayPaymentIntentID != nil && *payment.GatewayPaymentIntentID == intentID && payment.Status == entity.PaymentStatusPending {
			payment.Status = entity.PaymentStatusFailed
			payment.UpdatedAt = time.Now()
			return payment.BookingID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *memPaymentRepo) MarkRefunded(ctx context.Context, id uuid.UUID, refundAmount float64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payment, ok := r.s.payments[id]
	if !ok || payment.Status != entity.PaymentStatusCompleted {
		return false, nil
	}
	now := time.Now()
	payment.Status = entity.PaymentStatusRefunded
	payment.RefundAmount = &refundAmount
	payment.RefundedAt = &now
	payment.UpdatedAt = now
	return true, nil
}

// ---------- payment gateway ----------

const testWebhookSecret = "whsec_test_secret"

type fakeGateway struct {
	mu           sync.Mutex
	checkouts    []gateway.CheckoutParams
	refunds      []gateway.RefundParams
	failCheckout bool
	failRefund   bool
	nextSession  int
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (*gateway.CheckoutSessionRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCheckout {
		return nil, errGatewayDown
	}
	g.checkouts = append(g.checkouts, params)
	g.nextSession++
	id := "cs_test_" + uuid.NewString()
	return &gateway.CheckoutSessionRef{
		ID:  id,
		URL: "https://checkout.example.com/" + id,
	}, nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, params gateway.RefundParams) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefund {
		return nil, errGatewayDown
	}
	g.refunds = append(g.refunds, params)
	return &gateway.Refund{ID: "re_test_" + uuid.NewString(), Status: "succeeded"}, nil
}

func (g *fakeGateway) VerifyWebhookSignature(rawBody []byte, header string) bool {
	return gateway.VerifySignature(rawBody, header, testWebhookSecret)
}

var errGatewayDown = &gatewayError{}

type gatewayError struct{}

func (*gatewayError) Error() string { return "gateway unreachable" }

// ---------- fixture ----------

type fixture struct {
	store   *memStore
	repo    *repository.Repository
	gateway *fakeGateway
	config  *utils.Config
	svc     *Service
}

func newFixture() *fixture {
	store := newMemStore()
	repo := newMemRepository(store)
	gw := &fakeGateway{}
	config := &utils.Config{
		App: utils.AppConfig{
			Name:        "tourlink-test",
			FrontendURL: "https://app.example.com",
		},
		Session: utils.SessionConfig{ExpiryHours: 24},
	}

	return &fixture{
		store:   store,
		repo:    repo,
		gateway: gw,
		config:  config,
		svc:     NewService(repo, config, gw, zap.NewNop()),
	}
}

func (f *fixture) seedTourist() (*entity.User, *entity.Tourist) {
	now := time.Now()
	user := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         "Ana Tourist",
		Email:        "ana" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         entity.RoleTourist,
		IsActive:     true,
	}
	tourist := &entity.Tourist{
		Base:   entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID: user.ID,
		Name:   user.Name,
	}
	f.repo.User.Create(context.Background(), user)
	f.repo.Tourist.Create(context.Background(), tourist)
	return user, tourist
}

func (f *fixture) seedGuide() (*entity.User, *entity.Guide) {
	now := time.Now()
	user := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         "Gio Guide",
		Email:        "gio" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         entity.RoleGuide,
		IsActive:     true,
	}
	guide := &entity.Guide{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:  user.ID,
		Name:    user.Name,
		City:    "Lisbon",
		Country: "Portugal",
	}
	f.repo.User.Create(context.Background(), user)
	f.repo.Guide.Create(context.Background(), guide)
	return user, guide
}

func (f *fixture) seedListing(guide *entity.Guide, price float64, maxGroup int) *entity.Listing {
	now := time.Now()
	listing := &entity.Listing{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		GuideID:        guide.ID,
		Title:          "Old Town Walking Tour",
		Description:    "Three hours through the historic center.",
		City:           guide.City,
		Country:        guide.Country,
		PricePerPerson: price,
		MaxGroupSize:   maxGroup,
		DurationHours:  3,
		MeetingPoint:   "Main square fountain",
		IsActive:       true,
	}
	f.repo.Listing.Create(context.Background(), listing)
	return listing
}

func (f *fixture) seedBooking(tourist *entity.Tourist, guide *entity.Guide, listing *entity.Listing, status entity.BookingStatus) *entity.Booking {
	now := time.Now()
	booking := &entity.Booking{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TouristID:      tourist.ID,
		GuideID:        guide.ID,
		ListingID:      listing.ID,
		BookingDate:    now.Add(72 * time.Hour),
		NumberOfPeople: 2,
		TotalAmount:    listing.PricePerPerson * 2,
		Status:         status,
		PaymentStatus:  entity.PaymentStatusPending,
	}
	f.repo.Booking.Create(context.Background(), booking)
	return booking
}

func (f *fixture) seedPayment(booking *entity.Booking, status entity.PaymentStatus, intentID string) *entity.Payment {
	now := time.Now()
	checkoutURL := "https://checkout.example.com/cs_seed"
	payment := &entity.Payment{
		Base:             entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingID:        booking.ID,
		Amount:           booking.TotalAmount,
		Currency:         "usd",
		GatewaySessionID: "cs_seed_" + uuid.NewString()[:8],
		CheckoutURL:      &checkoutURL,
		Status:           status,
	}
	if intentID != "" {
		payment.GatewayPaymentIntentID = &intentID
	}
	if status == entity.PaymentStatusCompleted {
		payment.PaidAt = &now
	}
	f.repo.Payment.Create(context.Background(), payment)
	return payment
}
