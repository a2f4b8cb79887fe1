package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/samirrijal/ridepool/internal/core/domain"
	"github.com/samirrijal/ridepool/internal/core/ports"
	"github.com/samirrijal/ridepool/internal/core/usecases"
)

func newRideService(store *memStore, notifier *recordingNotifier) *usecases.RideService {
	rides := &memRideRepo{s: store}
	bookings := &memBookingRepo{s: store}
	cascade := usecases.NewCascade(bookings, rides, notifier)
	return usecases.NewRideService(rides, bookings, cascade, notifier, nil)
}

func validRide() *domain.Ride {
	return &domain.Ride{
		DepartureCity:   "Albany",
		DestinationCity: "New York",
		DepartureState:  "NY",
		DepartureTime:   time.Now().Add(48 * time.Hour),
		TotalSeats:      3,
		FarePerSeat:     20,
	}
}

// --- Create ---

func TestCreateRide_Success(t *testing.T) {
	store := newMemStore()
	svc := newRideService(store, &recordingNotifier{})

	ride, err := svc.Create(context.Background(), "driver-1", validRide())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideScheduled {
		t.Errorf("expected SCHEDULED, got %s", ride.Status)
	}
	if ride.AvailableSeats != ride.TotalSeats {
		t.Errorf("available seats %d should equal total %d", ride.AvailableSeats, ride.TotalSeats)
	}
	if ride.DriverID != "driver-1" {
		t.Errorf("driver id not set: %q", ride.DriverID)
	}
}

func TestCreateRide_Validation(t *testing.T) {
	svc := newRideService(newMemStore(), &recordingNotifier{})

	cases := []struct {
		name   string
		mutate func(*domain.Ride)
	}{
		{"zero seats", func(r *domain.Ride) { r.TotalSeats = 0 }},
		{"negative seats", func(r *domain.Ride) { r.TotalSeats = -2 }},
		{"negative fare", func(r *domain.Ride) { r.FarePerSeat = -1 }},
		{"past departure", func(r *domain.Ride) { r.DepartureTime = time.Now().Add(-time.Hour) }},
		{"zero departure", func(r *domain.Ride) { r.DepartureTime = time.Time{} }},
		{"missing destination", func(r *domain.Ride) { r.DestinationCity = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ride := validRide()
			tc.mutate(ride)
			_, err := svc.Create(context.Background(), "driver-1", ride)
			if !domain.IsKind(err, domain.KindInvalidArgument) {
				t.Fatalf("expected invalid_argument, got %v", err)
			}
		})
	}
}

// --- Lifecycle transitions ---

func TestStartRide(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 3)
	svc := newRideService(store, &recordingNotifier{})

	ride, err := svc.Start(context.Background(), "r1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideActive {
		t.Errorf("expected ACTIVE, got %s", ride.Status)
	}

	// Starting twice is an illegal transition.
	if _, err := svc.Start(context.Background(), "r1", "driver-1"); !domain.IsKind(err, domain.KindIllegalState) {
		t.Fatalf("expected illegal_state on double start, got %v", err)
	}
}

func TestStartRide_NotOwner(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 3)
	svc := newRideService(store, &recordingNotifier{})

	if _, err := svc.Start(context.Background(), "r1", "driver-2"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestStartRide_NotFound(t *testing.T) {
	svc := newRideService(newMemStore(), &recordingNotifier{})

	if _, err := svc.Start(context.Background(), "missing", "driver-1"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCompleteRide_RequiresActive(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 3)
	svc := newRideService(store, &recordingNotifier{})

	if _, err := svc.Complete(context.Background(), "r1", "driver-1"); !domain.IsKind(err, domain.KindIllegalState) {
		t.Fatalf("expected illegal_state on completing a scheduled ride, got %v", err)
	}

	if _, err := svc.Start(context.Background(), "r1", "driver-1"); err != nil {
		t.Fatal(err)
	}
	ride, err := svc.Complete(context.Background(), "r1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideCompleted {
		t.Errorf("expected COMPLETED, got %s", ride.Status)
	}
}

// TestCompleteRide_Cascade walks the full happy path: two passengers book,
// one gets confirmed, the driver starts and completes the ride. The
// confirmed booking completes, the ignored one expires and its seats
// come back.
func TestCompleteRide_Cascade(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	notifier := &recordingNotifier{}
	rideSvc := newRideService(store, notifier)
	bookingSvc := newBookingService(store, notifier)

	confirmed, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	ignored, err := bookingSvc.Request(context.Background(), "r1", "pass-2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bookingSvc.Confirm(context.Background(), confirmed.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := rideSvc.Start(context.Background(), "r1", "driver-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := rideSvc.Complete(context.Background(), "r1", "driver-1"); err != nil {
		t.Fatal(err)
	}

	if got := store.booking(confirmed.ID).Status; got != domain.BookingCompleted {
		t.Errorf("confirmed booking: expected COMPLETED, got %s", got)
	}
	if got := store.booking(ignored.ID).Status; got != domain.BookingExpired {
		t.Errorf("ignored booking: expected EXPIRED, got %s", got)
	}
	// Only the expired request's seat is released.
	if got := store.ride("r1").AvailableSeats; got != 2 {
		t.Errorf("expected 2 seats available after completion, got %d", got)
	}
	if len(notifier.byEvent(domain.EventBookingCompleted)) != 1 {
		t.Error("completed passenger was not notified")
	}
	if len(notifier.byEvent(domain.EventBookingExpired)) != 1 {
		t.Error("expired passenger was not notified")
	}
}

func TestCancelRide_Cascade(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	notifier := &recordingNotifier{}
	rideSvc := newRideService(store, notifier)
	bookingSvc := newBookingService(store, notifier)

	b1, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := bookingSvc.Request(context.Background(), "r1", "pass-2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bookingSvc.Confirm(context.Background(), b1.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}

	ride, err := rideSvc.Cancel(context.Background(), "r1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideCancelledByDriver {
		t.Errorf("expected CANCELLED_BY_DRIVER, got %s", ride.Status)
	}
	for _, id := range []string{b1.ID, b2.ID} {
		if got := store.booking(id).Status; got != domain.BookingCancelledByDriver {
			t.Errorf("booking %s: expected CANCELLED_BY_DRIVER, got %s", id, got)
		}
	}
	if got := store.ride("r1").AvailableSeats; got != 4 {
		t.Errorf("all seats should be released, available=%d", got)
	}
	if len(notifier.byEvent(domain.EventBookingCancelled)) != 2 {
		t.Error("both passengers should be notified of the cancellation")
	}
}

func TestCancelRide_Idempotent(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 3)
	svc := newRideService(store, &recordingNotifier{})

	if _, err := svc.Cancel(context.Background(), "r1", "driver-1"); err != nil {
		t.Fatal(err)
	}
	ride, err := svc.Cancel(context.Background(), "r1", "driver-1")
	if err != nil {
		t.Fatalf("second cancel must be a no-op, got %v", err)
	}
	if ride.Status != domain.RideCancelledByDriver {
		t.Errorf("expected CANCELLED_BY_DRIVER, got %s", ride.Status)
	}
}

func TestCancelRide_Completed(t *testing.T) {
	store := newMemStore()
	ride := scheduledRide(store, "r1", "driver-1", 3)
	ride.Status = domain.RideCompleted
	store.putRide(ride)
	svc := newRideService(store, &recordingNotifier{})

	if _, err := svc.Cancel(context.Background(), "r1", "driver-1"); !domain.IsKind(err, domain.KindIllegalState) {
		t.Fatalf("expected illegal_state, got %v", err)
	}
}

// --- Update ---

func TestUpdateRide_SignificantChangeNotifies(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	notifier := &recordingNotifier{}
	rideSvc := newRideService(store, notifier)
	bookingSvc := newBookingService(store, notifier)

	if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 1); err != nil {
		t.Fatal(err)
	}

	newTime := time.Now().Add(72 * time.Hour)
	ride, err := rideSvc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{
		DepartureTime: &newTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ride.DepartureTime.Equal(newTime) {
		t.Errorf("departure time not updated")
	}
	if len(notifier.byEvent(domain.EventRideUpdated)) != 1 {
		t.Error("passenger should be notified of a schedule change")
	}
}

func TestUpdateRide_CosmeticChangeSilent(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	notifier := &recordingNotifier{}
	rideSvc := newRideService(store, notifier)
	bookingSvc := newBookingService(store, notifier)

	if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 1); err != nil {
		t.Fatal(err)
	}

	notes := "meet at the north parking lot"
	if _, err := rideSvc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{
		Notes: &notes,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.byEvent(domain.EventRideUpdated)) != 0 {
		t.Error("a notes change should not notify passengers")
	}
}

func TestUpdateRide_SeatShrinkBelowBooked(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	rideSvc := newRideService(store, &recordingNotifier{})
	bookingSvc := newBookingService(store, &recordingNotifier{})

	if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 3); err != nil {
		t.Fatal(err)
	}

	two := 2
	_, err := rideSvc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{TotalSeats: &two})
	if !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestUpdateRide_SeatGrowKeepsBookedCount(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	rideSvc := newRideService(store, &recordingNotifier{})
	bookingSvc := newBookingService(store, &recordingNotifier{})

	if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 3); err != nil {
		t.Fatal(err)
	}

	six := 6
	ride, err := rideSvc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{TotalSeats: &six})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.TotalSeats != 6 || ride.AvailableSeats != 3 {
		t.Errorf("expected 6 total / 3 available, got %d / %d", ride.TotalSeats, ride.AvailableSeats)
	}
}

func TestUpdateRide_AvailableSeatsBounds(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	notifier := &recordingNotifier{}
	rideSvc := newRideService(store, notifier)
	bookingSvc := newBookingService(store, notifier)

	if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 2); err != nil {
		t.Fatal(err)
	}

	one, five, three := 1, 5, 3

	if _, err := rideSvc.Update(context.Background(), "r1", "driver-1",
		domain.RideUpdate{AvailableSeats: &one}); !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("below booked count: expected invalid_argument, got %v", err)
	}
	if _, err := rideSvc.Update(context.Background(), "r1", "driver-1",
		domain.RideUpdate{AvailableSeats: &five}); !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("above total seats: expected invalid_argument, got %v", err)
	}

	ride, err := rideSvc.Update(context.Background(), "r1", "driver-1",
		domain.RideUpdate{AvailableSeats: &three})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.TotalSeats != 4 || ride.AvailableSeats != 3 {
		t.Errorf("expected 4 total / 3 available, got %d / %d", ride.TotalSeats, ride.AvailableSeats)
	}
	if len(notifier.byEvent(domain.EventRideUpdated)) != 1 {
		t.Error("passenger should be notified of a seat change")
	}
}

// interposingRideRepo runs a hook once, right after the first GetByID, to
// squeeze a competing write between a service's read and its follow-up write.
type interposingRideRepo struct {
	ports.RideRepository
	hook  func()
	fired bool
}

func (r *interposingRideRepo) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	ride, err := r.RideRepository.GetByID(ctx, id)
	if !r.fired && r.hook != nil {
		r.fired = true
		r.hook()
	}
	return ride, err
}

func interposedServices(store *memStore, notifier *recordingNotifier) (*interposingRideRepo, *usecases.RideService, *usecases.BookingService) {
	rides := &interposingRideRepo{RideRepository: &memRideRepo{s: store}}
	bookings := &memBookingRepo{s: store}
	cascade := usecases.NewCascade(bookings, rides, notifier)
	rideSvc := usecases.NewRideService(rides, bookings, cascade, notifier, nil)
	bookingSvc := usecases.NewBookingService(bookings, rides, &memUserRepo{s: store}, notifier)
	return rides, rideSvc, bookingSvc
}

func TestStartRide_KeepsConcurrentSeatHold(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	rides, rideSvc, bookingSvc := interposedServices(store, &recordingNotifier{})

	// A passenger books a seat after Start has read the ride but before it
	// writes the status change.
	rides.hook = func() {
		if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 1); err != nil {
			t.Fatalf("interleaved request: %v", err)
		}
	}

	if _, err := rideSvc.Start(context.Background(), "r1", "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.ride("r1")
	if got.Status != domain.RideActive {
		t.Errorf("expected ACTIVE, got %s", got.Status)
	}
	if got.AvailableSeats != 3 {
		t.Errorf("status write must not undo the seat hold: available=%d, want 3", got.AvailableSeats)
	}
}

func TestUpdateRide_SeatChangeRetriesAfterLostRace(t *testing.T) {
	store := newMemStore()
	scheduledRide(store, "r1", "driver-1", 4)
	rides, rideSvc, bookingSvc := interposedServices(store, &recordingNotifier{})

	rides.hook = func() {
		if _, err := bookingSvc.Request(context.Background(), "r1", "pass-1", 1); err != nil {
			t.Fatalf("interleaved request: %v", err)
		}
	}

	six := 6
	ride, err := rideSvc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{TotalSeats: &six})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The resize lost the first swap, re-read, and kept the booked seat.
	if ride.TotalSeats != 6 || ride.AvailableSeats != 5 {
		t.Errorf("expected 6 total / 5 available, got %d / %d", ride.TotalSeats, ride.AvailableSeats)
	}
}

func TestUpdateRide_NotScheduled(t *testing.T) {
	store := newMemStore()
	ride := scheduledRide(store, "r1", "driver-1", 3)
	ride.Status = domain.RideActive
	store.putRide(ride)
	svc := newRideService(store, &recordingNotifier{})

	notes := "n"
	if _, err := svc.Update(context.Background(), "r1", "driver-1", domain.RideUpdate{Notes: &notes}); !domain.IsKind(err, domain.KindIllegalState) {
		t.Fatalf("expected illegal_state, got %v", err)
	}
}

// --- Search ---

func TestSearch_RequiresRoute(t *testing.T) {
	svc := newRideService(newMemStore(), &recordingNotifier{})

	_, err := svc.Search(context.Background(), domain.RideSearch{DepartureCity: "Albany"})
	if !domain.IsKind(err, domain.KindInvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}
