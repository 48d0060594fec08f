package events

import (
	"context"
	"reflect"
	"testing"

	"github.com/weddingpass/pass-api/internal/ports/out/events"
)

func TestRecorder_KeepsMostRecent(t *testing.T) {
	t.Parallel()

	r := NewRecorder(2)
	ctx := context.Background()
	for _, typ := range []events.Type{events.ReservationCreated, events.ReservationConfirmed, events.ReservationCheckedIn} {
		if err := r.Publish(ctx, events.Event{Type: typ}); err != nil {
			t.Fatalf("Publish err=%v", err)
		}
	}
	want := []events.Type{events.ReservationConfirmed, events.ReservationCheckedIn}
	if got := r.Types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Types()=%v, want %v", got, want)
	}
}
