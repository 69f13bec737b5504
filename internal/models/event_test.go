package models

import "testing"

func TestEventStatus_CanTransitionTo(t *testing.T) {
	all := []EventStatus{EventDraft, EventActive, EventCompleted, EventCancelled}
	allowed := map[EventStatus]map[EventStatus]bool{
		EventDraft:  {EventActive: true, EventCancelled: true},
		EventActive: {EventCompleted: true, EventCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestEventStatus_Valid(t *testing.T) {
	if !EventActive.Valid() {
		t.Error("expected ACTIVE to be valid")
	}
	if EventStatus("ARCHIVED").Valid() {
		t.Error("expected ARCHIVED to be invalid")
	}
	if EventStatus("ARCHIVED").CanTransitionTo(EventActive) {
		t.Error("unknown status must not transition anywhere")
	}
}

func TestRole_CanOrganize(t *testing.T) {
	if RolePlayer.CanOrganize() {
		t.Error("players must not organize")
	}
	if !RoleOrganizer.CanOrganize() || !RoleAdmin.CanOrganize() {
		t.Error("organizers and admins must organize")
	}
	if Role("OWNER").Valid() {
		t.Error("expected OWNER to be invalid")
	}
}
