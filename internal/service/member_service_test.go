package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
)

type recordingNotifier struct {
	receipts []string
}

func (n *recordingNotifier) EnqueueReceipt(m *domain.Member) {
	n.receipts = append(n.receipts, m.ID)
}

func newTestMemberService() (*MemberService, *memMemberRepo, *memAuditRepo, *recordingNotifier) {
	members := newMemMemberRepo()
	history := newMemAuditRepo()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMemberService(nil, members, history, notifier, logger), members, history, notifier
}

func closeTo(got, want time.Time) bool {
	d := got.Sub(want)
	if d < 0 {
		d = -d
	}
	return d < time.Minute
}

func TestMemberLifecycle(t *testing.T) {
	svc, _, history, notifier := newTestMemberService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateMemberInput{
		Name:       "Ana",
		Phone:      "555-0100",
		Email:      "ana@example.com",
		Sex:        "Female",
		Duration:   "1 Month",
		AmountPaid: 1000,
		Due:        0,
	}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !closeTo(created.ExpiryDate, time.Now().AddDate(0, 1, 0)) {
		t.Fatalf("expiry %v not one month out", created.ExpiryDate)
	}
	if entries := history.all(); len(entries) != 1 || entries[0].Action != domain.ActionCreated {
		t.Fatalf("expected one Created entry, got %+v", entries)
	}
	if len(notifier.receipts) != 1 {
		t.Fatalf("expected a receipt to be queued, got %d", len(notifier.receipts))
	}

	due := 200.0
	updated, err := svc.Update(ctx, created.ID, domain.MemberPatch{Due: &due}, "admin-1")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Due != 200 || updated.Name != "Ana" || updated.Phone != "555-0100" || updated.AmountPaid != 1000 {
		t.Fatalf("sparse patch touched unrelated fields: %+v", updated)
	}
	if entries := history.all(); len(entries) != 2 || entries[1].Action != domain.ActionUpdated {
		t.Fatalf("expected second entry to be Updated, got %+v", entries)
	}

	if err := svc.Delete(ctx, created.ID, "admin-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected member gone, got %v", err)
	}
	entries := history.all()
	if len(entries) != 3 || entries[2].Action != domain.ActionDeleted {
		t.Fatalf("expected third entry to be Deleted, got %+v", entries)
	}
	var snap domain.MemberSnapshot
	if err := json.Unmarshal(entries[2].Snapshot, &snap); err != nil {
		t.Fatalf("decoding delete snapshot: %v", err)
	}
	if snap.Due != 200 {
		t.Fatalf("delete snapshot should carry final due=200, got %v", snap.Due)
	}

	restored, err := svc.Restore(ctx, entries[2].ID, "admin-2")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.ID == created.ID {
		t.Fatal("restored member must get a fresh id")
	}
	if restored.Name != "Ana" || restored.Phone != "555-0100" || restored.Email != "ana@example.com" ||
		restored.Due != 200 || restored.AmountPaid != 1000 || restored.Duration != domain.DurationOneMonth {
		t.Fatalf("restored member lost business fields: %+v", restored)
	}
	entries = history.all()
	if len(entries) != 4 || entries[3].Action != domain.ActionRestored {
		t.Fatalf("expected fourth entry to be Restored, got %+v", entries)
	}
	if entries[3].MemberID != restored.ID {
		t.Fatal("Restored entry must reference the new member id")
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _, _ := newTestMemberService()

	m, err := svc.Create(context.Background(), CreateMemberInput{Name: "Bo", Phone: "555-0101"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if m.Sex != "Male" {
		t.Fatalf("expected default sex Male, got %q", m.Sex)
	}
	if m.Duration != domain.DurationOneMonth {
		t.Fatalf("expected default one month plan, got %q", m.Duration)
	}
}

func TestCreateAcceptsNumericDurationCode(t *testing.T) {
	svc, _, _, _ := newTestMemberService()

	m, err := svc.Create(context.Background(), CreateMemberInput{Name: "Cy", Phone: "555-0102", Duration: "3"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if m.Duration != domain.DurationThreeMonths {
		t.Fatalf("expected three month plan, got %q", m.Duration)
	}
	if !closeTo(m.ExpiryDate, time.Now().AddDate(0, 3, 0)) {
		t.Fatalf("expiry %v not three months out", m.ExpiryDate)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateMemberInput
	}{
		{"missing name", CreateMemberInput{Phone: "555-0103"}},
		{"missing phone", CreateMemberInput{Name: "Dee"}},
		{"bad duration", CreateMemberInput{Name: "Dee", Phone: "555-0103", Duration: "2 Months"}},
		{"bad sex", CreateMemberInput{Name: "Dee", Phone: "555-0103", Sex: "Other"}},
		{"negative paid", CreateMemberInput{Name: "Dee", Phone: "555-0103", AmountPaid: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input, "admin-1"); !domain.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if len(history.all()) != 0 {
		t.Fatal("rejected creates must not write history entries")
	}
}

func TestCreatePhoneConflict(t *testing.T) {
	svc, members, history, _ := newTestMemberService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateMemberInput{Name: "Eve", Phone: "555-0104"}, "admin-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateMemberInput{Name: "Imposter", Phone: "555-0104"}, "admin-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	all, _ := members.List(ctx)
	if len(all) != 1 {
		t.Fatalf("conflicting create must not persist a member, have %d", len(all))
	}
	if len(history.all()) != 1 {
		t.Fatal("conflicting create must not write a history entry")
	}
}

func TestUpdateUnknownMember(t *testing.T) {
	svc, _, _, _ := newTestMemberService()
	name := "Ghost"
	if _, err := svc.Update(context.Background(), "no-such-id", domain.MemberPatch{Name: &name}, "admin-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateDurationRestartsClock(t *testing.T) {
	svc, _, _, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Flo", Phone: "555-0105", Duration: "1 Month"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	year := domain.DurationOneYear
	updated, err := svc.Update(ctx, m.ID, domain.MemberPatch{Duration: &year}, "admin-1")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !closeTo(updated.ExpiryDate, time.Now().AddDate(0, 12, 0)) {
		t.Fatalf("expiry %v not one year out after plan change", updated.ExpiryDate)
	}
}

func TestDoubleDelete(t *testing.T) {
	svc, _, _, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Gus", Phone: "555-0106"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "admin-1"); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "admin-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteKeepsMemberWhenHistoryWriteFails(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Hal", Phone: "555-0107"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	history.failing = true
	if err := svc.Delete(ctx, m.ID, "admin-1"); err == nil {
		t.Fatal("expected delete to fail when the history write fails")
	}
	history.failing = false

	if _, err := svc.Get(ctx, m.ID); err != nil {
		t.Fatalf("member must survive a failed deletion, got %v", err)
	}
}

func TestRestoreRejectsNonDeletedEntries(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Ida", Phone: "555-0108"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	due := 50.0
	if _, err := svc.Update(ctx, m.ID, domain.MemberPatch{Due: &due}, "admin-1"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for _, entry := range history.all() {
		if _, err := svc.Restore(ctx, entry.ID, "admin-1"); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("restoring a %s entry: expected invalid state, got %v", entry.Action, err)
		}
	}
}

func TestRestoreConflictsWithReusedPhone(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Joy", Phone: "555-0109"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "admin-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateMemberInput{Name: "Newcomer", Phone: "555-0109"}, "admin-1"); err != nil {
		t.Fatalf("re-create failed: %v", err)
	}

	deletedEntry := lastDeletedEntry(t, history)
	if _, err := svc.Restore(ctx, deletedEntry.ID, "admin-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict restoring over reused phone, got %v", err)
	}

	// A refused restore leaves the roster and the history log untouched.
	roster, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 member after refused restore, got %d", len(roster))
	}
	if entries := history.all(); len(entries) != 3 {
		t.Fatalf("expected 3 history entries after refused restore, got %d", len(entries))
	}
}

func TestRestoreConflictsWithReusedEmail(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Ines", Phone: "555-0120", Email: "ines@example.com"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "admin-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// Same email under a different phone number
	if _, err := svc.Create(ctx, CreateMemberInput{Name: "Newcomer", Phone: "555-0121", Email: "ines@example.com"}, "admin-1"); err != nil {
		t.Fatalf("re-create failed: %v", err)
	}

	deletedEntry := lastDeletedEntry(t, history)
	_, err = svc.Restore(ctx, deletedEntry.ID, "admin-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict restoring over reused email, got %v", err)
	}
	if !strings.Contains(err.Error(), "email") {
		t.Fatalf("conflict should cite the email, got %q", err.Error())
	}

	roster, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 member after refused restore, got %d", len(roster))
	}
	if entries := history.all(); len(entries) != 3 {
		t.Fatalf("expected 3 history entries after refused restore, got %d", len(entries))
	}
}

func TestRestoreConflictCitesEmailBeforePhone(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMemberInput{Name: "Omar", Phone: "555-0130", Email: "omar@example.com"}, "admin-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "admin-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// Two different members now hold the snapshot's email and phone
	if _, err := svc.Create(ctx, CreateMemberInput{Name: "EmailHolder", Phone: "555-0131", Email: "omar@example.com"}, "admin-1"); err != nil {
		t.Fatalf("create email holder failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateMemberInput{Name: "PhoneHolder", Phone: "555-0130"}, "admin-1"); err != nil {
		t.Fatalf("create phone holder failed: %v", err)
	}

	deletedEntry := lastDeletedEntry(t, history)
	_, err = svc.Restore(ctx, deletedEntry.ID, "admin-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// Email is checked first, so the error names the email even though
	// the phone also collides.
	if !strings.Contains(err.Error(), "email omar@example.com") {
		t.Fatalf("conflict should cite the email first, got %q", err.Error())
	}
	if strings.Contains(err.Error(), "phone") {
		t.Fatalf("conflict should not reach the phone check, got %q", err.Error())
	}
}

func lastDeletedEntry(t *testing.T, history *memAuditRepo) *domain.AuditEntry {
	t.Helper()
	var entry *domain.AuditEntry
	for _, e := range history.all() {
		if e.Action == domain.ActionDeleted {
			entry = e
		}
	}
	if entry == nil {
		t.Fatal("missing Deleted entry")
	}
	return entry
}

func TestRestoreUnknownEntry(t *testing.T) {
	svc, _, _, _ := newTestMemberService()
	if _, err := svc.Restore(context.Background(), "no-such-entry", "admin-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryPagingAndPrune(t *testing.T) {
	svc, _, history, _ := newTestMemberService()
	ctx := context.Background()

	for _, phone := range []string{"555-0110", "555-0111", "555-0112"} {
		if _, err := svc.Create(ctx, CreateMemberInput{Name: "N " + phone, Phone: phone}, "admin-1"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := svc.History(ctx, 2, 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}

	if err := svc.PruneHistoryEntry(ctx, page[0].ID, "admin-1"); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if len(history.all()) != 2 {
		t.Fatalf("expected 2 entries after prune, got %d", len(history.all()))
	}
	if err := svc.PruneHistoryEntry(ctx, "no-such-entry", "admin-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found pruning unknown entry, got %v", err)
	}
}
