package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tuition/internal/models"
)

func TestCreateMatch(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)
	request := AddTestRequest(t, repo, users.Parents[0], false)

	match, err := repo.CreateMatch(ctx, request.Id, users.Tutors[0].Id)
	if err != nil {
		t.Fatal(err)
	}
	if match.RequestId != request.Id || match.TutorId != users.Tutors[0].Id {
		t.Errorf("Match references wrong rows: %+v", match)
	}
	if match.InvoiceGenerated {
		t.Error("Fresh match should not have an invoice")
	}

	stored, err := repo.GetRequestByUUID(ctx, request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.RequestMatched {
		t.Errorf("Expected request status '%s' after match, got '%s'", models.RequestMatched, stored.Status)
	}

	// second approval must fail, not overwrite
	_, err = repo.CreateMatch(ctx, request.Id, users.Tutors[1].Id)
	if !errors.Is(err, models.ErrAlreadyMatched) {
		t.Errorf("Expected ErrAlreadyMatched on second approval, got %v", err)
	}

	byRequest, err := repo.GetMatchByRequest(ctx, request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if byRequest.Id != match.Id {
		t.Errorf("Expected original match to survive, got '%s'", byRequest.Id)
	}
	if byRequest.TutorId != users.Tutors[0].Id {
		t.Errorf("Expected original tutor to stay matched, got '%s'", byRequest.TutorId)
	}
}

func TestCreateMatchNoRequest(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	_, err := repo.CreateMatch(ctx, "00000000-0000-0000-0000-000000000000", users.Tutors[0].Id)
	if !errors.Is(err, models.ErrNoRequest) {
		t.Errorf("Expected ErrNoRequest for unknown request, got %v", err)
	}
}

func TestCreateMatchWithBookedUncompletedTest(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	// booked but uncompleted diagnostic test does not block matching
	request := AddTestRequest(t, repo, users.Parents[0], true)

	_, err := repo.CreateMatch(ctx, request.Id, users.Tutors[0].Id)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetRequestByUUID(ctx, request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.RequestMatched {
		t.Errorf("Expected request status '%s', got '%s'", models.RequestMatched, stored.Status)
	}
	if stored.TestCompleted {
		t.Error("Matching should not complete the test")
	}
}

func TestCreateMatchRace(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)
	request := AddTestRequest(t, repo, users.Parents[0], false)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tutor := users.Tutors[i%len(users.Tutors)]
			_, errs[i] = repo.CreateMatch(ctx, request.Id, tutor.Id)
		}(i)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, models.ErrAlreadyMatched):
		default:
			t.Errorf("Attempt %d failed with unexpected error: %v", i, err)
		}
	}
	if won != 1 {
		t.Errorf("Expected exactly 1 winning approval, got %d", won)
	}

	var count int
	row := repo.db.QueryRow("SELECT COUNT(*) FROM matches WHERE request_id = $1", request.Id)
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 match row after racing approvals, got %d", count)
	}
}

func TestRecordInvoice(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)
	request := AddTestRequest(t, repo, users.Parents[0], false)

	match, err := repo.CreateMatch(ctx, request.Id, users.Tutors[0].Id)
	if err != nil {
		t.Fatal(err)
	}

	url, recorded, err := repo.RecordInvoice(ctx, match.Id, "memory://invoices/first.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Error("Expected first invoice to be recorded")
	}
	if url != "memory://invoices/first.txt" {
		t.Errorf("Expected first URL to win, got '%s'", url)
	}

	stored, err := repo.GetRequestByUUID(ctx, request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.RequestInvoiced {
		t.Errorf("Expected request status '%s' after invoicing, got '%s'", models.RequestInvoiced, stored.Status)
	}

	// second call without force keeps the recorded location
	url, recorded, err = repo.RecordInvoice(ctx, match.Id, "memory://invoices/second.txt", false)
	if err != nil {
		t.Fatal(err)
	}
	if recorded {
		t.Error("Second invoice without force should not be recorded")
	}
	if url != "memory://invoices/first.txt" {
		t.Errorf("Expected stored URL to win without force, got '%s'", url)
	}

	// force repoints the match
	url, recorded, err = repo.RecordInvoice(ctx, match.Id, "memory://invoices/third.txt", true)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Error("Forced regeneration should be recorded")
	}
	if url != "memory://invoices/third.txt" {
		t.Errorf("Expected forced URL to win, got '%s'", url)
	}

	updated, err := repo.GetMatchByUUID(ctx, match.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.InvoiceGenerated || updated.InvoiceURL != "memory://invoices/third.txt" {
		t.Errorf("Match invoice fields out of sync: %+v", updated)
	}

	_, _, err = repo.RecordInvoice(ctx, "00000000-0000-0000-0000-000000000000", "memory://x", false)
	if !errors.Is(err, models.ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch for unknown match, got %v", err)
	}
}
