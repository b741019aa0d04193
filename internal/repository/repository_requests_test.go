package repository

import (
	"context"
	"errors"
	"testing"

	"tuition/internal/models"
)

func TestAddRequestStatusAtCreation(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	plain := AddTestRequest(t, repo, users.Parents[0], false)
	if plain.Status != models.RequestSubmitted {
		t.Errorf("Expected request without a test to start in '%s', got '%s'", models.RequestSubmitted, plain.Status)
	}

	withTest := AddTestRequest(t, repo, users.Parents[0], true)
	if withTest.Status != models.RequestTestBooked {
		t.Errorf("Expected request with a booked test to start in '%s', got '%s'", models.RequestTestBooked, withTest.Status)
	}

	stored, err := repo.GetRequestByUUID(ctx, withTest.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TestScheduledAt == nil {
		t.Error("Expected scheduled test time to be stored")
	}
	if stored.TestCompleted {
		t.Error("Expected a fresh request's test to be uncompleted")
	}
	if len(stored.Subjects) != 2 {
		t.Errorf("Expected 2 subjects to round-trip, got %d", len(stored.Subjects))
	}
}

func TestGetRequestsFilters(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	first := AddTestRequest(t, repo, users.Parents[0], false)
	AddTestRequest(t, repo, users.Parents[0], true)
	AddTestRequest(t, repo, users.Parents[1], false)

	byParent, err := repo.GetRequests(ctx, 0, 0, "", users.Parents[0].Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(byParent) != 2 {
		t.Errorf("Expected 2 requests for parent1, got %d", len(byParent))
	}

	open, err := repo.GetRequests(ctx, 0, 0, "", "", []models.RequestStatus{models.RequestSubmitted, models.RequestTestBooked})
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 3 {
		t.Errorf("Expected 3 open requests, got %d", len(open))
	}

	// matching removes a request from the open set
	_, err = repo.CreateMatch(ctx, first.Id, users.Tutors[0].Id)
	if err != nil {
		t.Fatal(err)
	}

	open, err = repo.GetRequests(ctx, 0, 0, "", "", []models.RequestStatus{models.RequestSubmitted, models.RequestTestBooked})
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 {
		t.Errorf("Expected 2 open requests after a match, got %d", len(open))
	}

	_, err = repo.GetRequestByUUID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, models.ErrNoRequest) {
		t.Errorf("Expected ErrNoRequest for unknown UUID, got %v", err)
	}
}

func TestMarkTestComplete(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	withTest := AddTestRequest(t, repo, users.Parents[0], true)
	noTest := AddTestRequest(t, repo, users.Parents[0], false)

	err := repo.MarkTestComplete(ctx, withTest.Id)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetRequestByUUID(ctx, withTest.Id)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.TestCompleted {
		t.Error("Expected test to be marked complete")
	}
	if stored.Status != models.RequestTestBooked {
		t.Errorf("Completing the test should not change status, got '%s'", stored.Status)
	}

	err = repo.MarkTestComplete(ctx, withTest.Id)
	if !errors.Is(err, models.ErrTestCompleted) {
		t.Errorf("Expected ErrTestCompleted on repeat completion, got %v", err)
	}

	err = repo.MarkTestComplete(ctx, noTest.Id)
	if !errors.Is(err, models.ErrNoTestBooked) {
		t.Errorf("Expected ErrNoTestBooked for request without a test, got %v", err)
	}

	err = repo.MarkTestComplete(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, models.ErrNoRequest) {
		t.Errorf("Expected ErrNoRequest for unknown request, got %v", err)
	}
}
