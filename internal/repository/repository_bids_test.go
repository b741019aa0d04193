package repository

import (
	"context"
	"errors"
	"testing"

	"tuition/internal/models"
)

func TestAddBid(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)
	request := AddTestRequest(t, repo, users.Parents[0], false)

	bid, err := repo.AddBid(ctx, models.Bid{
		RequestId: request.Id,
		TutorId:   users.Tutors[0].Id,
		Message:   "I can help",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bid.Id) == 0 {
		t.Error("Expected inserted bid to receive an id")
	}

	// duplicate bids from the same tutor are permitted
	_, err = repo.AddBid(ctx, models.Bid{
		RequestId: request.Id,
		TutorId:   users.Tutors[0].Id,
		Message:   "Still available, updated offer",
	})
	if err != nil {
		t.Fatal(err)
	}

	bids, err := repo.GetBids(ctx, 0, 0, "", request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 2 {
		t.Errorf("Expected 2 bids on request, got %d", len(bids))
	}

	byTutor, err := repo.GetBids(ctx, 0, 0, users.Tutors[0].Id, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byTutor) != 2 {
		t.Errorf("Expected 2 bids by tutor, got %d", len(byTutor))
	}
}

func TestAddBidGating(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)

	_, err := repo.AddBid(ctx, models.Bid{
		RequestId: "00000000-0000-0000-0000-000000000000",
		TutorId:   users.Tutors[0].Id,
		Message:   "I can help",
	})
	if !errors.Is(err, models.ErrNoRequest) {
		t.Errorf("Expected ErrNoRequest for bid on unknown request, got %v", err)
	}

	request := AddTestRequest(t, repo, users.Parents[0], false)
	_, err = repo.CreateMatch(ctx, request.Id, users.Tutors[0].Id)
	if err != nil {
		t.Fatal(err)
	}

	_, err = repo.AddBid(ctx, models.Bid{
		RequestId: request.Id,
		TutorId:   users.Tutors[1].Id,
		Message:   "Am I too late?",
	})
	if !errors.Is(err, models.ErrRequestNotBiddable) {
		t.Errorf("Expected ErrRequestNotBiddable for bid on matched request, got %v", err)
	}

	bids, err := repo.GetBids(ctx, 0, 0, "", request.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 0 {
		t.Errorf("Rejected bid should not create a row, found %d bids", len(bids))
	}
}
