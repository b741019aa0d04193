package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"tuition/internal/blob"
	"tuition/internal/invoice"
	"tuition/internal/models"
	"tuition/internal/repository"

	"github.com/google/uuid"
)

type Service struct {
	repo  *repository.Repository
	blobs blob.Store
}

func NewService(repo *repository.Repository, blobs blob.Store) *Service {
	return &Service{repo: repo, blobs: blobs}
}

//// Requests

func (s *Service) SubmitRequest(ctx context.Context, username string, request models.Request) (models.Request, error) {
	parent, err := s.userByUsername(ctx, username, models.RoleParent)
	if err != nil {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w", err)
	}

	if len(request.Subjects) == 0 {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w: subject list must not be empty", models.ErrValidation)
	}
	if len(strings.TrimSpace(request.StudentName)) == 0 {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w: student name must not be empty", models.ErrValidation)
	}
	if len(strings.TrimSpace(request.PostalCode)) == 0 {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w: postal code must not be empty", models.ErrValidation)
	}
	if request.TestBooked && request.TestScheduledAt == nil {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w: booked diagnostic test requires a scheduled time", models.ErrValidation)
	}
	if !request.TestBooked && request.TestScheduledAt != nil {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w: scheduled time supplied without a booked diagnostic test", models.ErrValidation)
	}

	request.ParentId = parent.Id
	request, err = s.repo.AddRequest(ctx, request)
	if err != nil {
		return request, fmt.Errorf("service.Service.SubmitRequest: %w", err)
	}

	return request, nil
}

func (s *Service) GetParentRequests(ctx context.Context, username string, limit, offset int) ([]models.Request, error) {
	parent, err := s.userByUsername(ctx, username, models.RoleParent)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetParentRequests: %w", err)
	}

	requests, err := s.repo.GetRequests(ctx, limit, offset, "", parent.Id, nil)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetParentRequests: %w", err)
	}

	return requests, nil
}

// GetAvailableRequests lists requests still open for bidding, as shown to
// tutors browsing for work.
func (s *Service) GetAvailableRequests(ctx context.Context, username string, limit, offset int) ([]models.Request, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetAvailableRequests: %w", err)
	}
	if user.Role == models.RoleParent {
		return nil, models.ErrForbidden
	}

	statuses := []models.RequestStatus{models.RequestSubmitted, models.RequestTestBooked}
	requests, err := s.repo.GetRequests(ctx, limit, offset, "", "", statuses)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetAvailableRequests: %w", err)
	}

	return requests, nil
}

func (s *Service) MarkTestComplete(ctx context.Context, username, requestId string) (models.Request, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return models.Request{}, fmt.Errorf("service.Service.MarkTestComplete: %w", err)
	}

	request, err := s.repo.GetRequestByUUID(ctx, requestId)
	if err != nil {
		return models.Request{}, fmt.Errorf("service.Service.MarkTestComplete: %w", err)
	}

	// only the owning parent or an admin may close out the test
	if user.Role != models.RoleAdmin && request.ParentId != user.Id {
		return models.Request{}, models.ErrForbidden
	}

	err = s.repo.MarkTestComplete(ctx, requestId)
	if err != nil {
		return models.Request{}, fmt.Errorf("service.Service.MarkTestComplete: %w", err)
	}

	request.TestCompleted = true
	return request, nil
}

//// Bids

func (s *Service) SubmitBid(ctx context.Context, username, requestId, message string) (models.Bid, error) {
	tutor, err := s.userByUsername(ctx, username, models.RoleTutor)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	message = strings.TrimSpace(message)
	if len(message) == 0 {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w: bid message must not be empty", models.ErrValidation)
	}

	bid, err := s.repo.AddBid(ctx, models.Bid{
		RequestId: requestId,
		TutorId:   tutor.Id,
		Message:   message,
	})
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	return bid, nil
}

// GetRequestBids returns all bids on a request, each enriched with the
// bidding tutor's profile and certificates.
func (s *Service) GetRequestBids(ctx context.Context, username, requestId string, limit, offset int) ([]models.BidDetails, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequestBids: %w", err)
	}

	request, err := s.repo.GetRequestByUUID(ctx, requestId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequestBids: %w", err)
	}

	if user.Role != models.RoleAdmin && request.ParentId != user.Id {
		return nil, models.ErrForbidden
	}

	bids, err := s.repo.GetBids(ctx, limit, offset, "", request.Id)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequestBids: %w", err)
	}

	tutors := make(map[string]models.User)
	certificates := make(map[string][]models.Certificate)

	result := make([]models.BidDetails, 0, len(bids))
	for _, bid := range bids {
		tutor, ok := tutors[bid.TutorId]
		if !ok {
			tutor, ok, err = s.repo.UserByUUID(ctx, bid.TutorId)
			if err != nil {
				return nil, fmt.Errorf("service.Service.GetRequestBids: %w", err)
			}
			if !ok {
				return nil, fmt.Errorf("service.Service.GetRequestBids: %w: %s", models.ErrNoTutor, bid.TutorId)
			}
			tutors[bid.TutorId] = tutor

			certs, err := s.repo.GetCertificatesByTutor(ctx, bid.TutorId)
			if err != nil {
				return nil, fmt.Errorf("service.Service.GetRequestBids: %w", err)
			}
			certificates[bid.TutorId] = certs
		}

		result = append(result, models.BidDetails{
			Bid:          bid,
			Tutor:        tutor,
			Certificates: certificates[bid.TutorId],
		})
	}

	return result, nil
}

//// Matching

// ApproveBid matches a tutor to a request. The repository performs the
// status re-check, match insert and status advance as one transaction, so
// concurrent approvals on the same request leave exactly one winner. A
// booked-but-uncompleted diagnostic test does not block approval.
func (s *Service) ApproveBid(ctx context.Context, username, requestId, tutorId string) (models.Match, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.ApproveBid: %w", err)
	}

	request, err := s.repo.GetRequestByUUID(ctx, requestId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.ApproveBid: %w", err)
	}

	if user.Role != models.RoleAdmin && request.ParentId != user.Id {
		return models.Match{}, models.ErrForbidden
	}

	tutor, ok, err := s.repo.UserByUUID(ctx, tutorId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.ApproveBid: %w", err)
	}
	if !ok || tutor.Role != models.RoleTutor {
		return models.Match{}, fmt.Errorf("service.Service.ApproveBid: %w: %s", models.ErrNoTutor, tutorId)
	}

	match, err := s.repo.CreateMatch(ctx, requestId, tutor.Id)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.ApproveBid: %w", err)
	}

	return match, nil
}

func (s *Service) GetMatchForRequest(ctx context.Context, username, requestId string) (models.Match, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GetMatchForRequest: %w", err)
	}

	request, err := s.repo.GetRequestByUUID(ctx, requestId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GetMatchForRequest: %w", err)
	}

	match, err := s.repo.GetMatchByRequest(ctx, request.Id)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GetMatchForRequest: %w", err)
	}

	if user.Role != models.RoleAdmin && request.ParentId != user.Id && match.TutorId != user.Id {
		return models.Match{}, models.ErrForbidden
	}

	return match, nil
}

//// Invoices

// GenerateInvoice renders and records the billing document of a match.
// A second call without force returns the recorded location untouched; with
// force a fresh document is written under a new key and the match repointed.
// Billing facts come from stored rows, not the caller; rateOverride (>0)
// substitutes the tutor's hourly rate.
func (s *Service) GenerateInvoice(ctx context.Context, username, matchId string, force bool, rateOverride float64) (models.Match, error) {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}

	match, err := s.repo.GetMatchByUUID(ctx, matchId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}

	request, err := s.repo.GetRequestByUUID(ctx, match.RequestId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}

	if user.Role != models.RoleAdmin && request.ParentId != user.Id {
		return models.Match{}, models.ErrForbidden
	}

	// idempotent short-circuit before any rendering happens
	if match.InvoiceGenerated && !force {
		return match, nil
	}

	parent, ok, err := s.repo.UserByUUID(ctx, request.ParentId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}
	if !ok {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w: %s", models.ErrInvalidUser, request.ParentId)
	}

	tutor, ok, err := s.repo.UserByUUID(ctx, match.TutorId)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}
	if !ok {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w: %s", models.ErrNoTutor, match.TutorId)
	}

	rate := tutor.HourlyRate
	if rateOverride > 0 {
		rate = rateOverride
	}
	if rate <= 0 {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w: tutor has no hourly rate and no override supplied", models.ErrValidation)
	}

	doc := invoice.Render(invoice.Facts{
		InvoiceNumber: match.Id,
		ParentName:    parent.FullName,
		StudentName:   request.StudentName,
		TutorName:     tutor.FullName,
		HourlyRate:    rate,
		TestBooked:    request.TestBooked,
	})

	key := "invoices/" + uuid.NewString() + ".txt"
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(doc), blob.PutOptions{
		ContentType: invoice.ContentType,
		Metadata:    map[string]string{"match_id": match.Id},
	})
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: invoice upload failed: %w", err)
	}

	finalURL, _, err := s.repo.RecordInvoice(ctx, match.Id, info.URL, force)
	if err != nil {
		return models.Match{}, fmt.Errorf("service.Service.GenerateInvoice: %w", err)
	}

	match.InvoiceGenerated = true
	match.InvoiceURL = finalURL
	return match, nil
}

//// Certificates

func (s *Service) AddCertificate(ctx context.Context, username, name string, data []byte, contentType string) (models.Certificate, error) {
	tutor, err := s.userByUsername(ctx, username, models.RoleTutor)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("service.Service.AddCertificate: %w", err)
	}

	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return models.Certificate{}, fmt.Errorf("service.Service.AddCertificate: %w: certificate name must not be empty", models.ErrValidation)
	}
	if len(data) == 0 {
		return models.Certificate{}, fmt.Errorf("service.Service.AddCertificate: %w: certificate file must not be empty", models.ErrValidation)
	}

	key := "certificates/" + uuid.NewString() + "-" + sanitizeFilename(name)
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return models.Certificate{}, fmt.Errorf("service.Service.AddCertificate: certificate upload failed: %w", err)
	}

	cert, err := s.repo.AddCertificate(ctx, models.Certificate{
		TutorId: tutor.Id,
		Name:    name,
		FileURL: info.URL,
	})
	if err != nil {
		return models.Certificate{}, fmt.Errorf("service.Service.AddCertificate: %w", err)
	}

	return cert, nil
}

func (s *Service) RemoveCertificate(ctx context.Context, username, certId string) error {
	user, err := s.userByUsername(ctx, username, "")
	if err != nil {
		return fmt.Errorf("service.Service.RemoveCertificate: %w", err)
	}

	cert, err := s.repo.GetCertificateByUUID(ctx, certId)
	if err != nil {
		return fmt.Errorf("service.Service.RemoveCertificate: %w", err)
	}

	if user.Role != models.RoleAdmin && cert.TutorId != user.Id {
		return models.ErrForbidden
	}

	// the blob object stays behind, the store is append-only
	err = s.repo.DeleteCertificate(ctx, cert.Id)
	if err != nil {
		return fmt.Errorf("service.Service.RemoveCertificate: %w", err)
	}

	return nil
}

//// Service

func (s *Service) userByUsername(ctx context.Context, username string, role models.UserRole) (models.User, error) {
	user, ok, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.userByUsername: %w", err)
	}
	if !ok || (role != "" && user.Role != role) {
		return models.User{}, fmt.Errorf("service.Service.userByUsername: %w: %s", models.ErrInvalidUser, username)
	}
	return user, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
