package repository

import (
	"context"
	"errors"
	"testing"

	"tuition/internal/models"
)

func TestCertificates(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	users := InsertTestInitData(t, repo)
	tutor := users.Tutors[0]

	cert, err := repo.AddCertificate(ctx, models.Certificate{
		TutorId: tutor.Id,
		Name:    "MOE Teaching Certificate",
		FileURL: "memory://certificates/moe.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}

	certs, err := repo.GetCertificatesByTutor(ctx, tutor.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 {
		t.Fatalf("Expected 1 certificate, got %d", len(certs))
	}
	if certs[0].Name != "MOE Teaching Certificate" {
		t.Errorf("Certificate name did not round-trip: %q", certs[0].Name)
	}

	byUUID, err := repo.GetCertificateByUUID(ctx, cert.Id)
	if err != nil {
		t.Fatal(err)
	}
	if byUUID.FileURL != cert.FileURL {
		t.Errorf("Certificate URL did not round-trip: %q", byUUID.FileURL)
	}

	err = repo.DeleteCertificate(ctx, cert.Id)
	if err != nil {
		t.Fatal(err)
	}

	_, err = repo.GetCertificateByUUID(ctx, cert.Id)
	if !errors.Is(err, models.ErrNoCertificate) {
		t.Errorf("Expected ErrNoCertificate after delete, got %v", err)
	}
}
