package invoice

import (
	"bytes"
	"strings"
	"testing"
)

func TestTotalWithDiagnosticTest(t *testing.T) {
	facts := Facts{HourlyRate: 50, TestBooked: true}

	total := Total(facts)
	if total != 100 {
		t.Errorf("Expected total 100 with hourly rate 50 and a booked test, got %v", total)
	}

	lines := Lines(facts)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 line items with a booked test, got %d", len(lines))
	}
	if lines[1].Amount != DiagnosticTestFee {
		t.Errorf("Expected diagnostic test line of %v, got %v", DiagnosticTestFee, lines[1].Amount)
	}
}

func TestTotalWithoutDiagnosticTest(t *testing.T) {
	facts := Facts{HourlyRate: 50, TestBooked: false}

	total := Total(facts)
	if total != 50 {
		t.Errorf("Expected total 50 without a booked test, got %v", total)
	}

	lines := Lines(facts)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line item without a booked test, got %d", len(lines))
	}
}

func TestRenderDeterministic(t *testing.T) {
	facts := Facts{
		InvoiceNumber: "a3c98c39-12f4-4b6e-9a10-5d7f9a2b31aa",
		ParentName:    "Tan Wei Ling",
		StudentName:   "Tan Jun Hao",
		TutorName:     "Chloe Lim",
		HourlyRate:    65.5,
		TestBooked:    true,
	}

	first := Render(facts)
	second := Render(facts)
	if !bytes.Equal(first, second) {
		t.Error("Rendering the same facts twice should yield byte-identical documents")
	}
}

func TestRenderContent(t *testing.T) {
	facts := Facts{
		InvoiceNumber: "inv-1",
		ParentName:    "Tan Wei Ling",
		StudentName:   "Tan Jun Hao",
		TutorName:     "Chloe Lim",
		HourlyRate:    50,
		TestBooked:    true,
	}

	doc := string(Render(facts))

	for _, want := range []string{
		"TUITION INVOICE",
		"inv-1",
		"Tan Wei Ling",
		"Tan Jun Hao",
		"Chloe Lim",
		"Diagnostic test",
		"SGD    100.00",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Rendered invoice should contain %q, got:\n%s", want, doc)
		}
	}

	factsNoTest := facts
	factsNoTest.TestBooked = false
	docNoTest := string(Render(factsNoTest))

	if strings.Contains(docNoTest, "Diagnostic test") {
		t.Error("Invoice without a booked test should not contain a diagnostic test line")
	}
	if !strings.Contains(docNoTest, "SGD     50.00") {
		t.Errorf("Expected total of 50.00 without a booked test, got:\n%s", docNoTest)
	}
}
