package domain

import "testing"

func TestValidCUIT(t *testing.T) {
	tests := []struct {
		name string
		cuit string
		want bool
	}{
		{"valid plain", "20123456786", true},
		{"valid with dashes", "30-71234567-1", true},
		{"wrong check digit", "20123456787", false},
		{"too short", "2012345678", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCUIT(tt.cuit); got != tt.want {
				t.Errorf("ValidCUIT(%q) = %v, want %v", tt.cuit, got, tt.want)
			}
		})
	}
}

func TestNormalizeCUIT(t *testing.T) {
	if got := NormalizeCUIT("30-71234567-1"); got != "30712345671" {
		t.Errorf("NormalizeCUIT = %q, want 30712345671", got)
	}
}

func TestCompanyValidate(t *testing.T) {
	c := Company{
		CUIT:             "30-71234567-1",
		Name:             "Estudio Contable SRL",
		ClosingDate:      "31/12/2024",
		PriorClosingDate: "31/12/2023",
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.PriorClosingDate = "31/12/2025"
	if err := c.Validate(); err == nil {
		t.Error("expected error when prior closing is after current")
	}

	c.PriorClosingDate = "31/12/2023"
	c.CUIT = "30712345672"
	if err := c.Validate(); err == nil {
		t.Error("expected error for bad CUIT")
	}
}
