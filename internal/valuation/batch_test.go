package valuation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/depreciation"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/inflation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleAssets() []domain.Asset {
	return []domain.Asset{
		{
			ID: 1, Description: "Torno CNC", Type: "Maquinaria", Depreciable: true,
			UsefulLifeYears: 10, AcquisitionFiscalYear: 2015, AcquisitionDate: "01/06/2015",
			OriginalValue: dec("1000000"),
		},
		{
			ID: 2, Description: "Camioneta", Type: "Rodados", Depreciable: true,
			UsefulLifeYears: 5, AcquisitionFiscalYear: 2022, AcquisitionDate: "15/08/2022",
			OriginalValue: dec("500000"),
		},
		domain.NewAsset(domain.Asset{
			ID: 3, Description: "Terreno", Type: "Terrenos", Depreciable: false,
			AcquisitionFiscalYear: 2010, AcquisitionDate: "10/10/2010",
			OriginalValue: dec("2000000"),
		}),
	}
}

func sampleIndices() *index.Registry {
	r := index.NewRegistry()
	r.Add("01/06/2015", dec("100"), "")
	r.Add("01/08/2022", dec("200"), "")
	r.Add("31/12/2023", dec("150"), "")
	r.Add("31/12/2024", dec("300"), "")
	return r
}

func TestDepreciationBatchEveryAssetGetsEntry(t *testing.T) {
	b := NewBatch(sampleIndices(), 2)
	got := b.Depreciation(sampleAssets(), "31/12/2024")

	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if !got[1].PeriodAmount.Equal(dec("100000")) {
		t.Errorf("asset 1 PeriodAmount = %s, want 100000", got[1].PeriodAmount)
	}
	if !got[2].StartAccumulated.Equal(dec("200000")) {
		t.Errorf("asset 2 StartAccumulated = %s, want 200000", got[2].StartAccumulated)
	}
	if !got[3].ResidualValue.Equal(dec("2000000")) {
		t.Errorf("asset 3 ResidualValue = %s, want 2000000", got[3].ResidualValue)
	}
	for id, e := range got {
		if e.Error != "" {
			t.Errorf("asset %d unexpected error %q", id, e.Error)
		}
	}
}

func TestDepreciationBatchInvalidClosing(t *testing.T) {
	b := NewBatch(sampleIndices(), 0)
	got := b.Depreciation(sampleAssets(), "2024-12-31")

	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for _, a := range sampleAssets() {
		e := got[a.ID]
		if !a.Depreciable {
			if e.Error != "" {
				t.Errorf("asset %d: non-depreciable asset must not fail, got %q", a.ID, e.Error)
			}
		} else if e.Error == "" {
			t.Errorf("asset %d: expected error entry", a.ID)
		}
		if !e.EndAccumulated.IsZero() || !e.PeriodAmount.IsZero() || !e.StartAccumulated.IsZero() {
			t.Errorf("asset %d: error entry must be zero-filled, got %+v", a.ID, e.Result)
		}
		if !e.ResidualValue.Equal(a.OriginalValue) {
			t.Errorf("asset %d: ResidualValue = %s, want %s", a.ID, e.ResidualValue, a.OriginalValue)
		}
	}
}

type panickyDepreciator struct {
	failID int
}

func (p panickyDepreciator) Compute(a domain.Asset, closing string) (depreciation.Result, error) {
	switch a.ID {
	case p.failID:
		panic("decimal division by zero")
	case p.failID + 1:
		return depreciation.Result{}, errors.New("boom")
	}
	return depreciation.NewEngine().Compute(a, closing)
}

func TestDepreciationBatchIsolatesFailures(t *testing.T) {
	b := NewBatch(sampleIndices(), 3)
	b.depreciation = panickyDepreciator{failID: 1}

	got := b.Depreciation(sampleAssets(), "31/12/2024")

	if got[1].Error == "" {
		t.Error("asset 1: expected error from recovered panic")
	}
	if got[2].Error != "boom" {
		t.Errorf("asset 2: Error = %q, want boom", got[2].Error)
	}
	if got[3].Error != "" {
		t.Errorf("asset 3: unexpected error %q", got[3].Error)
	}
	if !got[1].ResidualValue.Equal(dec("1000000")) {
		t.Errorf("asset 1: ResidualValue = %s, want original value", got[1].ResidualValue)
	}
}

func TestInflationBatch(t *testing.T) {
	b := NewBatch(sampleIndices(), 2)
	assets := sampleAssets()
	depr := b.Depreciation(assets, "31/12/2024")

	got := b.Inflation(assets, "31/12/2024", "31/12/2023", depr)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}

	if !got[1].OK() || !got[1].ValueRestatedCurrent.Equal(dec("3000000")) {
		t.Errorf("asset 1: %+v", got[1])
	}
	// 300/200 = 1.5 current, 150/200 = 0.75 prior
	if !got[2].OK() || !got[2].ValueRestatedPrior.Equal(dec("375000")) {
		t.Errorf("asset 2: ValueRestatedPrior = %s, want 375000", got[2].ValueRestatedPrior)
	}
	if !got[3].ValueRestatedCurrent.Equal(dec("2000000")) {
		t.Errorf("asset 3: ValueRestatedCurrent = %s, want 2000000", got[3].ValueRestatedCurrent)
	}
}

func TestInflationBatchMissingDepreciationDefaultsToZero(t *testing.T) {
	b := NewBatch(sampleIndices(), 1)
	got := b.Inflation(sampleAssets()[:1], "31/12/2024", "31/12/2023", nil)

	r := got[1]
	if !r.OK() {
		t.Fatalf("unexpected failure: %+v", r.Failure)
	}
	if !r.DeprStartRestatedCurrent.IsZero() || !r.PeriodDepreciation.IsZero() {
		t.Errorf("expected zero depreciation, got start %s period %s", r.DeprStartRestatedCurrent, r.PeriodDepreciation)
	}
	if !r.ResidualValue.Equal(dec("3000000")) {
		t.Errorf("ResidualValue = %s, want 3000000", r.ResidualValue)
	}
}

func TestInflationBatchMissingIndexContinues(t *testing.T) {
	r := sampleIndices()
	assets := sampleAssets()
	assets[1].AcquisitionDate = "15/09/2022" // no September 2022 index

	b := NewBatch(r, 2)
	got := b.Inflation(assets, "31/12/2024", "31/12/2023", b.Depreciation(assets, "31/12/2024"))

	if got[2].Status != inflation.StatusIndexError {
		t.Fatalf("asset 2: Status = %s, want index_error", got[2].Status)
	}
	if got[2].Failure.MissingDates[0] != "15/09/2022" {
		t.Errorf("asset 2: MissingDates = %v", got[2].Failure.MissingDates)
	}
	if !got[1].OK() || !got[3].OK() {
		t.Error("other assets must still be restated")
	}
}

func TestBatchResultsIndependentOfConcurrency(t *testing.T) {
	var assets []domain.Asset
	for i := 1; i <= 50; i++ {
		assets = append(assets, domain.Asset{
			ID: i, Description: fmt.Sprintf("bien %d", i), Depreciable: true,
			UsefulLifeYears: i%9 + 1, AcquisitionFiscalYear: 2015 + i%10,
			AcquisitionDate: "01/06/2015", OriginalValue: decimal.NewFromInt(int64(i * 1000)),
		})
	}

	serial := NewBatch(sampleIndices(), 1)
	parallel := NewBatch(sampleIndices(), 8)

	s := serial.Depreciation(assets, "31/12/2024")
	p := parallel.Depreciation(assets, "31/12/2024")
	si := serial.Inflation(assets, "31/12/2024", "31/12/2023", s)
	pi := parallel.Inflation(assets, "31/12/2024", "31/12/2023", p)

	for _, a := range assets {
		if !s[a.ID].EndAccumulated.Equal(p[a.ID].EndAccumulated) {
			t.Errorf("asset %d: serial %s != parallel %s", a.ID, s[a.ID].EndAccumulated, p[a.ID].EndAccumulated)
		}
		if !si[a.ID].ResidualValue.Equal(pi[a.ID].ResidualValue) {
			t.Errorf("asset %d: restated residual differs", a.ID)
		}
	}
}
