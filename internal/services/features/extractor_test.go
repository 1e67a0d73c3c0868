package features

import (
    "math"
    "testing"
    "time"

    "SweepSim/internal/domain/models"
)

func closes(vals ...float64) []models.Candle {
    out := make([]models.Candle, len(vals))
    ts := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)
    for i, v := range vals {
        out[i] = models.Candle{Timestamp: ts.Add(time.Duration(i) * time.Minute), Close: v}
    }
    return out
}

func TestComputeLogReturns(t *testing.T) {
    if got := ComputeLogReturns(closes(100)); got != nil {
        t.Fatalf("single candle should yield nil, got %v", got)
    }

    rs := ComputeLogReturns(closes(100, 110, 99))
    if len(rs) != 2 {
        t.Fatalf("len = %d, want 2", len(rs))
    }
    if math.Abs(rs[0]-math.Log(1.1)) > 1e-12 {
        t.Errorf("r0 = %v, want ln(1.1)", rs[0])
    }
    if math.Abs(rs[1]-math.Log(99.0/110.0)) > 1e-12 {
        t.Errorf("r1 = %v, want ln(99/110)", rs[1])
    }
}

func TestComputeLogReturnsSkipsNonPositivePrices(t *testing.T) {
    rs := ComputeLogReturns(closes(100, 0, 100))
    if rs[0] != 0 || rs[1] != 0 {
        t.Errorf("returns around zero price should be 0, got %v", rs)
    }
}

func TestRealizedVolatility(t *testing.T) {
    if got := RealizedVolatility([]float64{0.01}, 5, 100); got != 0 {
        t.Fatalf("insufficient data should yield 0, got %v", got)
    }
    if got := RealizedVolatility([]float64{0.01, 0.01, 0.01, 0.01}, 4, 100); got != 0 {
        t.Fatalf("constant returns should yield 0, got %v", got)
    }

    // alternating +-1%: mean 0, variance = 6e-4/5
    rs := []float64{0.01, -0.01, 0.01, -0.01, 0.01, -0.01}
    got := RealizedVolatility(rs, 6, 1)
    want := math.Sqrt(6.0 * 1e-4 / 5.0)
    if math.Abs(got-want) > 1e-12 {
        t.Errorf("vol = %v, want %v", got, want)
    }
}
