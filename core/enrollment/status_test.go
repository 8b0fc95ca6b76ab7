package enrollment

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		remaining float64
		paid      float64
		want      Status
	}{
		{name: "failed token", raw: "failed", remaining: 100, paid: 0, want: StatusFailed},
		{name: "failed outranks zero balance", raw: "FAILED", remaining: 0, paid: 500, want: StatusFailed},
		{name: "rejected", raw: "rejected", remaining: 100, paid: 50, want: StatusFailed},
		{name: "cancelled both spellings", raw: "canceled", remaining: 100, paid: 0, want: StatusFailed},
		{name: "defaulted token", raw: "overdue", remaining: 100, paid: 20, want: StatusDefaulted},
		{name: "in arrears with underscore", raw: "in_arrears", remaining: 100, paid: 20, want: StatusDefaulted},
		{name: "defaulted outranks completed facts", raw: "late", remaining: 0, paid: 100, want: StatusDefaulted},
		{name: "completed token", raw: "paid off", remaining: 100, paid: 0, want: StatusCompleted},
		{name: "settled with dash", raw: "paid-off", remaining: 100, paid: 0, want: StatusCompleted},
		{name: "zero balance completes", raw: "", remaining: 0, paid: 1000, want: StatusCompleted},
		{name: "overpaid completes", raw: "whatever", remaining: -50, paid: 1050, want: StatusCompleted},
		{name: "active token", raw: "on track", remaining: 100, paid: 0, want: StatusActive},
		{name: "mixed case with spaces", raw: "  Due Soon ", remaining: 100, paid: 0, want: StatusActive},
		{name: "payments imply active", raw: "", remaining: 500, paid: 500, want: StatusActive},
		{name: "unknown token with payments", raw: "gibberish", remaining: 500, paid: 500, want: StatusActive},
		{name: "no token no payments", raw: "", remaining: 1000, paid: 0, want: StatusPending},
		{name: "unknown token no payments", raw: "gibberish", remaining: 1000, paid: 0, want: StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.remaining, tt.paid); got != tt.want {
				t.Errorf("Normalize(%q, %v, %v) = %s, want %s", tt.raw, tt.remaining, tt.paid, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotentOnItsOutput(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusActive, StatusCompleted, StatusDefaulted, StatusFailed} {
		remaining, paid := 100.0, 50.0
		if status == StatusCompleted {
			remaining = 0
		}
		if status == StatusPending {
			paid = 0
		}
		if got := Normalize(string(status), remaining, paid); got != status {
			t.Errorf("Normalize(%q) = %s, want %s", status, got, status)
		}
	}
}
