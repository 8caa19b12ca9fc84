package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("tenant_name", "Acme", v)
	Required("meter_number", "   ", v)
	Required("user_id", "", v)
	if v.Empty() {
		t.Fatalf("expected violations")
	}
	if _, ok := v["tenant_name"]; ok {
		t.Fatalf("tenant_name should pass")
	}
	if v["meter_number"] != "required" || v["user_id"] != "required" {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestNonNegativeInt(t *testing.T) {
	v := Violations{}
	NonNegativeInt("initial_reading", 0, v)
	NonNegativeInt("previous", -1, v)
	if len(v) != 1 || v["previous"] != "must_be_non_negative" {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestMinInt(t *testing.T) {
	v := Violations{}
	MinInt("current", 150, 100, v)
	MinInt("too_low", 50, 100, v)
	if len(v) != 1 || v["too_low"] != "below_minimum" {
		t.Fatalf("unexpected violations: %v", v)
	}
}
