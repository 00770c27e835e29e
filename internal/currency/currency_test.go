package currency

import "testing"

func TestConvertIdentity(t *testing.T) {
	c := NewConverter(130)
	got, err := c.Convert(42.37, "USD", "USD")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 42.37 {
		t.Errorf("identity conversion = %v, want 42.37", got)
	}
}

func TestConvertUsdToKes(t *testing.T) {
	c := NewConverter(130)
	got, err := c.Convert(10, "USD", "KES")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != 1300 {
		t.Errorf("10 USD = %v KES, want 1300", got)
	}
}

func TestConvertRoundTripStaysClose(t *testing.T) {
	c := NewConverter(129.5)
	kes, err := c.Convert(25, "USD", "KES")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	back, err := c.Convert(kes, "KES", "USD")
	if err != nil {
		t.Fatalf("convert back: %v", err)
	}
	if back < 24.99 || back > 25.01 {
		t.Errorf("round trip 25 USD -> %v KES -> %v USD", kes, back)
	}
}

func TestConvertCaseAndWhitespace(t *testing.T) {
	c := NewConverter(130)
	if _, err := c.Convert(5, " usd ", "kes"); err != nil {
		t.Errorf("lowercase codes rejected: %v", err)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := NewConverter(130)
	if _, err := c.Convert(5, "USD", "XXX"); err == nil {
		t.Error("expected error for unknown target currency")
	}
	if _, err := c.Convert(5, "ZZZ", "USD"); err == nil {
		t.Error("expected error for unknown source currency")
	}
}
