package i18n

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"pt-BR", PtBR},
		{"en", En},
		{"en-US", En},
		{"pt", PtBR},
		{"", PtBR},
		{"fr-FR", PtBR},
	}
	for _, tt := range tests {
		if got := Lookup(tt.locale).Locale; got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	pt := Lookup(PtBR)
	en := Lookup(En)
	for key := range pt.Messages {
		if _, ok := en.Messages[key]; !ok {
			t.Errorf("en catalog missing %q", key)
		}
	}
	if len(pt.Messages) != len(en.Messages) {
		t.Errorf("catalog sizes differ: %d vs %d", len(pt.Messages), len(en.Messages))
	}
}

func TestMessageFallsBackToKey(t *testing.T) {
	if got := Lookup(En).Message("title", "email"); got != "title.email" {
		t.Errorf("Message = %q", got)
	}
}
