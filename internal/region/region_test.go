package region

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Region
		ok   bool
	}{
		{"IND1", IND1, true},
		{"ind1", IND1, true},
		{" usa1 ", USA1, true},
		{"Deu1", DEU1, true},
		{"GBR1", "", false},
		{"IND", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("Parse(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("Parse(%q) should fail", c.in)
		}
	}
}

func TestValid(t *testing.T) {
	if !USA1.Valid() {
		t.Error("USA1 should be valid")
	}
	if Region("XXX9").Valid() {
		t.Error("XXX9 should not be valid")
	}
}
