package domain

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"010-1234-5678", "01012345678"},
		{"010 1234 5678", "01012345678"},
		{"(010) 1234.5678", "01012345678"},
		{"+82-10-1234-5678", "01012345678"},
		{"821012345678", "01012345678"},
		{"01012345678", "01012345678"},
		{"", ""},
		{"abc", ""},
		{"82", "82"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneIdentifiesSamePatient(t *testing.T) {
	variants := []string{"010-1234-5678", "+82 10 1234 5678", "01012345678"}
	first := NormalizePhone(variants[0])
	for _, v := range variants[1:] {
		if NormalizePhone(v) != first {
			t.Fatalf("variant %q normalized differently", v)
		}
	}
}
