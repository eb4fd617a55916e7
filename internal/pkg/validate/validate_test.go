package validate

import "testing"

func TestEmail(t *testing.T) {
	valid := []string{"a@b.cn", "user.name@example.com", "x+tag@mail.co"}
	for _, s := range valid {
		if !Email(s) {
			t.Errorf("Email(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "plain", "a @b.cn", "a@b", "@b.cn", "a@.cn "}
	for _, s := range invalid {
		if Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestPhone(t *testing.T) {
	valid := []string{"13812345678", "19900000000"}
	for _, s := range valid {
		if !Phone(s) {
			t.Errorf("Phone(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "12812345678", "1381234567", "138123456789", "abcdefghijk"}
	for _, s := range invalid {
		if Phone(s) {
			t.Errorf("Phone(%q) = true, want false", s)
		}
	}
}

func TestPassword(t *testing.T) {
	valid := []string{"abcd1234", "P@ssw0rd", "longpassword9"}
	for _, s := range valid {
		if !Password(s) {
			t.Errorf("Password(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "short1", "onlyletters", "12345678", "has space1a"}
	for _, s := range invalid {
		if Password(s) {
			t.Errorf("Password(%q) = true, want false", s)
		}
	}
}
