package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2-hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "hunter2-hunter2" {
		t.Fatalf("expected hash to differ from the password")
	}
	if !ComparePassword(hash, "hunter2-hunter2") {
		t.Fatalf("expected matching password to compare")
	}
	if ComparePassword(hash, "wrong-password") {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestHashPassword_SaltsEachCall(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if a == b {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("admin") != RoleAdmin {
		t.Fatalf("expected admin")
	}
	if ParseRole("superuser") != RoleUser {
		t.Fatalf("expected unknown roles to default to user")
	}
}
