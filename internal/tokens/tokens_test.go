package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("test-secret-32-bytes-should-be-long", 0)
	tok, err := iss.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	uid, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if uid != "user-123" {
		t.Fatalf("unexpected user id: got=%q want=%q", uid, "user-123")
	}
}

func TestVerify_ThirtyDayWindow(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("window-secret-32-bytes-xxxxxxxxxxxx", 0)
	iss.now = func() time.Time { return issued }
	tok, err := iss.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// accepted 29 days after issuance
	iss.now = func() time.Time { return issued.Add(29 * 24 * time.Hour) }
	if _, err := iss.Verify(tok); err != nil {
		t.Fatalf("expected token valid at T+29d, got: %v", err)
	}

	// rejected with ErrExpired 31 days after issuance
	iss.now = func() time.Time { return issued.Add(31 * 24 * time.Hour) }
	if _, err := iss.Verify(tok); err != ErrExpired {
		t.Fatalf("expected ErrExpired at T+31d, got: %v", err)
	}
}

func TestRemainingLife_TracksExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("remaining-secret-32-bytes-xxxxxxxxxx", time.Hour)
	iss.now = func() time.Time { return issued }
	tok, err := iss.Issue("u3")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	iss.now = func() time.Time { return issued.Add(40 * time.Minute) }
	rem, err := iss.RemainingLife(tok)
	if err != nil {
		t.Fatalf("RemainingLife error: %v", err)
	}
	if rem != 20*time.Minute {
		t.Fatalf("unexpected remaining life: got=%v want=%v", rem, 20*time.Minute)
	}

	if _, err := iss.RemainingLife("garbage"); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed for garbage, got: %v", err)
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	iss := NewIssuer("secret-one-32-bytes-xxxxxxxxxxxxxxxx", 0)
	tok, err := iss.Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	other := NewIssuer("different-secret-xxxxxxxxxxxxxxxxxxx", 0)
	if _, err := other.Verify(tok); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed with wrong secret, got: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	iss := NewIssuer("x", 0)
	for _, raw := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := iss.Verify(raw); err != ErrMalformed {
			t.Fatalf("expected ErrMalformed for %q, got: %v", raw, err)
		}
	}
}

// Rejected when alg=none (unsigned token)
func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"userId":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	iss := NewIssuer("whatever-secret", 0)
	if _, err := iss.Verify(tok); err != ErrMalformed {
		t.Fatalf("expected alg=none token rejected, got: %v", err)
	}
}

// Tampering with the payload must fail signature verification
func TestVerify_TamperedPayload(t *testing.T) {
	iss := NewIssuer("tamper-test-secret-32-bytes-xxxxxxx", 0)
	tok, err := iss.Issue("user-t")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := jwt.NewParser().DecodeSegment(parts[1])
	parts[1] = (&jwt.Token{}).EncodeSegment([]byte(strings.Replace(string(payloadBytes), "user-t", "attacker", 1)))
	if _, err := iss.Verify(strings.Join(parts, ".")); err != ErrMalformed {
		t.Fatalf("expected tampered token rejected, got: %v", err)
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	iss := NewIssuer("missing-claim-secret-32-bytes-xxxxx", 0)
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("missing-claim-secret-32-bytes-xxxxx"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := iss.Verify(raw); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed without userId claim, got: %v", err)
	}
}
