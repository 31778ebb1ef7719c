package service

import "testing"

func TestBcryptHasher_FreshSaltPerCall(t *testing.T) {
	h := NewBcryptHasher(4)

	d1, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	d2, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if d1 == d2 {
		t.Fatalf("two digests of the same plaintext are identical")
	}
	if !h.Verify("secret1", d1) || !h.Verify("secret1", d2) {
		t.Fatalf("verification failed for freshly created digests")
	}
}

func TestBcryptHasher_Verify(t *testing.T) {
	h := NewBcryptHasher(4)

	digest, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if h.Verify("wrong", digest) {
		t.Fatalf("wrong password verified")
	}
	if h.Verify("", digest) {
		t.Fatalf("empty password verified")
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(4)

	for _, digest := range []string{"", "not-a-bcrypt-digest", "$2a$garbage"} {
		if h.Verify("secret1", digest) {
			t.Fatalf("malformed digest %q verified", digest)
		}
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	h := NewBcryptHasher(99)

	digest, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash with clamped cost failed: %v", err)
	}
	if !h.Verify("secret1", digest) {
		t.Fatalf("verification failed after cost clamp")
	}
}
