package authz

import (
	"testing"
	"time"
)

func TestGenerateAndValidateAgentToken(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123", time.Minute)
	token, err := mgr.GenerateAgentToken("match-42", 2, "werewolf")
	if err != nil {
		t.Fatalf("generate agent token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.MatchID != "match-42" {
		t.Errorf("expected match_id=match-42, got %s", claims.MatchID)
	}
	if claims.Player != 2 {
		t.Errorf("expected player=2, got %d", claims.Player)
	}
	if claims.Game != "werewolf" {
		t.Errorf("expected game=werewolf, got %s", claims.Game)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr1 := NewJWTManager("secret-one", time.Minute)
	mgr2 := NewJWTManager("secret-two", time.Minute)

	token, err := mgr1.GenerateAgentToken("match-1", 0, "avalon")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = mgr2.ValidateToken(token)
	if err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute)
	_, err := mgr.ValidateToken("not-a-jwt")
	if err == nil {
		t.Error("expected error for garbage token")
	}
	_, err = mgr.ValidateToken("")
	if err == nil {
		t.Error("expected error for empty token")
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := &JWTManager{secret: []byte("test-secret"), expiry: -1 * time.Second}
	token, err := mgr.GenerateAgentToken("match-1", 0, "spyfall")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = mgr.ValidateToken(token)
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestDifferentPlayersGetDifferentTokens(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute)
	t1, _ := mgr.GenerateAgentToken("match-1", 0, "amongus")
	t2, _ := mgr.GenerateAgentToken("match-1", 1, "amongus")
	if t1 == t2 {
		t.Error("different players should get different tokens")
	}
}
