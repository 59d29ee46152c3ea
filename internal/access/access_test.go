package access

import "testing"

func TestResolveNormalizesAndChecks(t *testing.T) {
	t.Parallel()

	c := NewChecker([]string{" Admin@Example.com ", "second@example.com", ""})

	level := c.Resolve("ADMIN@example.COM")
	if !level.CanManage {
		t.Fatalf("expected admin to manage, got %+v", level)
	}
	if level.Identity != "admin@example.com" {
		t.Fatalf("expected normalized identity, got %q", level.Identity)
	}

	level = c.Resolve("visitor@example.com")
	if level.CanManage {
		t.Fatalf("unknown email must not manage")
	}
	if level.Identity != "visitor@example.com" {
		t.Fatalf("identity should survive without permission, got %q", level.Identity)
	}

	if level = c.Resolve("  "); level.CanManage || level.Identity != "" {
		t.Fatalf("blank email should resolve to zero level, got %+v", level)
	}
}
