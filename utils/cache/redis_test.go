package cache

import "testing"

func TestTenantKeyPrefix(t *testing.T) {
	if got := TenantKeyPrefix(42); got != "campus:u42:" {
		t.Errorf("TenantKeyPrefix(42) = %q", got)
	}

	// Prefixes of different tenants must never overlap, or a tenant-wide
	// invalidation would spill into another tenant's namespace.
	a, b := TenantKeyPrefix(1), TenantKeyPrefix(11)
	if len(a) <= len(b) && b[:len(a)] == a {
		t.Errorf("prefix %q is a prefix of %q", a, b)
	}
}
