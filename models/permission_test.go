package models

import "testing"

func TestMatchPath(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/members/me", "/members/me", true},
		{"/members/me", "/members/other", false},
		{"/members/**", "/members/me", true},
		{"/members/**", "/members/validate/email", true},
		{"/members/**", "/members", true},
		{"/members/**", "/membership", false},
		{"/admin/**", "/admin/members", true},
		{"/admin/**", "/members/me", false},
		{"/members/*/detail", "/members/7/detail", true},
		{"/members/*/detail", "/members/7/8/detail", false},
		{"/mail/**", "/mail/send", true},
	}
	for _, c := range cases {
		if got := MatchPath(c.pattern, c.path); got != c.want {
			t.Fatalf("MatchPath(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestMatchAnyPath(t *testing.T) {
	patterns := []string{"/members/**", "/admin/**"}
	if !MatchAnyPath(patterns, "/admin/members") {
		t.Fatalf("expected match")
	}
	if MatchAnyPath(patterns, "/healthz") {
		t.Fatalf("unexpected match")
	}
}

func TestPermissionBitmaskRoundTrip(t *testing.T) {
	all := AllPermissions()
	mask := EncodePermissions(all)
	got := DecodePermissionMask(mask)
	if len(got) != len(all) {
		t.Fatalf("round trip lost tags: %v", got)
	}
	for i, p := range all {
		if got[i] != p {
			t.Fatalf("order not stable: %v vs %v", got, all)
		}
	}
	if EncodePermissions([]Permission{PermAdmin}) == EncodePermissions([]Permission{PermMember}) {
		t.Fatalf("tags share a bit")
	}
	if EncodePermissions([]Permission{Permission("BOGUS")}) != 0 {
		t.Fatalf("unknown tag encoded")
	}
}

func TestRoleBitmaskRoundTrip(t *testing.T) {
	mask := EncodeRoles([]Role{RoleMember, RoleAdmin})
	got := DecodeRoleMask(mask)
	if len(got) != 2 || got[0] != RoleMember || got[1] != RoleAdmin {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestLookupByName(t *testing.T) {
	if p, ok := PermissionByName("admin"); !ok || p != PermAdmin {
		t.Fatalf("lowercase lookup failed: %v %v", p, ok)
	}
	if p, ok := PermissionByName("Member"); !ok || p != PermMember {
		t.Fatalf("mixed-case lookup failed: %v %v", p, ok)
	}
	if _, ok := PermissionByName("nope"); ok {
		t.Fatalf("unknown name resolved")
	}
	if r, ok := RoleByName("ADMIN"); !ok || r != RoleAdmin {
		t.Fatalf("role lookup failed: %v %v", r, ok)
	}
}

func TestPathSpecInertTags(t *testing.T) {
	for _, p := range AllPermissions() {
		protected, _ := p.PathSpec()
		if len(protected) == 0 {
			t.Fatalf("tag %s unexpectedly inert", p)
		}
	}
}
