package expire

import "testing"

const now = int64(1_700_000_000)

func mustNew(t *testing.T, defaultToken string, eternal bool) *Resolver {
	t.Helper()
	r, err := New(defaultToken, eternal)
	if err != nil {
		t.Fatalf("New(%q, %v) failed: %v", defaultToken, eternal, err)
	}
	return r
}

func TestResolve_TokenTable(t *testing.T) {
	r := mustNew(t, "1week", false)
	cases := []struct {
		token string
		delta int64
	}{
		{"1min", 60},
		{"10min", 600},
		{"1hour", 3600},
		{"24hour", 86400},
		{"3days", 259200},
		{"1week", 604800},
	}
	for _, c := range cases {
		if got := r.Resolve(c.token, now); got != now+c.delta {
			t.Errorf("Resolve(%q) = %d, want now+%d", c.token, got, c.delta)
		}
	}
}

func TestResolve_NeverRequiresEternalPermission(t *testing.T) {
	eternal := mustNew(t, "1week", true)
	if got := eternal.Resolve("never", now); got != 0 {
		t.Errorf("eternal Resolve(never) = %d, want 0", got)
	}
	mortal := mustNew(t, "1week", false)
	if got := mortal.Resolve("never", now); got != now+604800 {
		t.Errorf("non-eternal Resolve(never) = %d, want now+604800", got)
	}
}

func TestResolve_UnknownTokenFallsBackOnce(t *testing.T) {
	r := mustNew(t, "24hour", false)
	want := r.Resolve("24hour", now)
	if got := r.Resolve("bogus", now); got != want {
		t.Errorf("Resolve(bogus) = %d, want default resolution %d", got, want)
	}
}

func TestResolve_EmptyTokenUsesDefault(t *testing.T) {
	r := mustNew(t, "10min", false)
	if got := r.Resolve("", now); got != now+600 {
		t.Errorf("Resolve(\"\") = %d, want now+600", got)
	}
}

func TestResolve_NeverAsDefault(t *testing.T) {
	r := mustNew(t, "never", true)
	if got := r.Resolve("garbage", now); got != 0 {
		t.Errorf("Resolve(garbage) with never default = %d, want 0", got)
	}
}

func TestNew_RejectsUnknownDefault(t *testing.T) {
	if _, err := New("2weeks", false); err == nil {
		t.Fatal("New accepted unrecognized default token")
	}
}
