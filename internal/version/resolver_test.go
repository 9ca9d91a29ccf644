package version

import (
	"errors"
	"testing"
)

func pool(t *testing.T, versions ...string) *Resolver {
	t.Helper()
	keys := make([]Key, 0, len(versions))
	for _, v := range versions {
		keys = append(keys, mustParse(t, v))
	}
	return NewResolver(keys)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pool []string
		spec string
		want string
	}{
		{"minor prefix picks highest patch", []string{"3.12.1", "3.12.3", "3.11.9"}, "3.12", "3.12.3"},
		{"major prefix picks highest line", []string{"3.8.19", "3.12.3"}, "3", "3.12.3"},
		{"exact version", []string{"3.12.1", "3.12.3"}, "3.12.1", "3.12.1"},
		{"exact pre-release", []string{"3.14.0rc2", "3.13.2"}, "3.14.0rc2", "3.14.0rc2"},
		{"prefix may land on pre-release when it is highest", []string{"3.14.0rc2", "3.13.2"}, "3.14", "3.14.0rc2"},
		{"empty specifier means latest final", []string{"3.14.0rc2", "3.13.2", "3.12.3"}, "", "3.13.2"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := pool(t, tt.pool...).Resolve(tt.spec)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.spec, err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.spec, got, tt.want)
			}
		})
	}
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	r := pool(t, "3.12.3")
	if _, err := r.Resolve("4"); !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("Resolve(%q) = %v, want ErrNoMatchingVersion", "4", err)
	}

	// Exact final-form specifier must not match a pre-release.
	r = pool(t, "3.13.0rc3")
	if _, err := r.Resolve("3.13.0"); !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("Resolve(%q) = %v, want ErrNoMatchingVersion", "3.13.0", err)
	}

	// Empty specifier with only pre-releases available.
	r = pool(t, "3.14.0rc1")
	if _, err := r.Resolve(""); !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("Resolve(\"\") = %v, want ErrNoMatchingVersion", err)
	}
}

func TestResolveUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pool []string
		spec string
		want string
	}{
		{"absent patch widens to release line", []string{"3.12.4"}, "3.12.1", "3.12.4"},
		{"present version resolves to itself", []string{"3.12.1", "3.12.5"}, "3.12.1", "3.12.1"},
		{"same version still matches", []string{"3.12.4"}, "3.12.4", "3.12.4"},
		{"present pre-release resolves to itself", []string{"3.14.0rc2", "3.14.0"}, "3.14.0rc2", "3.14.0rc2"},
		{"major stays within major", []string{"3.11.9", "3.12.4"}, "3", "3.12.4"},
		{"final never updates to pre-release", []string{"3.13.0rc2", "3.12.4"}, "3.12.1", "3.12.4"},
		{"pre-release updates to final", []string{"3.14.0", "3.14.0rc2"}, "3.14.0rc1", "3.14.0"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := pool(t, tt.pool...).ResolveUpdate(tt.spec)
			if err != nil {
				t.Fatalf("ResolveUpdate(%q): %v", tt.spec, err)
			}
			if got.String() != tt.want {
				t.Errorf("ResolveUpdate(%q) = %s, want %s", tt.spec, got, tt.want)
			}
		})
	}
}

func TestResolveUpdateFinalOnly(t *testing.T) {
	t.Parallel()

	// A final release with only pre-releases in the widened line has no target.
	r := pool(t, "3.13.0rc2")
	if _, err := r.ResolveUpdate("3.13.0"); !errors.Is(err, ErrNoMatchingVersion) {
		t.Errorf("ResolveUpdate(%q) = %v, want ErrNoMatchingVersion", "3.13.0", err)
	}
}
