package config

import "testing"

func TestResolvedAuthMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit jwt", Config{AuthMode: "jwt", SupabaseURL: "https://x.supabase.co"}, "jwt"},
		{"explicit supabase", Config{AuthMode: "supabase"}, "supabase"},
		{"inferred supabase", Config{SupabaseURL: "https://x.supabase.co"}, "supabase"},
		{"inferred jwt", Config{}, "jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolvedAuthMode(); got != tt.want {
				t.Errorf("ResolvedAuthMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"jwt with secret", Config{AuthMode: "jwt", JWTSecret: "s3cr3t"}, false},
		{"jwt without secret", Config{AuthMode: "jwt"}, true},
		{"supabase complete", Config{AuthMode: "supabase", SupabaseURL: "https://x.supabase.co", SupabaseServiceKey: "key"}, false},
		{"supabase missing url", Config{AuthMode: "supabase", SupabaseServiceKey: "key"}, true},
		{"supabase missing key", Config{AuthMode: "supabase", SupabaseURL: "https://x.supabase.co"}, true},
		{"unknown mode", Config{AuthMode: "oauth"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected development env to be dev")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected production env to not be dev")
	}
}
