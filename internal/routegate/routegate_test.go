package routegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		decision Decision
		location string
	}{
		{
			name: "feature disabled aborts even for admins",
			req: Request{
				FeatureEnabled: false,
				Meta:           AllowAll(),
				Authenticated:  true,
				Grants:         []string{"achievement:admin"},
				TargetPath:     "/cms/badges",
			},
			decision: Abort,
		},
		{
			name: "denied route rejects authenticated user",
			req: Request{
				FeatureEnabled: true,
				Meta:           Denied(),
				Authenticated:  true,
				TargetPath:     "/cms/badges",
			},
			decision: Deny403,
		},
		{
			name: "denied route wins over login redirect",
			req: Request{
				FeatureEnabled: true,
				Meta:           Denied(),
				Authenticated:  false,
				TargetPath:     "/cms/badges",
			},
			decision: Deny403,
		},
		{
			name: "unauthenticated redirects to login",
			req: Request{
				FeatureEnabled: true,
				Meta:           AllowAll(),
				Authenticated:  false,
				TargetPath:     "/cms/badges",
			},
			decision: RedirectToLogin,
			location: DefaultLoginPath,
		},
		{
			name: "unauthenticated already at login allowed",
			req: Request{
				FeatureEnabled: true,
				Meta:           AllowAll(),
				Authenticated:  false,
				TargetPath:     DefaultLoginPath,
			},
			decision: Allow,
		},
		{
			name: "custom login path used for redirect",
			req: Request{
				FeatureEnabled: true,
				Meta:           AllowAll(),
				Authenticated:  false,
				TargetPath:     "/cms/certificates",
				LoginPath:      "/signin",
			},
			decision: RedirectToLogin,
			location: "/signin",
		},
		{
			name: "grant list satisfied",
			req: Request{
				FeatureEnabled: true,
				Meta:           RequireAny("achievement:write"),
				Authenticated:  true,
				Grants:         []string{"achievement:write", "other"},
				TargetPath:     "/cms/badges",
			},
			decision: Allow,
		},
		{
			name: "grant list unsatisfied",
			req: Request{
				FeatureEnabled: true,
				Meta:           RequireAny("achievement:write"),
				Authenticated:  true,
				Grants:         []string{"other"},
				TargetPath:     "/cms/badges",
			},
			decision: Deny403,
		},
		{
			name: "empty grant list behaves as denied",
			req: Request{
				FeatureEnabled: true,
				Meta:           RequireAny(),
				Authenticated:  true,
				Grants:         []string{"achievement:write"},
				TargetPath:     "/cms/badges",
			},
			decision: Deny403,
		},
		{
			name: "open route allows authenticated user without grants",
			req: Request{
				FeatureEnabled: true,
				Meta:           AllowAll(),
				Authenticated:  true,
				TargetPath:     "/cms/badges",
			},
			decision: Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.req)
			assert.Equal(t, tt.decision, got.Decision)
			assert.Equal(t, tt.location, got.Location)
		})
	}
}

func TestRBACMetaPermits(t *testing.T) {
	assert.True(t, AllowAll().Permits(nil))
	assert.False(t, Denied().Permits([]string{"anything"}))
	assert.True(t, RequireAny("a", "b").Permits([]string{"b"}))
	assert.False(t, RequireAny("a").Permits(nil))
}
