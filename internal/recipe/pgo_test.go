package recipe

import (
	"testing"

	"github.com/cruciblehq/specsmith/internal/conf"
)

func TestModeFor(t *testing.T) {
	tests := []struct {
		name string
		mut  func(o *conf.Options)
		want PGOMode
	}{
		{
			name: "no flags",
			mut:  func(o *conf.Options) {},
			want: PGONone,
		},
		{
			name: "payload and altflags",
			mut: func(o *conf.Options) {
				o.ProfilePayload = []string{"./run-bench"}
				o.AltflagsPGO = true
			},
			want: PGOInProcess,
		},
		{
			name: "externally phased",
			mut: func(o *conf.Options) {
				o.AltflagsPGOExt = true
			},
			want: PGOExternal,
		},
		{
			name: "in-process wins when both are set",
			mut: func(o *conf.Options) {
				o.ProfilePayload = []string{"./run-bench"}
				o.AltflagsPGO = true
				o.AltflagsPGOExt = true
			},
			want: PGOInProcess,
		},
		{
			name: "fsalt1 disables everything",
			mut: func(o *conf.Options) {
				o.ProfilePayload = []string{"./run-bench"}
				o.AltflagsPGO = true
				o.AltflagsPGOExt = true
				o.FSAlt1 = true
			},
			want: PGONone,
		},
		{
			name: "payload without altflags is not in-process",
			mut: func(o *conf.Options) {
				o.ProfilePayload = []string{"./run-bench"}
			},
			want: PGONone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := conf.Default()
			tt.mut(o)
			if got := ModeFor(o); got != tt.want {
				t.Fatalf("ModeFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExternalPhase(t *testing.T) {
	o := conf.Default()
	if got := ExternalPhase(o); got != PhaseGen {
		t.Fatalf("phase = %v, want PhaseGen", got)
	}
	o.AltflagsPGOExtPhase = true
	if got := ExternalPhase(o); got != PhaseUse {
		t.Fatalf("phase = %v, want PhaseUse", got)
	}
}

func TestMarkerFor(t *testing.T) {
	if got := MarkerFor(Default64); got != "statuspgo" {
		t.Fatalf("marker = %q, want statuspgo", got)
	}
	if got := MarkerFor(Special); got != "statuspgo.special" {
		t.Fatalf("special marker = %q, want statuspgo.special", got)
	}
	if got := MarkerFor(AVX2); got != "statuspgo" {
		t.Fatalf("avx2 marker = %q, want statuspgo", got)
	}
}
