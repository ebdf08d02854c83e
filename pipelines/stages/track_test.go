// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/pipelines/stages"
	"github.com/spf13/afero"
)

func TestCladeLabel(t *testing.T) {
	for input, want := range map[string]string{
		"Gamma:Alpha": "Alpha:Gamma",
		"B: A":        "A:B",
		"ROOT":        "ROOT",
	} {
		if got := stages.CladeLabel(input); got != want {
			t.Errorf("CladeLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTrackClade(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/runs/a.trees", []byte(runTrees), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := stages.NewIngestService(nil, stages.NewParseService(2, nil))
	svc.SetFS(fs)
	trees, err := svc.ParseFile(context.Background(), "/runs/a.trees")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	track, err := stages.TrackClade(trees, "Beta:Alpha", "z", phylotree.Standard, 1)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if track.Clade != "Alpha:Beta" || track.Total != 2 || track.Matched != 1 {
		t.Errorf("track = %+v, want Alpha:Beta matched 1 of 2", track)
	}
	want := []stages.CladeSample{{Index: 2, NodeID: 1, States: []int{1}}}
	if diff := cmp.Diff(want, track.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if got := track.Frequency(); got != 0.5 {
		t.Errorf("Frequency = %g, want 0.5", got)
	}

	all, err := stages.TrackClade(trees, "ROOT", "", phylotree.Standard, 0)
	if err != nil {
		t.Fatalf("track ROOT: %v", err)
	}
	if all.Matched != 3 || all.Samples != nil {
		t.Errorf("ROOT track = %+v, want 3 matches and no samples", all)
	}

	past, err := stages.TrackClade(trees, "Alpha:Beta", "z", phylotree.Standard, 10)
	if err != nil || past.Total != 0 || past.Frequency() != 0 {
		t.Errorf("burn-in past the end = %+v, %v", past, err)
	}
	if _, err := stages.TrackClade(trees, "Alpha:Beta", "z", phylotree.Standard, -1); err == nil {
		t.Errorf("negative burn-in err = nil, want error")
	}
}
