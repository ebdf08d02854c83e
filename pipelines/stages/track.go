// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mdhender/phylotree"
)

// CladeSample is the state vector of a clade in one sampled tree.
type CladeSample struct {
	Index  int // position of the tree in the sample
	NodeID int
	States []int
}

// CladeTrack is the result of following one clade through a sample.
type CladeTrack struct {
	Clade   string
	Total   int // trees after the burn-in
	Matched int // trees that contain the clade
	Samples []CladeSample
}

// Frequency returns the share of trees that contain the clade.
func (c *CladeTrack) Frequency() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Total)
}

// CladeLabel turns a list of taxa separated by ":" into the label
// LabelClades gives the clade, e.g. "C:A" becomes "A:C".
func CladeLabel(taxa string) string {
	list := strings.Split(taxa, phylotree.CladeSeparator)
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	sort.Strings(list)
	return strings.Join(list, phylotree.CladeSeparator)
}

// TrackClade skips the first burnin trees, labels the clades of the rest
// and collects the states of key at the clade in every tree that has it.
// If key is empty, only the match counts are collected.
func TrackClade(trees []*phylotree.Tree, clade, key string, coding phylotree.Coding, burnin int) (*CladeTrack, error) {
	if burnin < 0 {
		return nil, fmt.Errorf("burn-in %d: must not be negative", burnin)
	}
	track := &CladeTrack{Clade: CladeLabel(clade)}
	for i := burnin; i < len(trees); i++ {
		track.Total++
		id, ok := phylotree.LabelClades(trees[i])[track.Clade]
		if !ok {
			continue
		}
		track.Matched++
		if key == "" {
			continue
		}
		states, err := trees[i].NodeStates(id, key, coding)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		track.Samples = append(track.Samples, CladeSample{Index: i, NodeID: id, States: states})
	}
	return track, nil
}
