package domain

import "time"

// ArtifactKind identifies one of the four files the feed publishes per
// trading day.
type ArtifactKind string

const (
	KindTickData      ArtifactKind = "tick_data"
	KindTickStructure ArtifactKind = "tick_structure"
	KindTCData        ArtifactKind = "tc_data"
	KindTCStructure   ArtifactKind = "tc_structure"
)

// IsSchema reports whether the kind carries a structure/schema definition
// rather than trading data. Schema artifacts land in the reference store,
// data artifacts in the raw store.
func (k ArtifactKind) IsSchema() bool {
	return k == KindTickStructure || k == KindTCStructure
}

// ArtifactKinds returns every kind in processing order.
func ArtifactKinds() []ArtifactKind {
	return []ArtifactKind{KindTickData, KindTickStructure, KindTCData, KindTCStructure}
}

// ArtifactRef names one downloadable artifact on a catalog item.
type ArtifactRef struct {
	Kind     ArtifactKind
	Filename string
}

// CatalogItem is one date's release as described by the upstream feed.
// Immutable once built; scoped to a single run.
type CatalogItem struct {
	Date        time.Time
	DisplayDate string
	Key         string
	Artifacts   []ArtifactRef
}

// Artifact returns the ref for the given kind, or nil if the feed item
// did not carry it.
func (c *CatalogItem) Artifact(kind ArtifactKind) *ArtifactRef {
	for i := range c.Artifacts {
		if c.Artifacts[i].Kind == kind {
			return &c.Artifacts[i]
		}
	}
	return nil
}

// StagedArtifact is a fully downloaded file awaiting a version-store
// commit. Owned exclusively by the run that created it; removed on commit
// or discard.
type StagedArtifact struct {
	Path string
	Name string
	Size int64
}
