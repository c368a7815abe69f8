package session

import "sort"

// Metadata summarizes a session without its message bodies.
type Metadata struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	CreatedAt        int64   `json:"createdAt"`
	UpdatedAt        int64   `json:"updatedAt"`
	MessageCount     int     `json:"messageCount"`
	HasDiagram       bool    `json:"hasDiagram"`
	ThumbnailDataURL *string `json:"thumbnailDataUrl"`
}

// Clone returns a copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.ThumbnailDataURL = cloneString(m.ThumbnailDataURL)
	return &c
}

// CloneMetadata copies a metadata list.
func CloneMetadata(list []*Metadata) []*Metadata {
	cloned := make([]*Metadata, 0, len(list))
	for _, m := range list {
		cloned = append(cloned, m.Clone())
	}
	return cloned
}

// SortMetadata orders a metadata list most recently updated first.
func SortMetadata(list []*Metadata) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt > list[j].UpdatedAt })
}
