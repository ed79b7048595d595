package instant

import (
	"sort"

	"dictengine/dict"
)

// Prepared is the dry-run output of PrepareInstant: everything Column
// needs to commit the change into the live dictionary, without having
// mutated table yet.
type Prepared struct {
	Image         *dict.Table // T'_image: matches the target schema's columns
	ClusteredFields []*dict.Field
	NDropped      int
	Dropped       []*dict.Col // images of all dropped columns, old-then-new
	PureAppend    bool
	FirstAlterPos int // 1-based; 0 means the key prefix is unchanged
}

// PrepareInstant runs the dry run against table, its
// target schema image, and the column map connecting old to new positions.
func PrepareInstant(table, image *dict.Table, colMap dict.ColMap) (*Prepared, error) {
	clustered := table.Clustered()
	u := clustered.FirstUserField()

	firstAlterPos := computeFirstAlterPos(clustered, colMap, u)

	pureAppend := firstAlterPos == 0 && table.Instant == nil

	p := &Prepared{
		Image:         image,
		PureAppend:    pureAppend,
		FirstAlterPos: firstAlterPos,
	}

	if pureAppend {
		p.ClusteredFields = image.Clustered().Fields
		return p, nil
	}

	var oldDropped []*dict.Col
	if table.Instant != nil {
		oldDropped = table.Instant.Dropped
	}
	newlyDropped := collectNewlyDropped(table, colMap)
	p.Dropped = append(append([]*dict.Col{}, oldDropped...), newlyDropped...)
	p.NDropped = len(p.Dropped)

	p.ClusteredFields = buildGeneralFields(table, image, colMap, p.Dropped, len(oldDropped))
	return p, nil
}

// computeFirstAlterPos returns the smallest 1-based old user-column
// position whose colMap entry differs from identity, or 0 if the clustered
// key's user-column prefix is unchanged.
func computeFirstAlterPos(clustered *dict.Index, colMap dict.ColMap, firstUserField int) int {
	for i := firstUserField; i < len(clustered.Fields); i++ {
		f := clustered.Fields[i]
		col := f.Col.Column()
		if col == nil {
			continue
		}
		newPos, ok := colMap.NewPos(col.Ind)
		if !ok || newPos != col.Ind {
			return i - firstUserField + 1
		}
	}
	return 0
}

// collectNewlyDropped returns, in old-position order, the *dict.Col images
// of columns dropped by this ALTER (previously-surviving columns whose
// colMap entry is now Undefined).
func collectNewlyDropped(table *dict.Table, colMap dict.ColMap) []*dict.Col {
	var out []*dict.Col
	for _, col := range table.Cols {
		if col.Dropped {
			continue // already accounted for in table.Instant.Dropped
		}
		if col.Ind >= len(colMap) {
			continue
		}
		if _, ok := colMap.NewPos(col.Ind); !ok {
			image := *col
			image.Dropped = true
			out = append(out, &image)
		}
	}
	return out
}

// buildGeneralFields builds the new clustered-index field array by walking
// the old index positions: dropped fields point into the
// dropped array, surviving fields move to their new position, and the tail
// (instantly-added user columns) is appended sorted by col.Ind.
func buildGeneralFields(table, image *dict.Table, colMap dict.ColMap, dropped []*dict.Col, oldNDropped int) []*dict.Field {
	clustered := table.Clustered()
	u := clustered.FirstUserField()

	fields := make([]*dict.Field, 0, len(clustered.Fields)+len(dropped))
	fields = append(fields, clustered.Fields[:u]...)

	droppedSoFar := 0
	for i := u; i < len(clustered.Fields); i++ {
		f := clustered.Fields[i]
		if f.Col.IsDropped() {
			fields = append(fields, &dict.Field{
				Col:      dict.ColumnRef{Dropped: dropped[droppedSoFar]},
				PrefixLen:  f.PrefixLen,
				Descending: f.Descending,
				FixedLen:   f.FixedLen,
			})
			droppedSoFar++
			continue
		}
		col := f.Col.Column()
		if col == nil {
			continue
		}
		newPos, ok := colMap.NewPos(col.Ind)
		if !ok {
			newImage := dropped[oldNDropped+countNewlyDroppedBefore(table, colMap, col.Ind)]
			fields = append(fields, &dict.Field{
				Col:        dict.ColumnRef{Dropped: newImage},
				PrefixLen:  f.PrefixLen,
				Descending: f.Descending,
				FixedLen:   f.FixedLen,
			})
			continue
		}
		newCol := image.Cols[newPos]
		fields = append(fields, &dict.Field{
			Col:        dict.ColumnRef{Live: newCol},
			Name:       newCol.Name,
			PrefixLen:  f.PrefixLen,
			Descending: f.Descending,
			FixedLen:   f.FixedLen,
		})
	}

	tail := addedColumnTail(table, image, colMap)
	fields = append(fields, tail...)
	return fields
}

// countNewlyDroppedBefore counts how many columns before old position pos
// (exclusive) are newly dropped by colMap, used to find a dropped column's
// offset within the newly-dropped tail of the Dropped slice.
func countNewlyDroppedBefore(table *dict.Table, colMap dict.ColMap, pos int) int {
	n := 0
	for _, col := range table.Cols {
		if col.Dropped || col.Ind >= pos {
			continue
		}
		if _, ok := colMap.NewPos(col.Ind); !ok {
			n++
		}
	}
	return n
}

// addedColumnTail returns fields for columns present in image but absent
// from table (no colMap entry maps to them), sorted by col.Ind.
func addedColumnTail(table, image *dict.Table, colMap dict.ColMap) []*dict.Field {
	reached := make(map[int]bool, len(colMap))
	for _, newPos := range colMap {
		if newPos != dict.Undefined {
			reached[newPos] = true
		}
	}
	_ = table

	var added []*dict.Col
	for _, col := range image.Cols {
		if !reached[col.Ind] {
			added = append(added, col)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Ind < added[j].Ind })

	fields := make([]*dict.Field, 0, len(added))
	for _, col := range added {
		fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
	}
	return fields
}
