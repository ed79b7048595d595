package instant

import (
	"encoding/binary"

	"dictengine/charset"
	"dictengine/dict"
	"dictengine/store"
)

// InfoBits distinguishes the two metadata-record shapes described in
// the clustered index leaf record.
type InfoBits uint8

const (
	InfoBitsMetadataAdd   InfoBits = 1
	InfoBitsMetadataAlter InfoBits = 2
)

// FieldMapPseudoField is the column name the serialized field_map travels
// under inside a general-path metadata tuple; the lower clustered-insert
// path recognizes it as the special pseudo-field rather than ordinary user
// data.
const FieldMapPseudoField = "$field_map"

// Row is a sample row of default values for existing columns after the
// ALTER, keyed by column name, used to build an ADD-only metadata record.
type Row map[string]any

// MetadataRecord builds the single physical record planted at the leftmost
// leaf of the clustered index to mark the new schema.
// trxID is the committing DDL transaction's id.
func MetadataRecord(table *dict.Table, prepared *Prepared, sample Row, trxID uint64) (store.Tuple, InfoBits, error) {
	clustered := table.Clustered()
	if prepared.PureAppend {
		return buildAddOnlyTuple(clustered, sample, trxID), InfoBitsMetadataAdd, nil
	}
	return buildGeneralTuple(table, clustered, sample, trxID), InfoBitsMetadataAlter, nil
}

func buildAddOnlyTuple(clustered *dict.Index, sample Row, trxID uint64) store.Tuple {
	fields := make([]store.Field, 0, len(clustered.Fields)+1)
	for _, f := range clustered.Fields {
		name := f.Name
		fields = append(fields, store.Field{Name: name, Value: dummyOrSample(f, sample)})
	}
	fields = append(fields, store.Field{Name: "DB_TRX_ID", Value: trxID}, store.Field{Name: "DB_ROLL_PTR", Value: uint64(0)})
	return store.Tuple{Table: "<clustered>", Fields: fields}
}

func buildGeneralTuple(table *dict.Table, clustered *dict.Index, sample Row, trxID uint64) store.Tuple {
	first := clustered.FirstUserField()
	fields := make([]store.Field, 0, len(clustered.Fields)+2)
	fields = append(fields, toTupleFields(clustered.Fields[:first], sample)...)

	fields = append(fields, store.Field{Name: FieldMapPseudoField, Value: serializeFieldMap(table.Instant.FieldMap)})

	for _, f := range clustered.Fields[first:] {
		if f.Col.IsDropped() {
			col := f.Col.Dropped
			if col.NotNull() {
				fields = append(fields, store.Field{Name: "", Value: zeroBuffer(f.FixedLen)})
			} else {
				fields = append(fields, store.Field{Name: "", Value: nil})
			}
			continue
		}
		fields = append(fields, store.Field{Name: f.Name, Value: trimmedSampleValue(f, sample)})
	}

	fields = append(fields, store.Field{Name: "DB_TRX_ID", Value: trxID}, store.Field{Name: "DB_ROLL_PTR", Value: uint64(0)})
	return store.Tuple{Table: "<clustered>", Fields: fields}
}

func toTupleFields(clusteredFields []*dict.Field, sample Row) []store.Field {
	out := make([]store.Field, 0, len(clusteredFields))
	for _, f := range clusteredFields {
		out = append(out, store.Field{Name: f.Name, Value: dummyOrSample(f, sample)})
	}
	return out
}

// serializeFieldMap packs field_map as a 4-byte length followed by 2 bytes
// per entry, matching the on-disk pseudo-field layout.
func serializeFieldMap(fieldMap []uint16) []byte {
	buf := make([]byte, 4+2*len(fieldMap))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(fieldMap)))
	for i, entry := range fieldMap {
		binary.BigEndian.PutUint16(buf[4+2*i:], entry)
	}
	return buf
}

func dummyOrSample(f *dict.Field, sample Row) any {
	col := f.Col.Column()
	if col == nil {
		return nil
	}
	if v, ok := sample[f.Name]; ok {
		return v
	}
	if !col.NotNull() {
		return nil
	}
	if col.Len > 0 {
		return zeroBuffer(int(col.Len))
	}
	return []byte{}
}

func trimmedSampleValue(f *dict.Field, sample Row) any {
	v := dummyOrSample(f, sample)
	s, ok := v.(string)
	if !ok || f.PrefixLen <= 0 {
		return v
	}
	col := f.Col.Column()
	mbMax := uint8(1)
	if col != nil {
		mbMax = charset.MaxBytesPerChar(col.PType.CharsetID())
	}
	limit := charset.AtMostNChars(mbMax, f.PrefixLen, col.Len)
	if int(limit) < len(s) {
		return s[:limit]
	}
	return s
}

func zeroBuffer(n int) []byte {
	if n <= 0 {
		return nil
	}
	return make([]byte, n)
}
