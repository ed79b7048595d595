package dict

// MType is the main data type of a column (dict_col_t.mtype).
type MType uint8

const (
	MTypeInt MType = iota
	MTypeChar
	MTypeVarchar
	MTypeVarMySQL
	MTypeBinary
	MTypeFixBinary
	MTypeBlob
	MTypeGeometry
	MTypeFloat
	MTypeDouble
	MTypeDecimal
	MTypeSys
	MTypeSysChild
)

// PType is the precise-type bitset of a column (dict_col_t.prtype): the low
// bits are flags, the high bits (from PTypeCharsetShift up) hold the
// character-set id.
type PType uint32

const (
	PTypeNotNull PType = 1 << iota
	PTypeUnsigned
	PTypeBinary
	PTypeVersioned
	PTypeVersStart
	PTypeVersEnd
	PTypeLongTrueVarchar
	PTypeVirtual

	// PTypeCharsetShift is the bit offset at which a character-set id is
	// packed into the high bits of PType.
	PTypeCharsetShift = 16
	// PTypeCharsetMask isolates the charset-id bits once shifted down.
	PTypeCharsetMask PType = 0xFFFF << PTypeCharsetShift

	// prtypeCompatMask is the set of bits instant.Column is allowed to see
	// differ between an old and new column of the "same" identity.
	prtypeCompatMask = PTypeNotNull | PTypeVersioned | PTypeCharsetMask | PTypeLongTrueVarchar
)

// CharsetID extracts the character-set id packed into the high bits.
func (p PType) CharsetID() uint16 {
	return uint16((p & PTypeCharsetMask) >> PTypeCharsetShift)
}

// WithCharsetID returns p with its charset-id bits replaced.
func (p PType) WithCharsetID(id uint16) PType {
	return (p &^ PTypeCharsetMask) | (PType(id) << PTypeCharsetShift)
}

// UNIVSQLNull is the sentinel DefVal.Len meaning "the default is SQL NULL".
const UNIVSQLNull = -1

// DefVal is the default value carried by an instantly-added column so that
// existing rows, which never stored a value for it, can still report one.
type DefVal struct {
	Data []byte
	Len  int // UNIVSQLNull means NULL
}

// IsNull reports whether this default value is SQL NULL.
func (d DefVal) IsNull() bool { return d.Len == UNIVSQLNull }

// Col is a single column definition (dict_col_t).
type Col struct {
	Ind    int // position in the original creation order (0-based)
	MType  MType
	PType  PType
	Len    uint16 // max storage length
	MBMinLen uint8
	MBMaxLen uint8

	OrdPart bool // participates in some index

	DefVal    *DefVal // populated iff added instantly
	Dropped   bool
	AddedInstantly bool

	Name string
}

// IsAdded reports whether the column was added by an instant ALTER.
func (c *Col) IsAdded() bool { return c.AddedInstantly }

// NotNull reports whether the column disallows NULL.
func (c *Col) NotNull() bool { return c.PType&PTypeNotNull != 0 }

// SameType reports whether two columns have a storage-compatible mtype and
// charset, the "same_type" predicate instant.Column relies on.
func SameType(a, b *Col) bool {
	if a.MType != b.MType {
		return false
	}
	return a.PType.CharsetID() == b.PType.CharsetID()
}

// CompatibleForInstant reports whether updated can replace old in an instant
// column-map entry: prtype may only differ in the whitelisted bits, the new
// length must not shrink, and the underlying type must be storage-compatible.
func CompatibleForInstant(old, updated *Col) bool {
	if !SameType(old, updated) {
		return false
	}
	if updated.Len < old.Len {
		return false
	}
	diff := old.PType ^ updated.PType
	return diff&^prtypeCompatMask == 0
}
