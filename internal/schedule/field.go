package schedule

// Field identifies one mutable attribute of an Entry for dirty tracking and
// patch generation. The set is closed: every constant below must have an
// entry in patchBuilders, which TestBuildPatch_coversAllFields enforces.
type Field int

const (
	FieldTitle Field = iota
	FieldStartDateTime
	FieldStartTimeZone
	FieldEndDateTime
	FieldEndTimeZone
	FieldLocation
	FieldDescription
	FieldColorID
	FieldNextRef
	FieldPrevRef
)

// AllFields lists every Field in the order patches are assembled.
// A fixed order keeps BuildPatch deterministic even though the dirty set is a map.
func AllFields() []Field {
	return []Field{
		FieldTitle,
		FieldStartDateTime,
		FieldStartTimeZone,
		FieldEndDateTime,
		FieldEndTimeZone,
		FieldLocation,
		FieldDescription,
		FieldColorID,
		FieldNextRef,
		FieldPrevRef,
	}
}

// String returns the symbolic field name used in error messages and logs.
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldStartDateTime:
		return "start_datetime"
	case FieldStartTimeZone:
		return "start_timezone"
	case FieldEndDateTime:
		return "end_datetime"
	case FieldEndTimeZone:
		return "end_timezone"
	case FieldLocation:
		return "location"
	case FieldDescription:
		return "description"
	case FieldColorID:
		return "color_id"
	case FieldNextRef:
		return "next_ref"
	case FieldPrevRef:
		return "prev_ref"
	}
	return "unknown"
}
