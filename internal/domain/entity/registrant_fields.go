package entity

import "github.com/oksasatya/member-registry/pkg/fieldmap"

// External keys of the lifecycle fields.
const (
	KeyID         = "id"
	KeyRegNo      = "regNo"
	KeyRegDate    = "regDate"
	KeyPlan       = "plan"
	KeyAmount     = "amount"
	KeyValidDays  = "validDays"
	KeyExpiryDate = "expiryDate"
	KeyStatus     = "status"
	KeyIsDeleted  = "isDeleted"
	KeyCreatedAt  = "createdAt"
	KeyUpdatedAt  = "updatedAt"
	KeyCreatedBy  = "createdBy"
	KeyModifiedBy = "modifiedBy"
	KeyDeletedBy  = "deletedBy"
	KeyEmail      = "email"
	KeyName       = "name"
	KeyPhotoURL   = "photoUrl"
)

// Storage columns of the lifecycle fields.
const (
	ColID         = "id"
	ColRegNo      = "reg_no"
	ColRegDate    = "reg_date"
	ColPlan       = "plan"
	ColAmount     = "amount"
	ColValidDays  = "valid_days"
	ColExpiryDate = "expiry_date"
	ColStatus     = "plan_status"
	ColIsDeleted  = "is_deleted"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
	ColCreatedBy  = "created_by"
	ColModifiedBy = "modified_by"
	ColDeletedBy  = "deleted_by"
)

// attributeFields are the opaque profile attributes. They are carried through
// unchanged apart from text coercion.
var attributeFields = []fieldmap.Field{
	text("name", "name"),
	text("gender", "gender"),
	text("dob", "dob"),
	text("birthTime", "birth_time"),
	text("birthPlace", "birth_place"),
	text("age", "age"),
	text("height", "height"),
	text("weight", "weight"),
	text("complexion", "complexion"),
	text("bloodGroup", "blood_group"),
	text("maritalStatus", "marital_status"),
	text("religion", "religion"),
	text("caste", "caste"),
	text("subCaste", "sub_caste"),
	text("gotra", "gotra"),
	text("rashi", "rashi"),
	text("nakshatra", "nakshatra"),
	text("manglik", "manglik"),
	text("motherTongue", "mother_tongue"),
	text("education", "education"),
	text("occupation", "occupation"),
	text("annualIncome", "annual_income"),
	text("workLocation", "work_location"),
	text("fatherName", "father_name"),
	text("fatherOccupation", "father_occupation"),
	text("motherName", "mother_name"),
	text("motherOccupation", "mother_occupation"),
	text("siblings", "siblings"),
	text("phone", "phone"),
	text("altPhone", "alt_phone"),
	text("email", "email"),
	text("address", "address"),
	text("city", "city"),
	text("district", "district"),
	text("state", "state"),
	text("country", "country"),
	text("pincode", "pincode"),
	text(KeyPhotoURL, "photo_url"),
	text("expectations", "expectations"),
	text("remarks", "remarks"),
}

func text(key, column string) fieldmap.Field {
	return fieldmap.Field{Key: key, Column: column, Transform: fieldmap.Text}
}

func raw(key, column string) fieldmap.Field {
	return fieldmap.Field{Key: key, Column: column}
}

var (
	regNoField   = text(KeyRegNo, ColRegNo)
	regDateField = raw(KeyRegDate, ColRegDate)
	planField    = fieldmap.Field{Key: KeyPlan, Column: ColPlan, Transform: fieldmap.Lower}

	// computedFields are derived from the plan table and the clock.
	computedFields = []fieldmap.Field{
		raw(KeyAmount, ColAmount),
		raw(KeyValidDays, ColValidDays),
		raw(KeyExpiryDate, ColExpiryDate),
		raw(KeyStatus, ColStatus),
	}
)

var (
	// CreatePayload is what a caller may send on create.
	CreatePayload = fieldmap.New(concat([]fieldmap.Field{regNoField, regDateField, planField}, attributeFields)...)

	// UpdatePayload is what a caller may send on update. The registration
	// number addresses the record and cannot be changed.
	UpdatePayload = fieldmap.New(concat([]fieldmap.Field{regDateField, planField}, attributeFields)...)

	// CreateColumns adds the computed and system fields forced on insert.
	CreateColumns = CreatePayload.Extend(concat(computedFields, []fieldmap.Field{
		raw(KeyIsDeleted, ColIsDeleted),
		raw(KeyCreatedAt, ColCreatedAt),
		raw(KeyUpdatedAt, ColUpdatedAt),
		raw(KeyCreatedBy, ColCreatedBy),
		raw(KeyModifiedBy, ColModifiedBy),
	})...)

	// UpdateColumns adds the computed and system fields stamped on update.
	UpdateColumns = UpdatePayload.Extend(concat(computedFields, []fieldmap.Field{
		raw(KeyUpdatedAt, ColUpdatedAt),
		raw(KeyModifiedBy, ColModifiedBy),
	})...)

	// AllColumns is every stored column, used for reads.
	AllColumns = fieldmap.New(concat(
		[]fieldmap.Field{raw(KeyID, ColID), regNoField, regDateField, planField},
		computedFields,
		[]fieldmap.Field{
			raw(KeyIsDeleted, ColIsDeleted),
			raw(KeyCreatedAt, ColCreatedAt),
			raw(KeyUpdatedAt, ColUpdatedAt),
			raw(KeyCreatedBy, ColCreatedBy),
			raw(KeyModifiedBy, ColModifiedBy),
			raw(KeyDeletedBy, ColDeletedBy),
		},
		attributeFields,
	)...)

	// ListFilters are the equality filters accepted by the list operation.
	ListFilters = fieldmap.New(
		planField,
		text("gender", "gender"),
		text("religion", "religion"),
		text("caste", "caste"),
		text("maritalStatus", "marital_status"),
		text("motherTongue", "mother_tongue"),
		text("education", "education"),
		text("city", "city"),
		text("state", "state"),
	)

	// OptionFields are the columns enumerated by the filter options operation.
	OptionFields = ListFilters.Extend(
		text("rashi", "rashi"),
		text("nakshatra", "nakshatra"),
		text("occupation", "occupation"),
	)
)

func concat(parts ...[]fieldmap.Field) []fieldmap.Field {
	var out []fieldmap.Field
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// SearchColumns are matched by the free-text list filter.
var SearchColumns = []string{"name", ColRegNo, "phone", "email", "city", "occupation"}
