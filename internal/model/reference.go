package model

// Bucket is the population segment a reference range applies to. Buckets
// are resolved age-first, then gender, then the default bucket.
type Bucket string

const (
	BucketInfant      Bucket = "infant"
	BucketChild       Bucket = "child"
	BucketAdultMale   Bucket = "adult_male"
	BucketAdultFemale Bucket = "adult_female"
	BucketDefault     Bucket = "default"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// BucketsFor returns the candidate buckets for a patient in lookup priority
// order. Age wins over gender: under one year is infant, under eighteen is
// child. The default bucket is always the final fallback.
func BucketsFor(ageYears float64, gender Gender) []Bucket {
	switch {
	case ageYears < 1:
		return []Bucket{BucketInfant, BucketDefault}
	case ageYears < 18:
		return []Bucket{BucketChild, BucketDefault}
	case gender == GenderMale:
		return []Bucket{BucketAdultMale, BucketDefault}
	case gender == GenderFemale:
		return []Bucket{BucketAdultFemale, BucketDefault}
	default:
		return []Bucket{BucketDefault}
	}
}

// ReferenceRange is one externally supplied range row for a parameter and
// bucket. Any of the bounds may be absent; evaluation only applies the
// bounds that exist. This core never mutates these rows.
type ReferenceRange struct {
	Parameter    string   `db:"parameter" json:"parameter"`
	Bucket       Bucket   `db:"bucket" json:"bucket"`
	Min          *float64 `db:"min" json:"min,omitempty"`
	Max          *float64 `db:"max" json:"max,omitempty"`
	CriticalLow  *float64 `db:"critical_low" json:"critical_low,omitempty"`
	CriticalHigh *float64 `db:"critical_high" json:"critical_high,omitempty"`
	Unit         string   `db:"unit" json:"unit"`
}
