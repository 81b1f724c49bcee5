package pricing

// PetAllowance splits the booked pets into those covered by the base rate and
// those billed as extras.
type PetAllowance struct {
	IncludedDogs int
	IncludedCats int
	ExtraDogs    int
	ExtraCats    int
}

// IncludedPetCount applies the single per-booking allowance. Dogs take it when
// there are any; otherwise cats do. Never both.
func IncludedPetCount(allowance, dogs, cats int) PetAllowance {
	dogs, cats = max(0, dogs), max(0, cats)
	var pa PetAllowance
	if allowance > 0 {
		if dogs > 0 {
			pa.IncludedDogs = min(dogs, allowance)
		} else {
			pa.IncludedCats = min(cats, allowance)
		}
	}
	pa.ExtraDogs = max(0, dogs-pa.IncludedDogs)
	pa.ExtraCats = max(0, cats-pa.IncludedCats)
	return pa
}
