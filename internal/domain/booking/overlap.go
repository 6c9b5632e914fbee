package booking

// FindConflict returns the first active booking whose stay overlaps
// candidate, or nil when the dates are free.
func FindConflict(active []*Booking, candidate DateRange) *Booking {
	for _, b := range active {
		if b == nil || !b.IsActive() {
			continue
		}
		if b.Stay().Overlaps(candidate) {
			return b
		}
	}
	return nil
}

func HasConflict(active []*Booking, candidate DateRange) bool {
	return FindConflict(active, candidate) != nil
}
