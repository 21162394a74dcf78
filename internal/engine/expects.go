package engine

// Availability is the set of data paths present in a Match's Results at a
// given moment (spec GLOSSARY "Availability set").
type Availability map[string]struct{}

// ComputeAvailability derives the availability set from a match's Results
// tree (spec §4.4.2 step 1): every top-level key except the core-owned
// index/input_path/match_status fields, plus K.S for every top-level
// subkey S (other than "status") of any map-valued K.
func ComputeAvailability(results map[string]any) Availability {
	avail := make(Availability, len(results)*2)

	for key, value := range results {
		switch key {
		case "index", "input_path", "match_status":
			continue
		}
		avail[key] = struct{}{}

		sub, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for subkey := range sub {
			if subkey == "status" {
				continue
			}
			avail[key+"."+subkey] = struct{}{}
		}
	}

	return avail
}

// Ready evaluates the expects predicate (spec §4.3 "Runtime expects
// predicate"): a plugin with expects E is ready iff E is a subset of the
// available set A. The predicate is pure and side-effect-free.
func Ready(expects []string, avail Availability) bool {
	for _, path := range expects {
		if _, ok := avail[path]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the subset of expects not present in avail, used to
// build the ExpectsUnsatisfied diagnostic (spec §4.4.2 step 5).
func Missing(expects []string, avail Availability) []string {
	var missing []string
	for _, path := range expects {
		if _, ok := avail[path]; !ok {
			missing = append(missing, path)
		}
	}
	return missing
}
