package affiliate

// StatusMap is one network's table from raw status code to canonical
// status. It must be total over every code the network is known to emit;
// partial coverage is a defect, not a degraded mode.
type StatusMap map[string]Status

// Map resolves a raw code deterministically. A code outside the table
// yields an *UnmappedStatusError tagged with the network and the
// offending code.
func (m StatusMap) Map(network, raw string) (Status, error) {
	s, ok := m[raw]
	if !ok {
		return "", &UnmappedStatusError{Network: network, Code: raw}
	}
	return s, nil
}
