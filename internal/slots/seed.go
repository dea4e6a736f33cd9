package slots

import "github.com/wolfman30/idseva-booking/internal/recommend"

// DemoCenters are the enrolment centers seeded by the initial migration and
// used by the in-memory store when no database is configured.
func DemoCenters() []recommend.Center {
	return []recommend.Center{
		{ID: "ctr-central", Name: "Central Aadhaar Seva Kendra", Address: "MG Road, Bengaluru 560001", Latitude: 12.9756, Longitude: 77.6066},
		{ID: "ctr-north", Name: "Hebbal Aadhaar Enrolment Center", Address: "Bellary Road, Hebbal, Bengaluru 560024", Latitude: 13.0358, Longitude: 77.5970},
		{ID: "ctr-south", Name: "Jayanagar Aadhaar Seva Kendra", Address: "4th Block, Jayanagar, Bengaluru 560011", Latitude: 12.9250, Longitude: 77.5938},
		{ID: "ctr-east", Name: "Whitefield Post Office Enrolment Desk", Address: "ITPL Main Road, Whitefield, Bengaluru 560066", Latitude: 12.9698, Longitude: 77.7500},
	}
}
