package metrics

// EndpointStats represents serve counters for one endpoint class
type EndpointStats struct {
	Name   string `json:"name"`
	Served int64  `json:"served"`
	Missed int64  `json:"missed"`
}

// Stats represents aggregated serve statistics across all endpoints
type Stats struct {
	TotalServed int64           `json:"total_served"`
	TotalMissed int64           `json:"total_missed"`
	Endpoints   []EndpointStats `json:"endpoints"`
}
