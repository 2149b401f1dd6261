package geo

// Record is a normalized geolocation answer. Blank fields mean the provider
// did not report them.
type Record struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
}

// IsEmpty reports whether no location field is set.
func (r *Record) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Country == "" && r.Region == "" && r.City == "" && r.ISP == ""
}

// Place returns "City, Region, Country" with blank parts left out.
func (r *Record) Place() string {
	if r == nil {
		return ""
	}
	place := ""
	for _, part := range []string{r.City, r.Region, r.Country} {
		if part == "" {
			continue
		}
		if place != "" {
			place += ", "
		}
		place += part
	}
	return place
}
