package analyzer

const currentPage = "Current Page"

// presence renders an extracted value as "Present" or "Missing".
func presence(value string) string {
	if value != "" {
		return "Present"
	}
	return "Missing"
}

// metaTagsStatus: all three tags present is success, title or description
// alone is a warning, neither is an error.
func metaTagsStatus(title, description, canonical string) Status {
	switch {
	case title != "" && description != "" && canonical != "":
		return StatusSuccess
	case title != "" || description != "":
		return StatusWarning
	default:
		return StatusError
	}
}

// h1Rule maps an h1 count to the heading verdict.
type h1Rule struct {
	matches func(h1 int) bool
	issues  string
	status  Status
}

var h1Rules = []h1Rule{
	{func(n int) bool { return n == 1 }, "Good structure", StatusSuccess},
	{func(n int) bool { return n == 0 }, "Missing H1", StatusError},
	{func(n int) bool { return n > 1 }, "Multiple H1 tags", StatusError},
}

func headingVerdict(h1 int) (string, Status) {
	for _, rule := range h1Rules {
		if rule.matches(h1) {
			return rule.issues, rule.status
		}
	}
	return "Missing H1", StatusError
}

// altThreshold: a missing-alt share strictly below below yields status.
type altThreshold struct {
	below  float64
	status Status
}

// No missing alt text is success, under 30% missing is a warning, the rest is an error.
var altThresholds = []altThreshold{
	{0.3, StatusWarning},
}

func imageStatus(total, missing int) Status {
	if missing == 0 {
		return StatusSuccess
	}
	for _, th := range altThresholds {
		if float64(missing) < float64(total)*th.below {
			return th.status
		}
	}
	return StatusError
}

// probeStatus: a reachable resource is success, anything else a warning.
func probeStatus(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusWarning
}

// requiredStatus is used for checks whose absence is an error.
func requiredStatus(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusError
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
