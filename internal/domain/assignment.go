package domain

// AssignmentAlternative is one feasible vehicle for a ride, the unit of ranking.
type AssignmentAlternative struct {
	Vehicle        Vehicle
	ETA            int // Minutes until pickup, wait time included
	WaitTime       int // Minutes the vehicle remains busy; 0 if not busy
	EstimatedPrice int
}

// AssignmentResult is the outcome of a successful vehicle search.
type AssignmentResult struct {
	ID             string
	Recommended    AssignmentAlternative
	RideDuration   int     // Minutes
	RideDistance   float64 // Kilometres
	SMSText        string
	NavigationURL  string
	Alternatives   []AssignmentAlternative // Excludes the recommended vehicle
	OptimizedStops []string                // Set only when stop optimization ran
}
