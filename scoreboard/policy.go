package scoreboard

import "fmt"

// Policy decides which observations the scoreboard compares.
type Policy string

const (
	// PolicyLenient compares every observation that finds a pending
	// prediction and skips the others.
	PolicyLenient Policy = "lenient"

	// PolicyStrict compares exactly the observations of ticks that asserted
	// read enable. Such an observation without a pending prediction is a
	// fatal harness error.
	PolicyStrict Policy = "strict"
)

// ParsePolicy converts a policy name. The empty name selects PolicyLenient.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown scoreboard policy %q", s)
	}
}
