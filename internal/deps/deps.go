package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"delivery/internal/services"
)

// Requirement defines an external dependency delivery relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the binaries a job needs for the given tool set.
func Requirements(tools Tools) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: tools.FFmpeg, Description: "Extracts and composites frames"},
		{Name: "FFprobe", Command: tools.FFprobe, Description: "Reads duration, frame rate and dimensions"},
	}
}

// Require returns an ErrToolMissing error naming the first unavailable,
// non-optional binary.
func Require(tools Tools) error {
	for _, status := range CheckBinaries(Requirements(tools)) {
		if status.Available || status.Optional {
			continue
		}
		return services.Wrap(services.ErrToolMissing, "preflight", status.Name, status.Detail, nil)
	}
	return nil
}
